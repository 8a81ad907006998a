package model

import (
	"time"

	"github.com/google/uuid"
)

// EventKind names the two event streams.
type EventKind string

const (
	EventGrade EventKind = "grade"
	EventError EventKind = "error"
)

// ErrorPayload is the serialized form of a surfaced failure.
type ErrorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Event is the envelope handed to downstream consumers.
type Event struct {
	ID    string             `json:"id"`
	Kind  EventKind          `json:"kind"`
	At    time.Time          `json:"at"`
	Grade *NotificationGrade `json:"grade,omitempty"`
	Error *ErrorPayload      `json:"error,omitempty"`
}

// NewGradeEvent wraps a grade notification.
func NewGradeEvent(g NotificationGrade) *Event {
	return &Event{ID: uuid.NewString(), Kind: EventGrade, At: time.Now().UTC(), Grade: &g}
}

// NewErrorEvent wraps a failure.
func NewErrorEvent(kind, message string) *Event {
	return &Event{
		ID:    uuid.NewString(),
		Kind:  EventError,
		At:    time.Now().UTC(),
		Error: &ErrorPayload{Kind: kind, Message: message},
	}
}
