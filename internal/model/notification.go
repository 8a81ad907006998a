package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// NotificationGrade is emitted once per newly published grade.
type NotificationGrade struct {
	Grade          decimal.NullDecimal `json:"grade"`
	Text           string              `json:"text"` // value as published
	IsPass         bool                `json:"is_pass"`
	Description    string              `json:"description"`
	Weight         decimal.Decimal     `json:"weight"`
	ClassName      string              `json:"class_name"`
	ClassAverage   decimal.NullDecimal `json:"class_average"`
	OverallAverage decimal.NullDecimal `json:"overall_average"`
	OverallPoints  decimal.NullDecimal `json:"overall_points"`
	FirstName      string              `json:"first_name,omitempty"`
	FilledIn       time.Time           `json:"filled_in"`
}
