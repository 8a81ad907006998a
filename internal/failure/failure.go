// Package failure normalizes the error shapes surfaced by the portal into
// a single error type.
package failure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Kind is the error taxonomy of a polling cycle.
type Kind int

const (
	KindGeneric Kind = iota
	KindTransport
	KindInvalidCredential
	KindMalformedPayload
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindInvalidCredential:
		return "invalid_credential"
	case KindMalformedPayload:
		return "malformed_payload"
	default:
		return "generic"
	}
}

// Error is the canonical error emitted by the controller.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap returns an Error of the given kind wrapping err.
func Wrap(kind Kind, err error, message string) *Error {
	if message == "" && err != nil {
		message = err.Error()
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// Is reports whether err carries an Error of the given kind.
func Is(err error, kind Kind) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Kind == kind
}

// credentialPhrases are lower-cased message fragments the portal uses when
// it rejects a login.
var credentialPhrases = []string{
	"invalid username",
	"invalid password",
	"invalid credentials",
	"invalid authcode",
	"invalid auth code",
	"ongeldige",
}

func classify(message string) Kind {
	m := strings.ToLower(message)
	for _, p := range credentialPhrases {
		if strings.Contains(m, p) {
			return KindInvalidCredential
		}
	}
	return KindGeneric
}

// Raw is a failure as received from a collaborator. It is one of Text,
// Structured or Standard.
type Raw interface {
	raw()
}

// Text is a failure delivered as a plain or JSON-encoded string.
type Text string

// Structured is a failure delivered as a decoded object.
type Structured map[string]any

// Standard is a failure delivered as a Go error.
type Standard struct {
	Err error
}

func (Text) raw()       {}
func (Structured) raw() {}
func (Standard) raw()   {}

// Normalize converts raw into an Error.
func Normalize(raw Raw) *Error {
	switch r := raw.(type) {
	case Text:
		return fromText(string(r))
	case Structured:
		return fromStructured(r)
	case Standard:
		return FromError(r.Err)
	case nil:
		return New(KindGeneric, "unknown error")
	default:
		return New(KindGeneric, fmt.Sprint(raw))
	}
}

// FromError normalizes a Go error. An Error already in the chain is
// returned unchanged.
func FromError(err error) *Error {
	if err == nil {
		return New(KindGeneric, "unknown error")
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return Wrap(KindTransport, err, "")
	}
	return Wrap(classify(err.Error()), err, "")
}

func fromText(s string) *Error {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{") {
		return New(classify(s), s)
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return Wrap(KindMalformedPayload, err, fmt.Sprintf("malformed error payload: %s", trimmed))
	}
	return fromStructured(obj)
}

func fromStructured(obj map[string]any) *Error {
	msg := stringField(obj, "message")
	if msg == "" {
		msg = stringField(obj, "Message")
	}
	if msg == "" {
		msg = fmt.Sprint(obj)
	}
	return New(classify(msg), msg)
}

func stringField(obj map[string]any, key string) string {
	v, ok := obj[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
