package failure

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_JSONText(t *testing.T) {
	err := Normalize(Text(`{"message":"Invalid username"}`))

	assert.Equal(t, "Invalid username", err.Error())
	assert.Equal(t, KindInvalidCredential, err.Kind)
}

func TestNormalize_CapitalizedMessageKey(t *testing.T) {
	err := Normalize(Text(`{"Message":"Server is busy","Code":503}`))

	assert.Equal(t, "Server is busy", err.Message)
	assert.Equal(t, KindGeneric, err.Kind)
}

func TestNormalize_LowercaseKeyPreferred(t *testing.T) {
	err := Normalize(Structured{"message": "first", "Message": "second"})

	assert.Equal(t, "first", err.Message)
}

func TestNormalize_PlainText(t *testing.T) {
	err := Normalize(Text("connection refused by portal"))

	assert.Equal(t, "connection refused by portal", err.Message)
	assert.Equal(t, KindGeneric, err.Kind)
}

func TestNormalize_MalformedJSON(t *testing.T) {
	err := Normalize(Text(`{"message": `))

	assert.Equal(t, KindMalformedPayload, err.Kind)
	assert.NotNil(t, err.Unwrap())
}

func TestNormalize_StructuredWithoutMessage(t *testing.T) {
	err := Normalize(Structured{"code": "E42"})

	assert.Equal(t, "map[code:E42]", err.Message)
}

func TestNormalize_StandardPassesThrough(t *testing.T) {
	orig := New(KindTransport, "socket closed")

	assert.Same(t, orig, Normalize(Standard{Err: orig}))
	assert.Same(t, orig, FromError(fmt.Errorf("fetch grades: %w", orig)))
}

func TestNormalize_StandardPlainError(t *testing.T) {
	base := errors.New("Ongeldige gebruikersnaam of wachtwoord")

	err := Normalize(Standard{Err: base})

	assert.Equal(t, KindInvalidCredential, err.Kind)
	assert.ErrorIs(t, err, base)
}

func TestNormalize_DeadlineIsTransport(t *testing.T) {
	err := FromError(fmt.Errorf("get grades: %w", context.DeadlineExceeded))

	assert.Equal(t, KindTransport, err.Kind)
}

func TestNormalize_Nil(t *testing.T) {
	require.NotNil(t, Normalize(nil))
	require.NotNil(t, FromError(nil))
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("cycle: %w", New(KindInvalidCredential, "Invalid password"))

	assert.True(t, Is(err, KindInvalidCredential))
	assert.False(t, Is(err, KindTransport))
	assert.False(t, Is(errors.New("x"), KindGeneric))
}
