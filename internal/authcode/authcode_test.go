package authcode

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic(t *testing.T) {
	code, err := Static("123456").AuthCode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "123456", code)

	_, err = Static("").AuthCode(context.Background())
	assert.ErrorIs(t, err, ErrNoCode)
}

func TestFunc(t *testing.T) {
	src := Func(func(context.Context) (string, error) { return "", errors.New("offline") })

	_, err := src.AuthCode(context.Background())

	assert.EqualError(t, err, "offline")
}

func TestPrompt_ReadsLines(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompt(strings.NewReader(" 111 \n222\n"), &out)

	first, err := p.AuthCode(context.Background())
	require.NoError(t, err)
	second, err := p.AuthCode(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "111", first)
	assert.Equal(t, "222", second)
	assert.Equal(t, "Auth code: Auth code: ", out.String())
}

func TestPrompt_EOF(t *testing.T) {
	p := NewPrompt(strings.NewReader(""), nil)

	_, err := p.AuthCode(context.Background())

	assert.ErrorIs(t, err, ErrNoCode)
}

func TestPrompt_ContextCancelled(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	p := NewPrompt(r, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.AuthCode(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
