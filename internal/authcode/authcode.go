// Package authcode provides sources for the portal's second-factor auth code.
package authcode

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ErrNoCode is returned when a source has no code to offer.
var ErrNoCode = errors.New("no auth code available")

// Source obtains a fresh auth code.
type Source interface {
	AuthCode(ctx context.Context) (string, error)
}

// Func adapts a function to Source.
type Func func(ctx context.Context) (string, error)

func (f Func) AuthCode(ctx context.Context) (string, error) { return f(ctx) }

// Static always returns the same code.
type Static string

func (s Static) AuthCode(_ context.Context) (string, error) {
	if s == "" {
		return "", ErrNoCode
	}
	return string(s), nil
}

// Prompt asks for a code on Out and reads one line from In.
type Prompt struct {
	In  io.Reader
	Out io.Writer

	mu      sync.Mutex
	reader  *bufio.Reader
	pending chan lineResult // read left in flight by a cancelled call
}

type lineResult struct {
	line string
	err  error
}

// NewPrompt creates a Prompt on the given streams.
func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{In: in, Out: out}
}

func (p *Prompt) AuthCode(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	if p.Out != nil {
		fmt.Fprint(p.Out, "Auth code: ")
	}

	if p.pending == nil {
		ch := make(chan lineResult, 1)
		go func() {
			line, err := p.reader.ReadString('\n')
			ch <- lineResult{line, err}
		}()
		p.pending = ch
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-p.pending:
		p.pending = nil
		code := strings.TrimSpace(r.line)
		if code == "" {
			if r.err != nil && !errors.Is(r.err, io.EOF) {
				return "", fmt.Errorf("read auth code: %w", r.err)
			}
			return "", ErrNoCode
		}
		return code, nil
	}
}
