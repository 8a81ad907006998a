package state

import (
	"context"
	"sync"
	"time"
)

// Store keeps the watermark in a JSON file with concurrency safety.
type Store struct {
	mu       sync.Mutex
	state    *WatermarkState
	filePath string
}

// NewStore creates a Store, loading existing state from disk.
func NewStore(filePath string) (*Store, error) {
	st, err := LoadState(filePath)
	if err != nil {
		return nil, err
	}
	return &Store{state: st, filePath: filePath}, nil
}

// Watermark returns the persisted watermark; ok is false when none was saved yet.
func (s *Store) Watermark() (t time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Watermark, !s.state.Watermark.IsZero()
}

// SaveWatermark persists t. A watermark older than the stored one is ignored.
func (s *Store) SaveWatermark(_ context.Context, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.Before(s.state.Watermark) {
		return nil
	}
	next := *s.state
	next.Watermark = t
	if err := SaveState(s.filePath, &next); err != nil {
		return err
	}
	s.state = &next
	return nil
}
