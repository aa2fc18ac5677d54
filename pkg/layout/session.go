package layout

import (
	"context"
	"sync"

	"github.com/matzehuels/gardenflow/pkg/errors"
	"github.com/matzehuels/gardenflow/pkg/flow"
)

// ErrSuperseded is returned by [Session.Submit] when a newer request
// arrived before this one finished.
var ErrSuperseded = errors.New(errors.ErrCodeSuperseded, "layout superseded by a newer request")

// Session runs layouts for one interactive view. Only the most recently
// submitted request may publish a result.
type Session struct {
	adapter *Adapter

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	latest *Result
}

// NewSession creates a session over adapter.
func NewSession(adapter *Adapter) *Session {
	return &Session{adapter: adapter}
}

// Submit lays out g, cancelling any request still in flight. It returns
// [ErrSuperseded] if another Submit started before this one completed.
func (s *Session) Submit(ctx context.Context, g flow.Graph, opts Options) (Result, error) {
	s.mu.Lock()
	s.seq++
	id := s.seq
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	res := s.adapter.Layout(ctx, g, opts)

	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.seq {
		return Result{}, ErrSuperseded
	}
	s.cancel = nil
	s.latest = &res
	return res, nil
}

// Latest returns the last published result.
func (s *Session) Latest() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return Result{}, false
	}
	return *s.latest, true
}

// Close cancels any request in flight.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
