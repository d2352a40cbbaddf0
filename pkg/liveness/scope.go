package liveness

import (
	"context"
	"sync"
	"time"

	"github.com/teslashibe/go-liveness/pkg/clock"
)

// scope groups the timers of one timeline. Closing it cancels its token
// and stops every timer it created; callbacks must check closed() before
// touching session state.
type scope struct {
	ctx    context.Context
	cancel context.CancelFunc
	clock  clock.Clock
	start  time.Time

	mu     sync.Mutex
	timers []clock.Timer
}

func newScope(parent context.Context, clk clock.Clock) *scope {
	ctx, cancel := context.WithCancel(parent)
	return &scope{
		ctx:    ctx,
		cancel: cancel,
		clock:  clk,
		start:  clk.Now(),
	}
}

// after schedules f unless the scope is already closed.
func (s *scope) after(d time.Duration, f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return
	}
	s.timers = append(s.timers, s.clock.AfterFunc(d, f))
}

func (s *scope) closed() bool {
	return s.ctx.Err() != nil
}

func (s *scope) elapsed() time.Duration {
	return s.clock.Now().Sub(s.start)
}

func (s *scope) close() {
	s.cancel()
	s.mu.Lock()
	timers := s.timers
	s.timers = nil
	s.mu.Unlock()
	for _, t := range timers {
		t.Stop()
	}
}
