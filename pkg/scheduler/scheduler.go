// Package scheduler abstracts wall-clock timers so that polling code can run against
// a real clock in production and a manually advanced clock in tests.
package scheduler

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Scheduler runs callbacks on a clock. Stop funcs are idempotent and may be called
// from inside the callback they stop.
type Scheduler interface {
	Now() time.Time
	Every(interval time.Duration, fn func()) (stop func())
	After(delay time.Duration, fn func()) (stop func())
}

type clockScheduler struct {
	clock clockwork.Clock
}

func New(clock clockwork.Clock) Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &clockScheduler{clock: clock}
}

func NewReal() Scheduler {
	return New(clockwork.NewRealClock())
}

func (s *clockScheduler) Now() time.Time {
	return s.clock.Now()
}

func (s *clockScheduler) Every(interval time.Duration, fn func()) func() {
	ticker := s.clock.NewTicker(interval)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.Chan():
			}
			select {
			case <-done:
				return
			default:
			}
			fn()
		}
	}()

	return func() {
		once.Do(func() { close(done) })
	}
}

func (s *clockScheduler) After(delay time.Duration, fn func()) func() {
	timer := s.clock.AfterFunc(delay, fn)
	return func() {
		timer.Stop()
	}
}
