// Package schedulertest provides a deterministic scheduler driven by Advance.
package schedulertest

import (
	"sort"
	"sync"
	"time"
)

type job struct {
	seq      int
	next     time.Time
	interval time.Duration
	fn       func()
	stopped  bool
}

// Manual fires due callbacks synchronously on the goroutine calling Advance.
type Manual struct {
	mu   sync.Mutex
	now  time.Time
	seq  int
	jobs []*job
}

func NewManual(start time.Time) *Manual {
	if start.IsZero() {
		start = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	}
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Every(interval time.Duration, fn func()) func() {
	return m.add(interval, interval, fn)
}

func (m *Manual) After(delay time.Duration, fn func()) func() {
	return m.add(delay, 0, fn)
}

func (m *Manual) add(delay, interval time.Duration, fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	j := &job{seq: m.seq, next: m.now.Add(delay), interval: interval, fn: fn}
	m.jobs = append(m.jobs, j)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		j.stopped = true
		m.compact()
	}
}

func (m *Manual) compact() {
	live := m.jobs[:0]
	for _, j := range m.jobs {
		if !j.stopped {
			live = append(live, j)
		}
	}
	m.jobs = live
}

// Advance moves virtual time forward by d, running every callback that falls due in
// chronological order. Callbacks scheduled while advancing are honoured as well.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		due := m.nextDue(target)
		if due == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = due.next
		if due.interval > 0 {
			due.next = due.next.Add(due.interval)
		} else {
			due.stopped = true
			m.compact()
		}
		fn := due.fn
		m.mu.Unlock()
		fn()
	}
}

func (m *Manual) nextDue(target time.Time) *job {
	candidates := make([]*job, 0, len(m.jobs))
	for _, j := range m.jobs {
		if !j.stopped && !j.next.After(target) {
			candidates = append(candidates, j)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, k int) bool {
		if candidates[i].next.Equal(candidates[k].next) {
			return candidates[i].seq < candidates[k].seq
		}
		return candidates[i].next.Before(candidates[k].next)
	})
	return candidates[0]
}

// Pending reports how many timers and tickers are still scheduled.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, j := range m.jobs {
		if !j.stopped {
			n++
		}
	}
	return n
}
