// Package poll implements cancellable "re-check until a condition holds or a ceiling
// passes" tasks on top of a scheduler.
package poll

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/intake/pkg/scheduler"
)

type Outcome int

const (
	Running Outcome = iota
	Ready
	CeilingReached
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Running:
		return "running"
	case Ready:
		return "ready"
	case CeilingReached:
		return "ceiling"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Decide evaluates a single tick. Readiness needs both the minimum elapsed time and a
// cleared pending flag; the ceiling only applies while the operation is still pending.
func Decide(elapsed time.Duration, pending bool, minElapsed, ceiling time.Duration) Outcome {
	if elapsed < minElapsed {
		return Running
	}
	if !pending {
		return Ready
	}
	if elapsed >= ceiling {
		return CeilingReached
	}
	return Running
}

type Task struct {
	mu      sync.Mutex
	opts    Options
	sched   scheduler.Scheduler
	started time.Time
	stop    func()
	outcome Outcome
	m       *metrics
}

// Start schedules the task; the first check happens one interval after Start.
func Start(s scheduler.Scheduler, opts Options) *Task {
	opts.setDefaults()
	t := &Task{
		opts:    opts,
		sched:   s,
		started: s.Now(),
		m:       getMetrics(),
	}

	t.mu.Lock()
	t.stop = s.Every(opts.Interval, t.tick)
	t.mu.Unlock()

	t.m.startedTotal.WithLabelValues(opts.Name).Inc()
	t.m.active.WithLabelValues(opts.Name).Inc()
	t.opts.Logger.WithFields(logrus.Fields{
		"poll":     opts.Name,
		"interval": opts.Interval,
		"ceiling":  opts.Ceiling,
	}).Debug("poll: started")
	return t
}

func (t *Task) tick() {
	t.mu.Lock()
	if t.outcome != Running {
		t.mu.Unlock()
		return
	}
	elapsed := t.sched.Now().Sub(t.started)
	pending := t.opts.Pending != nil && t.opts.Pending()
	outcome := Decide(elapsed, pending, t.opts.MinElapsed, t.opts.Ceiling)
	if outcome == Running {
		t.mu.Unlock()
		return
	}
	t.finishLocked(outcome, elapsed)
	t.mu.Unlock()

	switch outcome {
	case Ready:
		if t.opts.OnReady != nil {
			t.opts.OnReady(elapsed)
		}
	case CeilingReached:
		t.opts.Logger.WithFields(logrus.Fields{
			"poll":    t.opts.Name,
			"elapsed": elapsed,
		}).Warn("poll: ceiling reached while still pending")
		if t.opts.OnCeiling != nil {
			t.opts.OnCeiling(elapsed)
		}
	}
}

func (t *Task) finishLocked(outcome Outcome, elapsed time.Duration) {
	t.outcome = outcome
	if t.stop != nil {
		t.stop()
	}
	t.m.active.WithLabelValues(t.opts.Name).Dec()
	t.m.finishedTotal.WithLabelValues(t.opts.Name, outcome.String()).Inc()
	t.m.elapsed.WithLabelValues(t.opts.Name, outcome.String()).Observe(elapsed.Seconds())
}

// Cancel stops a running task without invoking its callbacks. It reports whether the
// task was still running.
func (t *Task) Cancel() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.outcome != Running {
		return false
	}
	t.finishLocked(Cancelled, t.sched.Now().Sub(t.started))
	return true
}

func (t *Task) Outcome() Outcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outcome
}

func (t *Task) Elapsed() time.Duration {
	return t.sched.Now().Sub(t.started)
}
