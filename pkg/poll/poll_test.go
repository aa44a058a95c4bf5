package poll

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/intake/pkg/scheduler/schedulertest"
)

func TestDecide(t *testing.T) {
	const (
		minElapsed = 500 * time.Millisecond
		ceiling    = 10 * time.Second
	)
	cases := []struct {
		name    string
		elapsed time.Duration
		pending bool
		want    Outcome
	}{
		{"too early even if idle", 150 * time.Millisecond, false, Running},
		{"too early and pending", 450 * time.Millisecond, true, Running},
		{"settled and idle", 600 * time.Millisecond, false, Ready},
		{"settled but pending", 600 * time.Millisecond, true, Running},
		{"ceiling while pending", ceiling, true, CeilingReached},
		{"idle past ceiling is still ready", 11 * time.Second, false, Ready},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Decide(tc.elapsed, tc.pending, minElapsed, ceiling))
		})
	}
}

func TestTask_ReadyAfterMinimumElapsed(t *testing.T) {
	sched := schedulertest.NewManual(time.Time{})
	var readyAt time.Duration
	task := Start(sched, Options{
		Name:       "test_ready",
		Interval:   150 * time.Millisecond,
		MinElapsed: 500 * time.Millisecond,
		Ceiling:    10 * time.Second,
		OnReady:    func(elapsed time.Duration) { readyAt = elapsed },
		OnCeiling:  func(time.Duration) { t.Fatal("ceiling must not be reached") },
	})

	sched.Advance(450 * time.Millisecond)
	require.Equal(t, Running, task.Outcome())

	sched.Advance(150 * time.Millisecond)
	require.Equal(t, Ready, task.Outcome())
	require.Equal(t, 600*time.Millisecond, readyAt)
	require.Equal(t, 0, sched.Pending())
}

func TestTask_WaitsForPendingToClear(t *testing.T) {
	sched := schedulertest.NewManual(time.Time{})
	pending := true
	ready := 0
	task := Start(sched, Options{
		Name:       "test_pending",
		Interval:   150 * time.Millisecond,
		MinElapsed: 500 * time.Millisecond,
		Ceiling:    10 * time.Second,
		Pending:    func() bool { return pending },
		OnReady:    func(time.Duration) { ready++ },
	})

	sched.Advance(3 * time.Second)
	require.Equal(t, Running, task.Outcome())
	require.Zero(t, ready)

	pending = false
	sched.Advance(150 * time.Millisecond)
	require.Equal(t, Ready, task.Outcome())
	require.Equal(t, 1, ready)

	sched.Advance(time.Second)
	require.Equal(t, 1, ready)
}

func TestTask_CeilingWhenNeverCleared(t *testing.T) {
	sched := schedulertest.NewManual(time.Time{})
	var ceilingAt time.Duration
	task := Start(sched, Options{
		Name:       "test_ceiling",
		Interval:   150 * time.Millisecond,
		MinElapsed: 500 * time.Millisecond,
		Ceiling:    10 * time.Second,
		Pending:    func() bool { return true },
		OnReady:    func(time.Duration) { t.Fatal("must not become ready") },
		OnCeiling:  func(elapsed time.Duration) { ceilingAt = elapsed },
	})

	sched.Advance(9900 * time.Millisecond)
	require.Equal(t, Running, task.Outcome())

	sched.Advance(300 * time.Millisecond)
	require.Equal(t, CeilingReached, task.Outcome())
	require.GreaterOrEqual(t, ceilingAt, 10*time.Second)
	require.Equal(t, 0, sched.Pending())
}

func TestTask_CancelSuppressesCallbacks(t *testing.T) {
	sched := schedulertest.NewManual(time.Time{})
	task := Start(sched, Options{
		Name:      "test_cancel",
		OnReady:   func(time.Duration) { t.Fatal("cancelled task must stay quiet") },
		OnCeiling: func(time.Duration) { t.Fatal("cancelled task must stay quiet") },
	})

	require.True(t, task.Cancel())
	require.False(t, task.Cancel())
	require.Equal(t, Cancelled, task.Outcome())
	require.Equal(t, 0, sched.Pending())

	sched.Advance(20 * time.Second)
}

func TestTask_NilCancelIsSafe(t *testing.T) {
	var task *Task
	require.False(t, task.Cancel())
}
