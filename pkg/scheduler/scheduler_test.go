package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/intake/pkg/scheduler/schedulertest"
)

func TestClockScheduler_EveryTicksUntilStopped(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(clock)

	ticks := make(chan struct{}, 8)
	stop := s.Every(150*time.Millisecond, func() { ticks <- struct{}{} })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	clock.Advance(150 * time.Millisecond)
	select {
	case <-ticks:
	case <-ctx.Done():
		t.Fatal("expected a tick after advancing one interval")
	}

	stop()
	stop()
	require.NoError(t, clock.BlockUntilContext(ctx, 0))
}

func TestClockScheduler_AfterCanBeStopped(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(clock)

	fired := make(chan struct{}, 1)
	stop := s.After(time.Second, func() { fired <- struct{}{} })
	stop()
	clock.Advance(2 * time.Second)

	select {
	case <-fired:
		t.Fatal("stopped timer must not fire")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestManual_AdvanceRunsCallbacksInOrder(t *testing.T) {
	m := schedulertest.NewManual(time.Time{})
	var order []string

	m.After(300*time.Millisecond, func() { order = append(order, "after") })
	stop := m.Every(100*time.Millisecond, func() { order = append(order, "tick") })

	m.Advance(300 * time.Millisecond)
	// ties at 300ms run in registration order
	require.Equal(t, []string{"tick", "tick", "after", "tick"}, order)

	stop()
	require.Equal(t, 0, m.Pending())
	m.Advance(time.Second)
	require.Len(t, order, 4)
}

func TestManual_StopFromInsideCallback(t *testing.T) {
	m := schedulertest.NewManual(time.Time{})
	calls := 0
	var stop func()
	stop = m.Every(50*time.Millisecond, func() {
		calls++
		if calls == 2 {
			stop()
		}
	})

	m.Advance(time.Second)
	require.Equal(t, 2, calls)
}

func TestManual_ZeroDelayRunsOnAdvanceZero(t *testing.T) {
	m := schedulertest.NewManual(time.Time{})
	ran := false
	m.After(0, func() { ran = true })
	require.False(t, ran)
	m.Advance(0)
	require.True(t, ran)
}
