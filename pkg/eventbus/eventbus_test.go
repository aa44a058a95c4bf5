package eventbus

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/intake/pkg/logging"
)

type sectionOpened struct {
	sectionID string
}

type sectionClosed struct {
	sectionID string
}

func bufferedLogger(level logrus.Level) (*logrus.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(buf)
	log.SetLevel(level)
	return log, buf
}

func TestPublisher_PublishWithoutSubscribersWarns(t *testing.T) {
	log, buf := bufferedLogger(logrus.WarnLevel)
	publisher := NewEventPublisher(log)
	publisher.Subscribe(func(e *sectionOpened) {
		t.Error("should not be called")
	})

	publisher.Publish(&sectionClosed{sectionID: "demographics"})

	require.Contains(t, buf.String(), "eventbus.Publish: no matching subscribers")
}

func TestPublisher_Subscribe(t *testing.T) {
	publisher := NewEventPublisher(logging.ConsoleLogger(logrus.WarnLevel))
	var got string
	publisher.Subscribe(func(e *sectionOpened) {
		got = e.sectionID
	})

	publisher.Publish(&sectionOpened{sectionID: "demographics"})

	require.Equal(t, "demographics", got)
	require.Equal(t, 1, publisher.SubscribersCount())
}

func TestPublisher_UnsubscribeAndClear(t *testing.T) {
	publisher := NewEventPublisher(logging.ConsoleLogger(logrus.ErrorLevel))
	calls := 0
	handler := func(e *sectionOpened) { calls++ }
	other := func(e *sectionClosed) {}

	publisher.Subscribe(handler)
	publisher.Subscribe(other)
	publisher.Unsubscribe(handler)
	publisher.Publish(&sectionOpened{})

	require.Zero(t, calls)
	require.Equal(t, 1, publisher.SubscribersCount())

	publisher.Clear()
	require.Zero(t, publisher.SubscribersCount())
}

func TestMatchSignature(t *testing.T) {
	require.True(t, MatchSignature(func(e *sectionOpened) {}, []interface{}{&sectionOpened{}}))
	require.False(t, MatchSignature(func(e *sectionOpened) {}, []interface{}{&sectionClosed{}}))
	require.False(t, MatchSignature(func(e *sectionOpened) {}, []interface{}{}))
	require.False(t, MatchSignature(func(e *sectionOpened) {}, []interface{}{&sectionOpened{}, &sectionOpened{}}))
	require.True(t, MatchSignature(func(ctx context.Context) {}, []interface{}{context.Background()}))
	require.True(t, MatchSignature(func(ctx context.Context, e *sectionOpened) {}, []interface{}{context.Background(), nil}))
	require.False(t, MatchSignature("not a func", []interface{}{}))
}

func TestPublisher_PanicRecovery(t *testing.T) {
	t.Run("panic is logged and other handlers still run", func(t *testing.T) {
		log, buf := bufferedLogger(logrus.ErrorLevel)
		publisher := NewEventPublisher(log)

		first, last := false, false
		publisher.Subscribe(func(e *sectionOpened) { first = true })
		publisher.Subscribe(func(e *sectionOpened) { panic("renderer went away") })
		publisher.Subscribe(func(e *sectionOpened) { last = true })

		publisher.Publish(&sectionOpened{sectionID: "topTerms"})

		require.True(t, first)
		require.True(t, last)
		require.Contains(t, buf.String(), "panicked")
		require.Contains(t, buf.String(), "renderer went away")
	})

	t.Run("all handlers panicking counts as unhandled", func(t *testing.T) {
		log, buf := bufferedLogger(logrus.WarnLevel)
		publisher := NewEventPublisher(log)
		publisher.Subscribe(func(e *sectionOpened) { panic("always") })

		publisher.Publish(&sectionOpened{})

		require.Contains(t, buf.String(), "no matching subscribers")
	})
}

func TestPublisher_PublishE(t *testing.T) {
	t.Run("no subscribers", func(t *testing.T) {
		publisher := NewEventPublisher(logging.ConsoleLogger(logrus.ErrorLevel))
		require.ErrorIs(t, publisher.PublishE(&sectionOpened{}), ErrNoSubscribers)
	})

	t.Run("handler errors are joined", func(t *testing.T) {
		publisher := NewEventPublisher(logging.ConsoleLogger(logrus.ErrorLevel))
		errA := errors.New("metrics unavailable")
		publisher.Subscribe(func(e *sectionOpened) error { return errA })
		publisher.Subscribe(func(e *sectionOpened) error { return nil })
		publisher.Subscribe(func(e *sectionOpened) {})

		err := publisher.PublishE(&sectionOpened{})
		require.ErrorIs(t, err, errA)
	})

	t.Run("bad return signature", func(t *testing.T) {
		publisher := NewEventPublisher(logging.ConsoleLogger(logrus.ErrorLevel))
		publisher.Subscribe(func(e *sectionOpened) string { return "ok" })

		require.ErrorIs(t, publisher.PublishE(&sectionOpened{}), ErrInvalidHandlerReturn)
	})

	t.Run("panic becomes an error", func(t *testing.T) {
		publisher := NewEventPublisher(logging.ConsoleLogger(logrus.ErrorLevel))
		publisher.Subscribe(func(e *sectionOpened) error { panic("boom") })

		err := publisher.PublishE(&sectionOpened{})
		require.Error(t, err)
		require.Contains(t, err.Error(), "panicked")
	})
}

func TestPublisher_HandlerMaySubscribeWhilePublishing(t *testing.T) {
	publisher := NewEventPublisher(logging.ConsoleLogger(logrus.ErrorLevel))
	publisher.Subscribe(func(e *sectionOpened) {
		publisher.Subscribe(func(e *sectionClosed) {})
	})

	publisher.Publish(&sectionOpened{})

	require.Equal(t, 2, publisher.SubscribersCount())
}

func TestPublisher_ConcurrentPublish(t *testing.T) {
	publisher := NewEventPublisher(logging.ConsoleLogger(logrus.ErrorLevel))
	var mu sync.Mutex
	seen := 0
	publisher.Subscribe(func(e *sectionOpened) {
		mu.Lock()
		seen++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			publisher.Publish(&sectionOpened{})
		}()
	}
	wg.Wait()

	require.Equal(t, 20, seen)
}
