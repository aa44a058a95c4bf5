package poll

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/intake/pkg/logging"
)

type Options struct {
	// Name labels metrics and log lines, e.g. "save_confirmation".
	Name string

	Interval   time.Duration
	MinElapsed time.Duration
	Ceiling    time.Duration

	// Pending reports whether the watched operation is still in flight.
	// A nil Pending never blocks readiness.
	Pending func() bool

	OnReady   func(elapsed time.Duration)
	OnCeiling func(elapsed time.Duration)

	Logger *logrus.Entry
}

func (o *Options) setDefaults() {
	if o.Name == "" {
		o.Name = "poll"
	}
	if o.Interval <= 0 {
		o.Interval = 150 * time.Millisecond
	}
	if o.MinElapsed < 0 {
		o.MinElapsed = 0
	}
	if o.Ceiling <= 0 {
		o.Ceiling = 10 * time.Second
	}
	if o.Logger == nil {
		o.Logger = logging.Nop()
	}
}
