// Package composables reads request-scoped values that middleware put in the context.
package composables

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/intake/pkg/constants"
)

// UseLogger returns the request logger installed by middleware.WithLogger, or an entry on
// the standard logger outside a request.
func UseLogger(ctx context.Context) *logrus.Entry {
	if logger, ok := ctx.Value(constants.LoggerKey).(*logrus.Entry); ok && logger != nil {
		return logger
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, constants.LoggerKey, logger)
}

// UseRequestStart is the time middleware.WithLogger saw the request.
func UseRequestStart(ctx context.Context) (time.Time, bool) {
	start, ok := ctx.Value(constants.RequestStart).(time.Time)
	return start, ok
}
