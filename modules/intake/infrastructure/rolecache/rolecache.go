// Package rolecache caches user roles between intake sessions. A failed roles lookup drops
// the cached entry so the next session asks the portal again.
package rolecache

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/intake/modules/intake/services"
	"github.com/iota-uz/intake/pkg/logging"
)

type Store interface {
	Get(ctx context.Context, userID string) ([]string, bool, error)
	Set(ctx context.Context, userID string, roles []string) error
	Delete(ctx context.Context, userID string) error
}

type Cached struct {
	source services.RoleSource
	store  Store
	log    *logrus.Entry
}

func New(source services.RoleSource, store Store, log *logrus.Entry) *Cached {
	if log == nil {
		log = logging.Nop()
	}
	return &Cached{source: source, store: store, log: log}
}

func (c *Cached) UserRoles(ctx context.Context, userID string) ([]string, error) {
	roles, ok, err := c.store.Get(ctx, userID)
	if err != nil {
		c.log.WithError(err).Warn("rolecache: read failed, asking the portal")
	} else if ok {
		return roles, nil
	}

	roles, err = c.source.UserRoles(ctx, userID)
	if err != nil {
		if derr := c.store.Delete(ctx, userID); derr != nil {
			c.log.WithError(derr).Warn("rolecache: invalidate failed")
		}
		return nil, err
	}
	if err := c.store.Set(ctx, userID, roles); err != nil {
		c.log.WithError(err).Warn("rolecache: write failed")
	}
	return roles, nil
}

// Invalidate drops the cached roles of a user.
func (c *Cached) Invalidate(ctx context.Context, userID string) error {
	return c.store.Delete(ctx, userID)
}
