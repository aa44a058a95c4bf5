package telemetry

import (
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/intake/modules/intake/services"
	"github.com/iota-uz/intake/pkg/eventbus"
)

// Audit writes one structured line per wizard milestone.
type Audit struct {
	log *logrus.Entry
}

func NewAudit(logger *logrus.Logger) *Audit {
	return &Audit{log: logger.WithField("component", "intake.audit")}
}

func (a *Audit) Subscribe(bus eventbus.EventBus) {
	bus.Subscribe(func(e *services.SectionOpenedEvent) {
		a.log.WithFields(logrus.Fields{"user_id": e.UserID, "section": e.SectionID}).Info("section opened")
	})
	bus.Subscribe(func(e *services.SaveConfirmedEvent) {
		a.log.WithFields(logrus.Fields{
			"user_id":   e.UserID,
			"section":   e.SectionID,
			"elapsed":   e.Elapsed,
			"remaining": e.Remaining,
			"complete":  e.Complete,
		}).Info("save confirmed")
	})
	bus.Subscribe(func(e *services.SaveUnresolvedEvent) {
		a.log.WithFields(logrus.Fields{"user_id": e.UserID, "section": e.SectionID, "elapsed": e.Elapsed}).
			Warn("save not confirmed before ceiling")
	})
	bus.Subscribe(func(e *services.HaltedEvent) {
		a.log.WithFields(logrus.Fields{"user_id": e.UserID, "section": e.SectionID, "reason": e.Reason}).
			Warn("wizard halted")
	})
	bus.Subscribe(func(e *services.FinishedEvent) {
		a.log.WithFields(logrus.Fields{"user_id": e.UserID, "reloaded": e.Reloaded}).Info("wizard finished")
	})
}
