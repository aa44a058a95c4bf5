// Package liveview drives the intake controller over a websocket: the browser reports
// what the page is doing, the controller answers with directives.
package liveview

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/intake/modules/intake/domain/directive"
	"github.com/iota-uz/intake/pkg/ws"
)

// View mirrors the page state the browser reports and forwards directives to it.
type View struct {
	conn ws.Connectioner
	log  *logrus.Entry

	mu     sync.Mutex
	saving map[string]bool
	errs   map[string]string
}

func NewView(conn ws.Connectioner, log *logrus.Entry) *View {
	return &View{
		conn:   conn,
		log:    log,
		saving: map[string]bool{},
		errs:   map[string]string{},
	}
}

func (v *View) SavingInProgress(sectionID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.saving[sectionID]
}

func (v *View) SectionHasError(sectionID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.errs[sectionID]
	return ok
}

func (v *View) Render(d directive.Directive) {
	raw, err := directive.Marshal(d)
	if err != nil {
		v.log.WithError(err).WithField("directive", d.Kind()).Error("liveview: encode directive")
		return
	}
	if err := v.conn.SendMessage(raw); err != nil {
		v.log.WithError(err).WithField("directive", d.Kind()).Warn("liveview: send directive")
	}
}

func (v *View) SetSaving(sectionID string, inProgress bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if inProgress {
		v.saving[sectionID] = true
		return
	}
	delete(v.saving, sectionID)
}

func (v *View) SetError(sectionID, message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errs[sectionID] = message
}

func (v *View) ClearError(sectionID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.errs, sectionID)
}
