package liveview

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/iota-uz/go-i18n/v2/i18n"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"github.com/iota-uz/intake/modules/intake/presentation/layout"
	"github.com/iota-uz/intake/modules/intake/services"
	"github.com/iota-uz/intake/pkg/intl"
	"github.com/iota-uz/intake/pkg/ws"
)

type Config struct {
	Layout    *layout.Layout
	Bundle    *i18n.Bundle
	Languages []language.Tag
	// Deps builds the collaborators of one connection's controller. View, Translator and
	// Logger are set by the session.
	Deps         func(r *http.Request) services.Deps
	Options      services.Options
	UserIDHeader string
	CheckOrigin  func(r *http.Request) bool
	Logger       *logrus.Logger
}

// Session is one browser tab running the wizard.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc

	layout       *layout.Layout
	view         *View
	deps         services.Deps
	opts         services.Options
	headerUserID string
	translate    func(string) string
	log          *logrus.Entry

	mu     sync.Mutex
	ctrl   *services.Controller
	closed bool
}

func NewSession(cfg Config, conn ws.Connectioner, r *http.Request) *Session {
	id := uuid.NewString()
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	log := logger.WithFields(logrus.Fields{
		"session_id":  id,
		"remote_addr": r.RemoteAddr,
	})

	var deps services.Deps
	if cfg.Deps != nil {
		deps = cfg.Deps(r)
	}
	view := NewView(conn, log)
	deps.View = view
	deps.Logger = log

	translate := func(id string) string { return id }
	if cfg.Bundle != nil {
		tags, _, _ := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
		locale := intl.Match(cfg.Languages, tags...)
		tr := intl.NewTranslator(cfg.Bundle, locale.String())
		deps.Translator = tr
		translate = tr.T
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	headerUserID := ""
	if cfg.UserIDHeader != "" {
		headerUserID = strings.TrimSpace(r.Header.Get(cfg.UserIDHeader))
	}
	return &Session{
		id:           id,
		ctx:          ctx,
		cancel:       cancel,
		layout:       cfg.Layout,
		view:         view,
		deps:         deps,
		opts:         cfg.Options,
		headerUserID: headerUserID,
		translate:    translate,
		log:          log,
	}
}

func (s *Session) ID() string {
	return s.id
}

// Controller is nil until the browser said hello.
func (s *Session) Controller() *services.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl
}

func (s *Session) Handle(e Event) error {
	if e.Type == EventHello {
		return s.hello(e)
	}

	s.mu.Lock()
	ctrl := s.ctrl
	s.mu.Unlock()
	if ctrl == nil {
		return services.ErrNotInitialized
	}

	switch e.Type {
	case EventSaving:
		s.view.SetSaving(e.SectionID, e.InProgress)
	case EventSectionError:
		s.view.SetError(e.SectionID, e.Message)
		ctrl.HandleSectionError(e.SectionID)
	case EventFieldSaved:
		s.view.ClearError(e.SectionID)
		return ctrl.SubmitSectionChange(e.SectionID)
	case EventNext:
		return ctrl.NextClicked()
	case EventRetry:
		ctrl.Retry()
	}
	return nil
}

func (s *Session) hello(e Event) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	if s.ctrl != nil {
		s.mu.Unlock()
		s.log.Debug("liveview: duplicate hello ignored")
		return nil
	}
	if s.layout == nil {
		s.mu.Unlock()
		return errors.New("liveview: no layout configured")
	}
	opts := s.opts
	opts.Reloaded = e.Reloaded
	ctrl := services.NewController(s.deps, opts)
	s.ctrl = ctrl
	s.mu.Unlock()

	userID := strings.TrimSpace(e.UserID)
	if userID == "" {
		userID = s.headerUserID
	}
	page := s.layout.Page(userID, strings.TrimSpace(e.PreselectClinic), s.translate)
	return ctrl.Initialize(s.ctx, page)
}

func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	ctrl := s.ctrl
	s.mu.Unlock()
	if ctrl != nil {
		ctrl.Close()
	}
	s.cancel()
}
