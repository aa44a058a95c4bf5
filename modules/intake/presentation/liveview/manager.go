package liveview

import (
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/intake/pkg/ws"
)

// Manager owns the websocket hub and one Session per connection.
type Manager struct {
	cfg    Config
	hub    *ws.Hub
	logger *logrus.Logger

	mu       sync.Mutex
	sessions map[*ws.Connection]*Session
}

func NewManager(cfg Config) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	m := &Manager{
		cfg:      cfg,
		logger:   cfg.Logger,
		sessions: make(map[*ws.Connection]*Session),
	}
	m.hub = ws.NewHub(&ws.HubOptions{
		Logger:       cfg.Logger,
		CheckOrigin:  cfg.CheckOrigin,
		OnConnect:    m.onConnect,
		OnMessage:    m.onMessage,
		OnDisconnect: m.onDisconnect,
	})
	return m
}

func (m *Manager) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.hub.ServeHTTP(w, r)
}

func (m *Manager) Sessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) onConnect(r *http.Request, _ *ws.Hub, conn *ws.Connection) error {
	s := NewSession(m.cfg, conn, r)
	m.mu.Lock()
	m.sessions[conn] = s
	m.mu.Unlock()
	s.log.Info("liveview: session opened")
	return nil
}

func (m *Manager) onMessage(conn *ws.Connection, raw []byte) {
	m.mu.Lock()
	s := m.sessions[conn]
	m.mu.Unlock()
	if s == nil {
		return
	}
	e, err := DecodeEvent(raw)
	if err != nil {
		s.log.WithError(err).Warn("liveview: dropping client event")
		return
	}
	if err := s.Handle(e); err != nil {
		s.log.WithError(err).WithField("event", e.Type).Warn("liveview: client event failed")
	}
}

func (m *Manager) onDisconnect(conn *ws.Connection) {
	m.mu.Lock()
	s := m.sessions[conn]
	delete(m.sessions, conn)
	m.mu.Unlock()
	if s == nil {
		return
	}
	s.Close()
	s.log.Info("liveview: session closed")
}
