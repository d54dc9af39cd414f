package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/setlistify/internal/models"
	"github.com/desertthunder/setlistify/internal/shared"
)

// Continuation captures a pending search and selection across an authorization redirect.
type Continuation struct {
	Query   string
	Artist  *models.Artist
	Setlist *models.Setlist
}

// Session is the explicit state of one user session.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex
	query     string
	artist    *models.Artist
	setlist   *models.Setlist
	suspended *Continuation
}

// Select records the current search and its result.
func (s *Session) Select(query string, artist *models.Artist, setlist *models.Setlist) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query, s.artist, s.setlist = query, artist, setlist
}

// Selection returns the current search and its result.
func (s *Session) Selection() (query string, artist *models.Artist, setlist *models.Setlist) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query, s.artist, s.setlist
}

// Clear drops the selection and any pending continuation.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query, s.artist, s.setlist = "", nil, nil
	s.suspended = nil
}

// Suspend stores c until the next [Session.Resume]. A later call replaces an unconsumed continuation.
func (s *Session) Suspend(c Continuation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suspended = &c
}

// SuspendCurrent suspends the current selection.
func (s *Session) SuspendCurrent() Continuation {
	s.mu.Lock()
	c := Continuation{Query: s.query, Artist: s.artist, Setlist: s.setlist}
	s.mu.Unlock()

	s.Suspend(c)
	return c
}

// Resume returns the suspended continuation and restores it as the selection.
//
// It returns nil when nothing is suspended, including on every call after the first.
func (s *Session) Resume() *Continuation {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.suspended
	s.suspended = nil
	if c != nil {
		s.query, s.artist, s.setlist = c.Query, c.Artist, c.Setlist
	}
	return c
}

// Manager owns the live sessions and evicts their tokens when they end.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	store    TokenStore
	logger   *log.Logger
	now      func() time.Time
}

// NewManager creates a Manager whose sessions keep tokens in store.
func NewManager(store TokenStore, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		store:    store,
		logger:   shared.WithLogger(logger, "component", "session"),
		now:      time.Now,
	}
}

// Start returns the session with id, creating it if needed. An empty id generates a new one.
func (m *Manager) Start(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		id = shared.GenerateID()
	}
	if s, ok := m.sessions[id]; ok {
		return s
	}

	s := &Session{ID: id, CreatedAt: m.now()}
	m.sessions[id] = s
	m.logger.Debug("session started", "session", id)
	return s
}

// Get returns a live session.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Disconnect evicts the session's token and clears its selection. The session stays live.
func (m *Manager) Disconnect(ctx context.Context, id string) error {
	if s, ok := m.Get(id); ok {
		s.Clear()
	}

	if m.store == nil {
		return nil
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to evict token for session %s: %w", id, err)
	}
	m.logger.Info("session disconnected", "session", id)
	return nil
}

// End disconnects the session and forgets it.
func (m *Manager) End(ctx context.Context, id string) error {
	err := m.Disconnect(ctx, id)

	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()

	return err
}
