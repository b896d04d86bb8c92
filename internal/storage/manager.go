package storage

import (
	"context"
	"sync"
	"time"

	"github.com/julianstephens/streakline/internal/constants"
	"github.com/julianstephens/streakline/internal/logger"
	"github.com/julianstephens/streakline/internal/models"
)

// RefreshFunc exchanges an expired session for a fresh one.
type RefreshFunc func(ctx context.Context, expired *models.Session) (*models.Session, error)

// SessionManager holds the current session for a backend. It restores the
// persisted session on first use, refreshes it when it is about to expire
// and announces every change through its AuthEvents.
type SessionManager struct {
	AuthEvents

	store   SessionStore
	refresh RefreshFunc
	now     func() time.Time
	leeway  time.Duration

	mu      sync.Mutex
	loaded  bool
	current *models.Session
}

// NewSessionManager returns a manager over store. A nil store keeps the
// session in memory only; a nil refresh drops expired sessions.
func NewSessionManager(store SessionStore, refresh RefreshFunc) *SessionManager {
	if store == nil {
		store = &MemorySessions{}
	}
	return &SessionManager{
		store:   store,
		refresh: refresh,
		now:     time.Now,
		leeway:  constants.SessionRefreshLeeway * time.Second,
	}
}

// SetClock replaces time.Now, for tests
func (m *SessionManager) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

// Current returns the live session, or nil when signed out.
func (m *SessionManager) Current(ctx context.Context) (*models.Session, error) {
	m.mu.Lock()

	var event models.AuthEvent
	if !m.loaded {
		stored, err := m.store.LoadSession()
		if err != nil {
			m.mu.Unlock()
			return nil, err
		}
		m.current = stored
		m.loaded = true
		event = models.EventInitialSession
	}

	if m.current != nil && m.current.Expired(m.now(), m.leeway) {
		fresh := m.refreshLocked(ctx)
		if event == "" {
			if fresh != nil {
				event = models.EventTokenRefreshed
			} else {
				event = models.EventSignedOut
			}
		}
	}

	session := copySession(m.current)
	m.mu.Unlock()

	if event != "" {
		m.Emit(event, copySession(session))
	}
	return session, nil
}

func (m *SessionManager) refreshLocked(ctx context.Context) *models.Session {
	expired := m.current
	m.current = nil

	if m.refresh != nil && expired.RefreshToken != "" {
		fresh, err := m.refresh(ctx, expired)
		if err == nil && fresh != nil {
			m.current = fresh
			if err := m.store.SaveSession(fresh); err != nil {
				logger.Warn("Failed to persist refreshed session", "error", err)
			}
			logger.Debug("Refreshed session", "user", fresh.User.Email)
			return fresh
		}
		logger.Warn("Session refresh failed", "error", err)
	}

	if err := m.store.DeleteSession(); err != nil {
		logger.Warn("Failed to delete expired session", "error", err)
	}
	return nil
}

// Set stores a newly issued session and announces event.
func (m *SessionManager) Set(session *models.Session, event models.AuthEvent) error {
	m.mu.Lock()
	if err := m.store.SaveSession(session); err != nil {
		m.mu.Unlock()
		return err
	}
	m.current = copySession(session)
	m.loaded = true
	m.mu.Unlock()

	m.Emit(event, copySession(session))
	return nil
}

// Clear forgets the session and announces SIGNED_OUT.
func (m *SessionManager) Clear() error {
	m.mu.Lock()
	m.current = nil
	m.loaded = true
	err := m.store.DeleteSession()
	m.mu.Unlock()

	m.Emit(models.EventSignedOut, nil)
	return err
}

func copySession(s *models.Session) *models.Session {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}
