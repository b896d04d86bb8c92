package storage

import (
	"sync"

	"github.com/julianstephens/streakline/internal/models"
)

// SessionStore persists the current session between runs.
type SessionStore interface {
	// LoadSession returns nil, nil when no session is stored.
	LoadSession() (*models.Session, error)
	SaveSession(*models.Session) error
	DeleteSession() error
}

// MemorySessions keeps the session in process memory only.
type MemorySessions struct {
	mu      sync.Mutex
	session *models.Session
}

func (m *MemorySessions) LoadSession() (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, nil
	}
	s := *m.session
	return &s, nil
}

func (m *MemorySessions) SaveSession(s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s == nil {
		m.session = nil
		return nil
	}
	cp := *s
	m.session = &cp
	return nil
}

func (m *MemorySessions) DeleteSession() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}
