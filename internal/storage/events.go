package storage

import (
	"sort"
	"sync"

	"github.com/julianstephens/streakline/internal/models"
)

// Listener receives session changes. session is nil on sign-out.
type Listener func(event models.AuthEvent, session *models.Session)

// AuthEvents fans session changes out to subscribers. The zero value is
// ready to use.
type AuthEvents struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]Listener
}

// Subscribe registers fn and returns a func that removes it.
func (e *AuthEvents) Subscribe(fn Listener) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.listeners == nil {
		e.listeners = make(map[int]Listener)
	}
	id := e.nextID
	e.nextID++
	e.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.listeners, id)
			e.mu.Unlock()
		})
	}
}

// Emit calls every subscriber in subscription order. Listeners run outside
// the lock so they may call back into the provider.
func (e *AuthEvents) Emit(event models.AuthEvent, session *models.Session) {
	e.mu.Lock()
	ids := make([]int, 0, len(e.listeners))
	for id := range e.listeners {
		ids = append(ids, id)
	}
	listeners := make([]Listener, 0, len(ids))
	sort.Ints(ids)
	for _, id := range ids {
		listeners = append(listeners, e.listeners[id])
	}
	e.mu.Unlock()

	for _, fn := range listeners {
		fn(event, session)
	}
}
