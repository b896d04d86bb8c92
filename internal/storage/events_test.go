package storage

import (
	"testing"

	"github.com/julianstephens/streakline/internal/models"
)

func TestAuthEvents(t *testing.T) {
	var events AuthEvents
	var got []string

	unsubA := events.Subscribe(func(event models.AuthEvent, s *models.Session) {
		got = append(got, "a:"+string(event))
	})
	unsubB := events.Subscribe(func(event models.AuthEvent, s *models.Session) {
		got = append(got, "b:"+string(event))
	})

	events.Emit(models.EventSignedIn, &models.Session{})
	if len(got) != 2 || got[0] != "a:SIGNED_IN" || got[1] != "b:SIGNED_IN" {
		t.Fatalf("listeners called = %v, want a then b", got)
	}

	unsubA()
	unsubA() // second call is a no-op
	got = nil
	events.Emit(models.EventSignedOut, nil)
	if len(got) != 1 || got[0] != "b:SIGNED_OUT" {
		t.Errorf("after unsubscribe got = %v, want only b", got)
	}

	unsubB()
	got = nil
	events.Emit(models.EventSignedIn, nil)
	if len(got) != 0 {
		t.Errorf("no listeners should run, got %v", got)
	}
}

func TestAuthEventsListenerMaySubscribe(t *testing.T) {
	var events AuthEvents
	calls := 0
	events.Subscribe(func(models.AuthEvent, *models.Session) {
		calls++
		// Re-entrant subscribe must not deadlock
		events.Subscribe(func(models.AuthEvent, *models.Session) {})
	})

	events.Emit(models.EventInitialSession, nil)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestMemorySessions(t *testing.T) {
	var store MemorySessions

	s, err := store.LoadSession()
	if err != nil || s != nil {
		t.Fatalf("LoadSession() on empty store = %v, %v", s, err)
	}

	in := &models.Session{AccessToken: "tok", User: models.User{ID: "u1"}}
	if err := store.SaveSession(in); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}
	in.AccessToken = "mutated"

	out, err := store.LoadSession()
	if err != nil {
		t.Fatalf("LoadSession() error = %v", err)
	}
	if out.AccessToken != "tok" {
		t.Errorf("stored session aliased caller value: %q", out.AccessToken)
	}

	if err := store.DeleteSession(); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if s, _ := store.LoadSession(); s != nil {
		t.Error("session still present after delete")
	}
}
