package keyring

import (
	"bytes"
	"testing"
	"time"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/streakline/internal/models"
)

func TestSetAndGetConnectionString(t *testing.T) {
	gokeyring.MockInit()

	testConnStr := "postgres://testuser@localhost:5432/testdb?sslmode=disable"

	if err := SetConnectionString(testConnStr); err != nil {
		t.Fatalf("SetConnectionString() failed: %v", err)
	}

	retrieved, err := GetConnectionString()
	if err != nil {
		t.Fatalf("GetConnectionString() failed: %v", err)
	}
	if retrieved != testConnStr {
		t.Errorf("GetConnectionString() = %q, want %q", retrieved, testConnStr)
	}
}

func TestSetConnectionStringEmpty(t *testing.T) {
	gokeyring.MockInit()

	if err := SetConnectionString(""); err == nil {
		t.Error("SetConnectionString(\"\") should return an error")
	}
}

func TestGetConnectionStringNotFound(t *testing.T) {
	gokeyring.MockInit()

	_ = DeleteConnectionString()

	_, err := GetConnectionString()
	if err != ErrNotFound {
		t.Errorf("GetConnectionString() error = %v, want %v", err, ErrNotFound)
	}
}

func TestDeleteConnectionString(t *testing.T) {
	gokeyring.MockInit()

	if err := SetConnectionString("postgres://testuser@localhost:5432/testdb"); err != nil {
		t.Fatalf("SetConnectionString() failed: %v", err)
	}
	if err := DeleteConnectionString(); err != nil {
		t.Fatalf("DeleteConnectionString() failed: %v", err)
	}
	if err := DeleteConnectionString(); err != ErrNotFound {
		t.Errorf("second DeleteConnectionString() error = %v, want %v", err, ErrNotFound)
	}
}

func TestJWTSecretIsStable(t *testing.T) {
	gokeyring.MockInit()

	first, err := JWTSecret()
	if err != nil {
		t.Fatalf("JWTSecret() failed: %v", err)
	}
	if len(first) != 32 {
		t.Errorf("secret length = %d, want 32", len(first))
	}

	second, err := JWTSecret()
	if err != nil {
		t.Fatalf("JWTSecret() failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("JWTSecret() returned a different secret on second call")
	}
}

func TestSessionStore(t *testing.T) {
	gokeyring.MockInit()

	store := SessionStore{Scope: "https://example.supabase.co"}

	s, err := store.LoadSession()
	if err != nil || s != nil {
		t.Fatalf("LoadSession() on empty keyring = %v, %v", s, err)
	}

	in := &models.Session{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "bearer",
		ExpiresAt:    time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		User:         models.User{ID: "u1", Email: "a@example.com"},
	}
	if err := store.SaveSession(in); err != nil {
		t.Fatalf("SaveSession() failed: %v", err)
	}

	out, err := store.LoadSession()
	if err != nil {
		t.Fatalf("LoadSession() failed: %v", err)
	}
	if out.AccessToken != "access" || out.User.Email != "a@example.com" || !out.ExpiresAt.Equal(in.ExpiresAt) {
		t.Errorf("LoadSession() = %+v", out)
	}

	// Sessions are scoped
	other := SessionStore{Scope: "other"}
	if s, _ := other.LoadSession(); s != nil {
		t.Error("session leaked across scopes")
	}

	if err := store.DeleteSession(); err != nil {
		t.Fatalf("DeleteSession() failed: %v", err)
	}
	if err := store.DeleteSession(); err != nil {
		t.Errorf("DeleteSession() on empty keyring should be a no-op, got %v", err)
	}
}
