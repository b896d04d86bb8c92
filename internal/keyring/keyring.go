package keyring

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/streakline/internal/constants"
	"github.com/julianstephens/streakline/internal/models"
)

var (
	// ErrNotFound is returned when no credentials are found in the keyring
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

func get(user string) (string, error) {
	v, err := keyring.Get(constants.AppName, user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return v, nil
}

func del(user string) error {
	err := keyring.Delete(constants.AppName, user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete credentials from keyring: %w", err)
	}
	return nil
}

// GetConnectionString retrieves the database connection string from the OS keyring.
// Returns ErrNotFound if no credentials are stored.
func GetConnectionString() (string, error) {
	return get(constants.DefaultKeyringUser)
}

// SetConnectionString stores the database connection string in the OS keyring.
func SetConnectionString(connStr string) error {
	if connStr == "" {
		return errors.New("connection string cannot be empty")
	}
	if err := keyring.Set(constants.AppName, constants.DefaultKeyringUser, connStr); err != nil {
		return fmt.Errorf("failed to store credentials in keyring: %w", err)
	}
	return nil
}

// DeleteConnectionString removes the database connection string from the OS keyring.
func DeleteConnectionString() error {
	return del(constants.DefaultKeyringUser)
}

// JWTSecret returns the signing secret for self-hosted sessions, generating
// and storing one on first use.
func JWTSecret() ([]byte, error) {
	v, err := get(constants.JWTSecretUser)
	if err == nil {
		return hex.DecodeString(v)
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate secret: %w", err)
	}
	if err := keyring.Set(constants.AppName, constants.JWTSecretUser, hex.EncodeToString(secret)); err != nil {
		return nil, fmt.Errorf("failed to store secret in keyring: %w", err)
	}
	return secret, nil
}

// IsAvailable checks if the OS keyring is available on the current system.
// This is a best-effort check and may not catch all failure scenarios.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}

// SessionStore persists the auth session in the OS keyring as JSON.
// Scope separates sessions of different backends.
type SessionStore struct {
	Scope string
}

func (s SessionStore) user() string {
	if s.Scope == "" {
		return constants.SessionKeyringUser
	}
	return constants.SessionKeyringUser + ":" + s.Scope
}

func (s SessionStore) LoadSession() (*models.Session, error) {
	raw, err := get(s.user())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var session models.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("failed to decode stored session: %w", err)
	}
	return &session, nil
}

func (s SessionStore) SaveSession(session *models.Session) error {
	if session == nil {
		return s.DeleteSession()
	}
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := keyring.Set(constants.AppName, s.user(), string(raw)); err != nil {
		return fmt.Errorf("failed to store session in keyring: %w", err)
	}
	return nil
}

func (s SessionStore) DeleteSession() error {
	if err := del(s.user()); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}
