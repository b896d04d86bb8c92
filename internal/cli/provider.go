package cli

import (
	"crypto/rand"
	stderrors "errors"
	"fmt"
	"net/url"

	"github.com/julianstephens/streakline/internal/config"
	"github.com/julianstephens/streakline/internal/constants"
	"github.com/julianstephens/streakline/internal/keyring"
	"github.com/julianstephens/streakline/internal/logger"
	"github.com/julianstephens/streakline/internal/storage"
	"github.com/julianstephens/streakline/internal/storage/postgres"
	"github.com/julianstephens/streakline/internal/storage/sqlite"
	"github.com/julianstephens/streakline/internal/storage/supabase"
)

// NewProvider builds the backend selected by cfg.Backend
func NewProvider(cfg *config.Config) (storage.Provider, error) {
	useKeyring := !cfg.NoKeyring && keyring.IsAvailable()
	if !cfg.NoKeyring && !useKeyring {
		logger.Warn("OS keyring unavailable, sessions will not persist between runs")
	}

	switch cfg.Backend {
	case constants.BackendSupabase:
		scope := constants.BackendSupabase
		if u, err := url.Parse(cfg.SupabaseURL); err == nil && u.Host != "" {
			scope += ":" + u.Host
		}
		return supabase.New(supabase.Options{
			URL:      cfg.SupabaseURL,
			AnonKey:  cfg.SupabaseAnonKey,
			Sessions: sessionStore(useKeyring, scope),
		})

	case constants.BackendSQLite:
		secret, err := signingSecret(useKeyring)
		if err != nil {
			return nil, err
		}
		return sqlite.NewStore(cfg.DB, secret, sessionStore(useKeyring, constants.BackendSQLite+":"+cfg.DB)), nil

	case constants.BackendPostgres:
		connStr, err := postgresConnString(cfg, useKeyring)
		if err != nil {
			return nil, err
		}
		secret, err := signingSecret(useKeyring)
		if err != nil {
			return nil, err
		}
		return postgres.New(connStr, secret, sessionStore(useKeyring, constants.BackendPostgres)), nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

func sessionStore(useKeyring bool, scope string) storage.SessionStore {
	if useKeyring {
		return keyring.SessionStore{Scope: scope}
	}
	return &storage.MemorySessions{}
}

// signingSecret comes from the keyring. Without one, sessions only live in
// memory, so a per-process secret is enough.
func signingSecret(useKeyring bool) ([]byte, error) {
	if useKeyring {
		return keyring.JWTSecret()
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate signing secret: %w", err)
	}
	return secret, nil
}

// postgresConnString prefers --database-url, which must not embed a
// password, and falls back to the keyring.
func postgresConnString(cfg *config.Config, useKeyring bool) (string, error) {
	if cfg.DatabaseURL != "" {
		if err := postgres.ValidateConnString(cfg.DatabaseURL); err != nil {
			if stderrors.Is(err, postgres.ErrEmbeddedCredentials) {
				return "", fmt.Errorf("%w: store it with 'streakline keyring set' or use .pgpass", err)
			}
			return "", err
		}
		return cfg.DatabaseURL, nil
	}
	if !useKeyring {
		return "", fmt.Errorf("postgres backend requires --database-url or a connection string in the OS keyring")
	}
	connStr, err := keyring.GetConnectionString()
	if err != nil {
		if stderrors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("no connection string configured: pass --database-url or run 'streakline keyring set'")
		}
		return "", err
	}
	return connStr, nil
}
