package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	pq "github.com/lib/pq"

	"github.com/julianstephens/streakline/internal/logger"
	"github.com/julianstephens/streakline/internal/storage"
	"github.com/julianstephens/streakline/internal/storage/sqldb"
)

var (
	ErrInvalidConnectionString = errors.New("invalid PostgreSQL connection string")
	ErrEmbeddedCredentials     = errors.New("connection string must not contain a password")
)

// Store is the self-hosted PostgreSQL backend
type Store struct {
	*sqldb.Store
}

var _ storage.Provider = (*Store)(nil)

func New(connStr string, secret []byte, sessions storage.SessionStore) *Store {
	return &Store{
		Store: sqldb.New(sqldb.Options{
			Dialect:  sqldb.Postgres,
			DSN:      connStr,
			Secret:   secret,
			Sessions: sessions,
		}),
	}
}

func (s *Store) Init(ctx context.Context) error {
	if err := s.connect(ctx); err != nil {
		return err
	}
	if _, err := s.Migrate(func(msg string) { logger.Info(msg) }); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) error {
	if s.DB() != nil {
		return nil
	}
	if err := s.connect(ctx); err != nil {
		return err
	}
	return s.ValidateSchema()
}

func (s *Store) connect(ctx context.Context) error {
	err := s.Open(ctx)
	if err != nil && strings.Contains(err.Error(), "SSL is not enabled on the server") {
		return fmt.Errorf("%w (hint: try adding ?sslmode=disable to your connection string)", err)
	}
	return err
}

// ValidateConnString checks that connStr is a well-formed PostgreSQL URI or
// DSN without an embedded password.
func ValidateConnString(connStr string) error {
	if strings.TrimSpace(connStr) == "" {
		return fmt.Errorf("%w: connection string cannot be empty", ErrInvalidConnectionString)
	}
	if _, err := pq.NewConnector(connStr); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConnectionString, err)
	}

	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		u, err := url.Parse(connStr)
		if err != nil {
			return fmt.Errorf("%w: failed to parse connection URL: %v", ErrInvalidConnectionString, err)
		}
		if _, isSet := u.User.Password(); isSet {
			return ErrEmbeddedCredentials
		}
		if u.Host == "" {
			return fmt.Errorf("%w: connection URL is missing a host", ErrInvalidConnectionString)
		}
		return nil
	}

	for _, pair := range strings.Fields(connStr) {
		k, _, ok := strings.Cut(pair, "=")
		if ok && strings.EqualFold(strings.TrimSpace(k), "password") {
			return ErrEmbeddedCredentials
		}
	}
	return nil
}
