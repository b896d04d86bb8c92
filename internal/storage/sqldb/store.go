// Package sqldb is the self-hosted record store and identity provider shared
// by the sqlite and postgres backends.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/julianstephens/streakline/internal/constants"
	"github.com/julianstephens/streakline/internal/migration"
	"github.com/julianstephens/streakline/internal/storage"
	"github.com/julianstephens/streakline/migrations"
)

// Options configures a Store
type Options struct {
	Dialect Dialect
	DSN     string
	// Secret signs session tokens
	Secret   []byte
	Sessions storage.SessionStore
	// HashCost is the bcrypt cost; zero means bcrypt.DefaultCost
	HashCost int
}

type Store struct {
	dialect  Dialect
	dsn      string
	db       *sql.DB
	secret   []byte
	hashCost int
	sessions *storage.SessionManager
	now      func() time.Time
}

func New(opts Options) *Store {
	s := &Store{
		dialect:  opts.Dialect,
		dsn:      opts.DSN,
		secret:   opts.Secret,
		hashCost: opts.HashCost,
		now:      time.Now,
	}
	if s.hashCost == 0 {
		s.hashCost = bcrypt.DefaultCost
	}
	s.sessions = storage.NewSessionManager(opts.Sessions, s.refreshSession)
	return s
}

// SetClock replaces time.Now, for tests
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
	s.sessions.SetClock(now)
}

// Open connects to the database if not already connected
func (s *Store) Open(ctx context.Context) error {
	if s.db != nil {
		return nil
	}
	if len(s.secret) == 0 {
		return fmt.Errorf("%s store: missing session signing secret", s.dialect.Name)
	}

	db, err := sql.Open(s.dialect.Driver, s.dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	s.db = db
	return nil
}

// DB returns the underlying connection, nil before Open
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) Name() string {
	return s.dialect.Name
}

func (s *Store) runner() (*migration.Runner, error) {
	sub, err := fs.Sub(migrations.FS, s.dialect.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to access %s migrations: %w", s.dialect.Name, err)
	}
	return migration.NewRunner(s.db, sub, migration.WithPlaceholder(s.dialect.Placeholder)), nil
}

// Migrate applies pending schema migrations
func (s *Store) Migrate(logFn func(string)) (int, error) {
	r, err := s.runner()
	if err != nil {
		return 0, err
	}
	return r.ApplyMigrations(logFn)
}

// ValidateSchema fails when the schema is missing or too new
func (s *Store) ValidateSchema() error {
	r, err := s.runner()
	if err != nil {
		return err
	}
	return r.ValidateVersion()
}

// MigrationStatus reports the schema version against the embedded migrations
func (s *Store) MigrationStatus() (migration.Status, error) {
	r, err := s.runner()
	if err != nil {
		return migration.Status{}, err
	}
	return r.Status()
}

func (s *Store) q(query string) string {
	return s.dialect.Rebind(query)
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(constants.TimestampFormat)
}
