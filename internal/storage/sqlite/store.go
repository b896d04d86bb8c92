package sqlite

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/streakline/internal/logger"
	"github.com/julianstephens/streakline/internal/storage"
	"github.com/julianstephens/streakline/internal/storage/sqldb"
)

// Store is the single-file backend. It keeps the same users, habits and
// habit_completions collections as the hosted store.
type Store struct {
	*sqldb.Store
	path string
}

var _ storage.Provider = (*Store)(nil)

func NewStore(path string, secret []byte, sessions storage.SessionStore) *Store {
	return &Store{
		Store: sqldb.New(sqldb.Options{
			Dialect:  sqldb.SQLite,
			DSN:      dsn(path),
			Secret:   secret,
			Sessions: sessions,
		}),
		path: path,
	}
}

func dsn(path string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	return "file:" + path + "?" + q.Encode()
}

// Init creates the database file and applies migrations
func (s *Store) Init(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := s.Open(ctx); err != nil {
		return err
	}
	if _, err := s.Migrate(func(msg string) { logger.Info(msg) }); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Load opens an initialized database and checks its schema version
func (s *Store) Load(ctx context.Context) error {
	if s.DB() != nil {
		return nil
	}
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run 'streakline init' first")
	}
	if err := s.Open(ctx); err != nil {
		return err
	}
	return s.ValidateSchema()
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}
