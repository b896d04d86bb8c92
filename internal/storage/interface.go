package storage

import (
	"context"

	"github.com/julianstephens/streakline/internal/models"
)

// Provider is the external record store and identity provider the client
// delegates persistence, authentication and authorization to.
type Provider interface {
	// Lifecycle
	Init(ctx context.Context) error
	Load(ctx context.Context) error
	Close() error

	Auth
	Records

	// Utils
	Name() string
}

// Auth is the session-based identity provider.
type Auth interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*models.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error)
	SignOut(ctx context.Context) error
	// GetSession returns the current session, or nil when signed out.
	GetSession(ctx context.Context) (*models.Session, error)
	// GetUser returns the authenticated user, or nil when signed out.
	GetUser(ctx context.Context) (*models.User, error)
	// OnAuthStateChange subscribes fn to session changes. The returned func
	// unsubscribes.
	OnAuthStateChange(fn Listener) (unsubscribe func())
}

// Records exposes the habits and habit_completions collections, scoped to
// the authenticated user.
type Records interface {
	// ListHabits returns all habits ordered by created_at ascending.
	ListHabits(ctx context.Context) ([]models.Habit, error)
	InsertHabit(ctx context.Context, habit models.NewHabit) (models.Habit, error)
	// DeleteHabit removes the habit and its completions.
	DeleteHabit(ctx context.Context, id string) error

	ListCompletions(ctx context.Context) ([]models.Completion, error)
	// InsertCompletion is idempotent on (habitID, day).
	InsertCompletion(ctx context.Context, habitID, day string) error
	DeleteCompletion(ctx context.Context, habitID, day string) error
}
