// Package app owns the application state shared by the CLI and the TUI: the
// storage provider, the current session and the habit store.
package app

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"time"

	"github.com/julianstephens/streakline/internal/errors"
	"github.com/julianstephens/streakline/internal/habitstore"
	"github.com/julianstephens/streakline/internal/logger"
	"github.com/julianstephens/streakline/internal/models"
	"github.com/julianstephens/streakline/internal/storage"
	"github.com/julianstephens/streakline/internal/validation"
)

// invalidLoginMessage is what the auth provider reports for a bad email or
// password.
const invalidLoginMessage = "Invalid login credentials"

type Options struct {
	Location *time.Location
	Clock    func() time.Time
}

type App struct {
	provider storage.Provider
	habits   *habitstore.Store

	mu          sync.Mutex
	session     *models.Session
	lastErr     error
	unsubscribe func()
}

func New(provider storage.Provider, opts Options) *App {
	var storeOpts []habitstore.Option
	if opts.Location != nil {
		storeOpts = append(storeOpts, habitstore.WithLocation(opts.Location))
	}
	if opts.Clock != nil {
		storeOpts = append(storeOpts, habitstore.WithClock(opts.Clock))
	}
	return &App{
		provider: provider,
		habits:   habitstore.New(provider, provider, storeOpts...),
	}
}

// Start subscribes to session changes and restores any persisted session.
// The restored session arrives as an INITIAL_SESSION event, which loads the
// habit list.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.unsubscribe == nil {
		a.unsubscribe = a.provider.OnAuthStateChange(func(event models.AuthEvent, session *models.Session) {
			a.handleAuthEvent(ctx, event, session)
		})
	}
	a.mu.Unlock()

	session, err := a.provider.GetSession(ctx)
	if err != nil {
		return errors.NewRemote("get session", err)
	}
	a.setSession(session)

	// the provider only announces the first restore
	if session != nil && !a.habits.Loaded() && a.LastError() == nil {
		if err := a.habits.Refresh(ctx); err != nil {
			a.mu.Lock()
			a.lastErr = err
			a.mu.Unlock()
		}
	}
	return nil
}

func (a *App) handleAuthEvent(ctx context.Context, event models.AuthEvent, session *models.Session) {
	logger.Debug("Auth state changed", "event", event, "signed_in", session != nil)
	a.setSession(session)

	if session == nil {
		a.habits.Reset()
		return
	}
	if err := a.habits.Refresh(ctx); err != nil {
		a.mu.Lock()
		a.lastErr = err
		a.mu.Unlock()
		return
	}
	a.mu.Lock()
	a.lastErr = nil
	a.mu.Unlock()
}

func (a *App) setSession(session *models.Session) {
	a.mu.Lock()
	a.session = session
	a.mu.Unlock()
}

// LastError returns the error from the most recent event-driven refresh
func (a *App) LastError() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// Close unsubscribes from session changes and releases the provider
func (a *App) Close() error {
	a.mu.Lock()
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
	a.mu.Unlock()
	return a.provider.Close()
}

// Session returns the current session, nil when signed out
func (a *App) Session() *models.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return nil
	}
	s := *a.session
	return &s
}

// SignedIn reports whether a session is active
func (a *App) SignedIn() bool {
	return a.Session() != nil
}

func (a *App) Habits() *habitstore.Store {
	return a.habits
}

func (a *App) Provider() storage.Provider {
	return a.provider
}

// SignIn validates the credentials locally before calling the provider.
func (a *App) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	if err := validation.ValidateCredentials(email, password); err != nil {
		return nil, err
	}
	email = strings.TrimSpace(email)

	session, err := a.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		logger.Error("Error signing in", "email", email, "error", err)
		return nil, mapAuthError("sign in", err)
	}
	logger.Info("Signed in", "email", email)
	return session, nil
}

// SignUp registers the user as already confirmed and signs them in.
func (a *App) SignUp(ctx context.Context, email, password string) (*models.Session, error) {
	if err := validation.ValidateCredentials(email, password); err != nil {
		return nil, err
	}
	email = strings.TrimSpace(email)

	metadata := map[string]any{"email_confirmed_at": time.Now().UTC().Format(time.RFC3339)}
	if _, err := a.provider.SignUp(ctx, email, password, metadata); err != nil {
		logger.Error("Error signing up", "email", email, "error", err)
		return nil, errors.NewRemote("sign up", err)
	}
	logger.Info("Signed up", "email", email)

	return a.SignIn(ctx, email, password)
}

func (a *App) SignOut(ctx context.Context) error {
	if err := a.provider.SignOut(ctx); err != nil {
		logger.Error("Error signing out", "error", err)
		return errors.NewRemote("sign out", err)
	}
	logger.Info("Signed out")
	return nil
}

func mapAuthError(op string, err error) error {
	var remote *errors.RemoteError
	if stderrors.As(err, &remote) && (remote.Message == invalidLoginMessage || remote.Code == "invalid_credentials") {
		return errors.ErrInvalidCredentials
	}
	return errors.NewRemote(op, err)
}
