package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/julianstephens/streakline/internal/constants"
	"github.com/julianstephens/streakline/internal/errors"
	"github.com/julianstephens/streakline/internal/logger"
	"github.com/julianstephens/streakline/internal/models"
	"github.com/julianstephens/streakline/internal/storage"
)

// Remote failures mirror what the hosted auth service reports so callers
// handle every backend the same way.
var (
	errInvalidLogin = &errors.RemoteError{
		Op:      "sign in",
		Status:  http.StatusBadRequest,
		Code:    "invalid_credentials",
		Message: "Invalid login credentials",
	}
	errUserExists = &errors.RemoteError{
		Op:      "sign up",
		Status:  http.StatusUnprocessableEntity,
		Code:    "user_already_exists",
		Message: "User already registered",
	}
	errWeakPassword = &errors.RemoteError{
		Op:      "sign up",
		Status:  http.StatusUnprocessableEntity,
		Code:    "weak_password",
		Message: "Password should be at least 6 characters.",
	}
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Store) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*models.Session, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, &errors.RemoteError{Op: "sign up", Status: http.StatusBadRequest, Code: "validation_failed", Message: "Signup requires a valid email"}
	}
	if len(password) < constants.MinPasswordLength {
		return nil, errWeakPassword
	}

	var exists int
	err := s.db.QueryRowContext(ctx, s.q(`SELECT COUNT(*) FROM users WHERE lower(email) = ?`), email).Scan(&exists)
	if err != nil {
		return nil, errors.NewRemote("sign up", err)
	}
	if exists > 0 {
		return nil, errUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, errors.NewRemote("sign up", err)
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	meta, err := json.Marshal(metadata)
	if err != nil {
		return nil, errors.NewRemote("sign up", err)
	}

	createdAt := s.timestamp()
	user := models.User{ID: uuid.NewString(), Email: email}
	_, err = s.db.ExecContext(ctx,
		s.q(`INSERT INTO users (id, email, password_hash, metadata, created_at) VALUES (?, ?, ?, ?, ?)`),
		user.ID, user.Email, string(hash), string(meta), createdAt)
	if err != nil {
		return nil, errors.NewRemote("sign up", err)
	}
	user.CreatedAt, _ = parseStamp(createdAt)

	logger.Info("Registered user", "user", user.ID)
	return s.startSession(user)
}

func (s *Store) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	var (
		user      models.User
		hash      string
		createdAt timeValue
	)
	err := s.db.QueryRowContext(ctx,
		s.q(`SELECT id, email, password_hash, created_at FROM users WHERE lower(email) = ?`),
		normalizeEmail(email)).Scan(&user.ID, &user.Email, &hash, &createdAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errInvalidLogin
	}
	if err != nil {
		return nil, errors.NewRemote("sign in", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, errInvalidLogin
	}
	user.CreatedAt = createdAt.Time

	return s.startSession(user)
}

func (s *Store) startSession(user models.User) (*models.Session, error) {
	session, err := s.issueSession(user)
	if err != nil {
		return nil, errors.NewRemote("issue session", err)
	}
	if err := s.sessions.Set(session, models.EventSignedIn); err != nil {
		return nil, errors.NewRemote("save session", err)
	}
	return session, nil
}

func (s *Store) SignOut(ctx context.Context) error {
	return s.sessions.Clear()
}

func (s *Store) GetSession(ctx context.Context) (*models.Session, error) {
	return s.sessions.Current(ctx)
}

func (s *Store) GetUser(ctx context.Context) (*models.User, error) {
	session, err := s.sessions.Current(ctx)
	if err != nil || session == nil {
		return nil, err
	}
	claims, err := s.verify(session.AccessToken, tokenAccess)
	if err != nil {
		logger.Debug("Rejected access token", "error", err)
		return nil, nil
	}
	user, err := s.userByID(ctx, claims.Subject)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewRemote("get user", err)
	}
	return &user, nil
}

func (s *Store) OnAuthStateChange(fn storage.Listener) func() {
	return s.sessions.Subscribe(fn)
}

// currentUserID resolves the caller the way a row-level policy would:
// from a valid access token, never from request data.
func (s *Store) currentUserID(ctx context.Context) (string, error) {
	session, err := s.sessions.Current(ctx)
	if err != nil {
		return "", errors.NewRemote("get session", err)
	}
	if session == nil {
		return "", &errors.AuthRequiredError{}
	}
	claims, err := s.verify(session.AccessToken, tokenAccess)
	if err != nil {
		return "", &errors.AuthRequiredError{}
	}
	return claims.Subject, nil
}

func (s *Store) userByID(ctx context.Context, id string) (models.User, error) {
	var (
		user      models.User
		createdAt timeValue
	)
	err := s.db.QueryRowContext(ctx,
		s.q(`SELECT id, email, created_at FROM users WHERE id = ?`), id).
		Scan(&user.ID, &user.Email, &createdAt)
	if err != nil {
		return models.User{}, err
	}
	user.CreatedAt = createdAt.Time
	return user, nil
}
