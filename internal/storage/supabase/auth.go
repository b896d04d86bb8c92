package supabase

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/julianstephens/streakline/internal/errors"
	"github.com/julianstephens/streakline/internal/logger"
	"github.com/julianstephens/streakline/internal/models"
	"github.com/julianstephens/streakline/internal/storage"
)

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func (u userResponse) model() models.User {
	return models.User{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}

// tokenResponse is returned by /token and, when email confirmation is off,
// by /signup. Without confirmation only the user fields are set.
type tokenResponse struct {
	AccessToken  string        `json:"access_token"`
	TokenType    string        `json:"token_type"`
	ExpiresIn    int64         `json:"expires_in"`
	ExpiresAt    int64         `json:"expires_at"`
	RefreshToken string        `json:"refresh_token"`
	User         *userResponse `json:"user"`

	userResponse
}

func (c *Client) toSession(t tokenResponse) *models.Session {
	if t.AccessToken == "" {
		return nil
	}
	user := t.userResponse
	if t.User != nil {
		user = *t.User
	}
	if user.ID == "" {
		if claims, err := parseAccessToken(t.AccessToken); err == nil {
			user.ID = claims.Subject
			user.Email = claims.Email
		}
	}
	return &models.Session{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    tokenExpiry(t.AccessToken, t.ExpiresAt, t.ExpiresIn, c.now()),
		User:         user.model(),
	}
}

func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*models.Session, error) {
	body := map[string]any{"email": email, "password": password}
	if len(metadata) > 0 {
		body["data"] = metadata
	}

	var resp tokenResponse
	err := c.do(ctx, c.auth, request{
		op:     "sign up",
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		body:   body,
	}, &resp)
	if err != nil {
		return nil, err
	}

	session := c.toSession(resp)
	if session == nil {
		// confirmation pending; the caller signs in separately
		logger.Info("Signed up, awaiting confirmation", "email", email)
		return nil, nil
	}
	if err := c.sessions.Set(session, models.EventSignedIn); err != nil {
		return nil, errors.NewRemote("save session", err)
	}
	return session, nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	session, err := c.token(ctx, "sign in", "password", map[string]any{"email": email, "password": password})
	if err != nil {
		return nil, err
	}
	if err := c.sessions.Set(session, models.EventSignedIn); err != nil {
		return nil, errors.NewRemote("save session", err)
	}
	return session, nil
}

func (c *Client) refreshSession(ctx context.Context, expired *models.Session) (*models.Session, error) {
	return c.token(ctx, "refresh session", "refresh_token", map[string]any{"refresh_token": expired.RefreshToken})
}

func (c *Client) token(ctx context.Context, op, grant string, body map[string]any) (*models.Session, error) {
	var resp tokenResponse
	err := c.do(ctx, c.auth, request{
		op:     op,
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {grant}},
		body:   body,
	}, &resp)
	if err != nil {
		return nil, err
	}
	session := c.toSession(resp)
	if session == nil {
		return nil, &errors.RemoteError{Op: op, Status: http.StatusBadGateway, Message: "auth response did not include a session"}
	}
	return session, nil
}

// SignOut revokes the session remotely when possible and always clears it
// locally.
func (c *Client) SignOut(ctx context.Context) error {
	session, _ := c.sessions.Current(ctx)
	if session != nil {
		err := c.do(ctx, c.auth, request{
			op:     "sign out",
			method: http.MethodPost,
			path:   "/auth/v1/logout",
			header: http.Header{"Authorization": {"Bearer " + session.AccessToken}},
		}, nil)
		if err != nil {
			logger.Warn("Remote sign-out failed", "error", err)
		}
	}
	return c.sessions.Clear()
}

func (c *Client) GetSession(ctx context.Context) (*models.Session, error) {
	return c.sessions.Current(ctx)
}

func (c *Client) GetUser(ctx context.Context) (*models.User, error) {
	session, err := c.sessions.Current(ctx)
	if err != nil || session == nil {
		return nil, err
	}

	var resp userResponse
	err = c.do(ctx, c.rest, request{op: "get user", method: http.MethodGet, path: "/auth/v1/user"}, &resp)
	if err != nil {
		if errors.IsAuthRequired(err) {
			return nil, nil
		}
		return nil, err
	}
	user := resp.model()
	return &user, nil
}

func (c *Client) OnAuthStateChange(fn storage.Listener) func() {
	return c.sessions.Subscribe(fn)
}
