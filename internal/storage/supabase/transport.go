package supabase

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/julianstephens/streakline/internal/errors"
	"github.com/julianstephens/streakline/internal/storage"
)

// apiKeyTransport adds the project key every Supabase endpoint requires.
type apiKeyTransport struct {
	key  string
	base http.RoundTripper
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("apikey", t.key)
	if r.Header.Get("Accept") == "" {
		r.Header.Set("Accept", "application/json")
	}
	return t.base.RoundTrip(r)
}

// sessionTokenSource hands the current access token to oauth2.Transport.
// It is deliberately not cached so sign-out takes effect immediately.
type sessionTokenSource struct {
	sessions *storage.SessionManager
}

func (s *sessionTokenSource) Token() (*oauth2.Token, error) {
	session, err := s.sessions.Current(context.Background())
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, &errors.AuthRequiredError{}
	}
	return &oauth2.Token{
		AccessToken: session.AccessToken,
		TokenType:   "Bearer",
		Expiry:      session.ExpiresAt,
	}, nil
}
