// Package supabase talks to a hosted Supabase project: PostgREST for the
// habits and habit_completions tables and GoTrue for authentication.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/julianstephens/streakline/internal/constants"
	"github.com/julianstephens/streakline/internal/errors"
	"github.com/julianstephens/streakline/internal/logger"
	"github.com/julianstephens/streakline/internal/storage"
)

const defaultTimeout = 15 * time.Second

type Options struct {
	URL      string
	AnonKey  string
	Sessions storage.SessionStore
	// HTTPClient supplies the base transport; nil uses http.DefaultTransport
	HTTPClient *http.Client
}

type Client struct {
	baseURL  *url.URL
	anonKey  string
	sessions *storage.SessionManager
	now      func() time.Time

	// auth calls the GoTrue endpoints with the project key only
	auth *http.Client
	// rest adds the session's bearer token
	rest *http.Client
}

var _ storage.Provider = (*Client)(nil)

func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.URL) == "" || strings.TrimSpace(opts.AnonKey) == "" {
		return nil, fmt.Errorf("supabase URL and anon key are required")
	}
	u, err := url.Parse(strings.TrimRight(opts.URL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid supabase URL %q", opts.URL)
	}

	base := http.DefaultTransport
	timeout := defaultTimeout
	if opts.HTTPClient != nil {
		if opts.HTTPClient.Transport != nil {
			base = opts.HTTPClient.Transport
		}
		if opts.HTTPClient.Timeout > 0 {
			timeout = opts.HTTPClient.Timeout
		}
	}

	c := &Client{
		baseURL: u,
		anonKey: opts.AnonKey,
		now:     time.Now,
	}
	c.sessions = storage.NewSessionManager(opts.Sessions, c.refreshSession)

	keyed := &apiKeyTransport{key: opts.AnonKey, base: base}
	c.auth = &http.Client{Transport: keyed, Timeout: timeout}
	c.rest = &http.Client{
		Transport: &oauth2.Transport{Source: &sessionTokenSource{sessions: c.sessions}, Base: keyed},
		Timeout:   timeout,
	}
	return c, nil
}

// SetClock replaces time.Now, for tests
func (c *Client) SetClock(now func() time.Time) {
	c.now = now
	c.sessions.SetClock(now)
}

// Init has nothing to create: the schema lives in the hosted project.
func (c *Client) Init(ctx context.Context) error {
	return c.Health(ctx)
}

func (c *Client) Load(ctx context.Context) error {
	return nil
}

func (c *Client) Close() error {
	c.auth.CloseIdleConnections()
	c.rest.CloseIdleConnections()
	return nil
}

func (c *Client) Name() string {
	return constants.BackendSupabase
}

// Health checks that the auth service is reachable with the configured key
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, c.auth, request{op: "health check", method: http.MethodGet, path: "/auth/v1/health"}, nil)
}

type request struct {
	op     string
	method string
	path   string
	query  url.Values
	body   any
	header http.Header
}

func (c *Client) do(ctx context.Context, client *http.Client, r request, out any) error {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + r.path
	if r.query != nil {
		u.RawQuery = r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return errors.NewRemote(r.op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return errors.NewRemote(r.op, err)
	}
	for k, vs := range r.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger.Debug("Supabase request", "op", r.op, "method", r.method, "path", r.path)
	resp, err := client.Do(req)
	if err != nil {
		// token source failures surface wrapped in *url.Error
		var authErr *errors.AuthRequiredError
		if stderrors.As(err, &authErr) {
			return authErr
		}
		return errors.NewRemote(r.op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewRemote(r.op, err)
	}
	if resp.StatusCode >= 300 {
		return parseError(r.op, resp.StatusCode, data)
	}
	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return errors.NewRemote(r.op, fmt.Errorf("decode response: %w", err))
		}
	}
	return nil
}

// parseError reads the error shapes returned by PostgREST
// ({code, message, details, hint}) and GoTrue ({error, error_description} or
// {code, error_code, msg}).
func parseError(op string, status int, body []byte) error {
	remote := &errors.RemoteError{Op: op, Status: status}

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err == nil {
		remote.Message = firstString(fields, "msg", "message", "error_description", "error")
		remote.Code = firstString(fields, "error_code", "code", "error")
	}
	if remote.Message == "" {
		remote.Message = http.StatusText(status)
	}
	logger.Debug("Supabase error", "op", op, "status", status, "code", remote.Code, "message", remote.Message)
	return remote
}

func firstString(fields map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := fields[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
