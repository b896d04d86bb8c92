package supabase

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/julianstephens/streakline/internal/errors"
	"github.com/julianstephens/streakline/internal/models"
	"github.com/julianstephens/streakline/internal/storage"
)

const testKey = "anon-key"

// fakeSupabase implements just enough of GoTrue and PostgREST for the client.
type fakeSupabase struct {
	t *testing.T

	mu          sync.Mutex
	tokens      int
	valid       map[string]bool
	habits      []map[string]any
	completions []completionRow
	requests    []*http.Request
	refreshes   int
	expiresIn   int64
}

func newFakeSupabase(t *testing.T) (*fakeSupabase, *httptest.Server) {
	f := &fakeSupabase{t: t, valid: map[string]bool{}, expiresIn: 3600}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeSupabase) issue(w http.ResponseWriter) {
	f.tokens++
	claims := accessClaims{
		Email: "me@example.com",
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			ID:        fmt.Sprint(f.tokens),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-secret"))
	if err != nil {
		f.t.Fatalf("sign: %v", err)
	}
	f.valid[token] = true
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  token,
		"token_type":    "bearer",
		"expires_in":    f.expiresIn,
		"refresh_token": fmt.Sprintf("refresh-%d", f.tokens),
		"user":          map[string]any{"id": "user-1", "email": "me@example.com", "created_at": "2024-01-01T00:00:00Z"},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeSupabase) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r)

	if r.Header.Get("apikey") != testKey {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid API key"})
		return
	}

	var body any
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	switch {
	case r.URL.Path == "/auth/v1/health":
		writeJSON(w, http.StatusOK, map[string]any{"name": "GoTrue"})
	case r.URL.Path == "/auth/v1/signup":
		f.issue(w)
	case r.URL.Path == "/auth/v1/token":
		fields, _ := body.(map[string]any)
		switch r.URL.Query().Get("grant_type") {
		case "password":
			if fields["password"] != "password123" {
				writeJSON(w, http.StatusBadRequest, map[string]any{
					"code": 400, "error_code": "invalid_credentials", "msg": "Invalid login credentials",
				})
				return
			}
			f.issue(w)
		case "refresh_token":
			f.refreshes++
			f.issue(w)
		default:
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "unsupported_grant_type", "error_description": "bad grant"})
		}
	case r.URL.Path == "/auth/v1/logout":
		w.WriteHeader(http.StatusNoContent)
	case r.URL.Path == "/auth/v1/user":
		if !f.authorized(w, r) {
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": "user-1", "email": "me@example.com", "created_at": "2024-01-01T00:00:00Z"})
	case strings.HasPrefix(r.URL.Path, "/rest/v1/"):
		if !f.authorized(w, r) {
			return
		}
		f.serveRest(w, r, body)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeSupabase) authorized(w http.ResponseWriter, r *http.Request) bool {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !f.valid[token] {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"code": "PGRST301", "message": "JWT expired", "details": nil, "hint": nil})
		return false
	}
	return true
}

func (f *fakeSupabase) serveRest(w http.ResponseWriter, r *http.Request, body any) {
	q := r.URL.Query()
	switch r.URL.Path + " " + r.Method {
	case "/rest/v1/habits GET":
		writeJSON(w, http.StatusOK, f.habits)
	case "/rest/v1/habits POST":
		rows, _ := body.([]any)
		row, _ := rows[0].(map[string]any)
		if strings.TrimSpace(row["name"].(string)) == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"code": "23514", "message": "new row violates check constraint", "details": nil, "hint": nil})
			return
		}
		row["id"] = fmt.Sprintf("habit-%d", len(f.habits)+1)
		row["created_at"] = "2024-03-10T12:00:00.123456+00:00"
		f.habits = append(f.habits, row)
		writeJSON(w, http.StatusCreated, []any{row})
	case "/rest/v1/habits DELETE":
		id := strings.TrimPrefix(q.Get("id"), "eq.")
		kept := f.habits[:0]
		for _, h := range f.habits {
			if h["id"] != id {
				kept = append(kept, h)
			}
		}
		f.habits = kept
		w.WriteHeader(http.StatusNoContent)
	case "/rest/v1/habit_completions GET":
		writeJSON(w, http.StatusOK, f.completions)
	case "/rest/v1/habit_completions POST":
		rows, _ := body.([]any)
		row, _ := rows[0].(map[string]any)
		c := completionRow{HabitID: row["habit_id"].(string), CompletedAt: row["completed_at"].(string)}
		for _, existing := range f.completions {
			if existing == c {
				w.WriteHeader(http.StatusCreated)
				return
			}
		}
		f.completions = append(f.completions, c)
		w.WriteHeader(http.StatusCreated)
	case "/rest/v1/habit_completions DELETE":
		habitID := strings.TrimPrefix(q.Get("habit_id"), "eq.")
		day := strings.TrimPrefix(q.Get("completed_at"), "eq.")
		kept := f.completions[:0]
		for _, c := range f.completions {
			if c.HabitID != habitID || c.CompletedAt != day {
				kept = append(kept, c)
			}
		}
		f.completions = kept
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeSupabase) lastRequest() *http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestClient(t *testing.T, srv *httptest.Server, sessions storage.SessionStore) *Client {
	t.Helper()
	c, err := New(Options{URL: srv.URL + "/", AnonKey: testKey, Sessions: sessions, HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestNewValidatesOptions(t *testing.T) {
	if _, err := New(Options{URL: "", AnonKey: "k"}); err == nil {
		t.Error("expected error for missing URL")
	}
	if _, err := New(Options{URL: "https://x.supabase.co", AnonKey: ""}); err == nil {
		t.Error("expected error for missing key")
	}
	if _, err := New(Options{URL: "not a url", AnonKey: "k"}); err == nil {
		t.Error("expected error for invalid URL")
	}
}

func TestHealth(t *testing.T) {
	_, srv := newFakeSupabase(t)
	c := newTestClient(t, srv, nil)
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if c.Name() != "supabase" {
		t.Errorf("unexpected name %s", c.Name())
	}
}

func TestSignInErrors(t *testing.T) {
	_, srv := newFakeSupabase(t)
	c := newTestClient(t, srv, nil)

	_, err := c.SignInWithPassword(context.Background(), "me@example.com", "wrong")
	var remote *errors.RemoteError
	if !stderrors.As(err, &remote) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if remote.Message != "Invalid login credentials" || remote.Code != "invalid_credentials" || remote.Status != http.StatusBadRequest {
		t.Errorf("unexpected remote error: %+v", remote)
	}
}

func TestParseErrorShapes(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantMsg  string
		wantCode string
	}{
		{"postgrest", `{"code":"23505","message":"duplicate key value","details":null,"hint":null}`, "duplicate key value", "23505"},
		{"gotrue legacy", `{"error":"invalid_grant","error_description":"Invalid Refresh Token"}`, "Invalid Refresh Token", "invalid_grant"},
		{"gotrue", `{"code":422,"error_code":"user_already_exists","msg":"User already registered"}`, "User already registered", "user_already_exists"},
		{"empty", ``, "Internal Server Error", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parseError("op", http.StatusInternalServerError, []byte(tt.body))
			var remote *errors.RemoteError
			if !stderrors.As(err, &remote) {
				t.Fatalf("expected RemoteError, got %T", err)
			}
			if remote.Message != tt.wantMsg || remote.Code != tt.wantCode {
				t.Errorf("got message %q code %q", remote.Message, remote.Code)
			}
		})
	}
}

func TestAuthFlow(t *testing.T) {
	fake, srv := newFakeSupabase(t)
	sessions := &storage.MemorySessions{}
	c := newTestClient(t, srv, sessions)
	ctx := context.Background()

	var events []models.AuthEvent
	c.OnAuthStateChange(func(e models.AuthEvent, _ *models.Session) { events = append(events, e) })

	session, err := c.SignUp(ctx, "me@example.com", "password123", map[string]any{"email_confirmed_at": "now"})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if session == nil || session.User.ID != "user-1" {
		t.Fatalf("unexpected session: %+v", session)
	}
	if session.ExpiresAt.IsZero() {
		t.Error("expected expiry to be set")
	}

	user, err := c.GetUser(ctx)
	if err != nil || user == nil || user.Email != "me@example.com" {
		t.Fatalf("GetUser = %+v, %v", user, err)
	}
	if got := fake.lastRequest().Header.Get("Authorization"); got != "Bearer "+session.AccessToken {
		t.Errorf("expected bearer token, got %q", got)
	}

	if err := c.SignOut(ctx); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}
	if stored, _ := sessions.LoadSession(); stored != nil {
		t.Error("expected stored session to be removed")
	}
	if user, err := c.GetUser(ctx); user != nil || err != nil {
		t.Errorf("expected no user after sign-out, got %+v, %v", user, err)
	}
	if _, err := c.ListHabits(ctx); !errors.IsAuthRequired(err) {
		t.Errorf("expected AuthRequiredError after sign-out, got %v", err)
	}

	if len(events) != 2 || events[0] != models.EventSignedIn || events[1] != models.EventSignedOut {
		t.Errorf("unexpected events %v", events)
	}
}

func TestRecords(t *testing.T) {
	fake, srv := newFakeSupabase(t)
	c := newTestClient(t, srv, nil)
	ctx := context.Background()

	session, err := c.SignInWithPassword(ctx, "me@example.com", "password123")
	if err != nil {
		t.Fatalf("SignInWithPassword failed: %v", err)
	}

	habit, err := c.InsertHabit(ctx, models.NewHabit{Name: "Read", Frequency: models.FrequencyDaily, UserID: session.User.ID})
	if err != nil {
		t.Fatalf("InsertHabit failed: %v", err)
	}
	if habit.ID != "habit-1" || habit.Frequency != models.FrequencyDaily || habit.CreatedAt.IsZero() {
		t.Errorf("unexpected habit: %+v", habit)
	}
	if got := fake.lastRequest().Header.Get("Prefer"); got != "return=representation" {
		t.Errorf("unexpected Prefer header %q", got)
	}

	if _, err := c.InsertHabit(ctx, models.NewHabit{Name: " ", Frequency: models.FrequencyDaily, UserID: session.User.ID}); err == nil {
		t.Error("expected remote check-constraint error")
	} else if err.Error() != "new row violates check constraint" {
		t.Errorf("expected remote message verbatim, got %q", err.Error())
	}

	habits, err := c.ListHabits(ctx)
	if err != nil {
		t.Fatalf("ListHabits failed: %v", err)
	}
	if len(habits) != 1 {
		t.Fatalf("expected 1 habit, got %d", len(habits))
	}
	req := fake.lastRequest()
	if req.URL.Query().Get("order") != "created_at.asc" || req.URL.Query().Get("select") != "*" {
		t.Errorf("unexpected list query %s", req.URL.RawQuery)
	}

	for i := 0; i < 2; i++ {
		if err := c.InsertCompletion(ctx, habit.ID, "2024-03-10"); err != nil {
			t.Fatalf("InsertCompletion failed: %v", err)
		}
	}
	req = fake.lastRequest()
	if req.URL.Query().Get("on_conflict") != "habit_id,completed_at" {
		t.Errorf("expected upsert conflict target, got %s", req.URL.RawQuery)
	}
	if !strings.Contains(req.Header.Get("Prefer"), "resolution=ignore-duplicates") {
		t.Errorf("expected ignore-duplicates, got %q", req.Header.Get("Prefer"))
	}

	fake.mu.Lock()
	fake.completions = append(fake.completions,
		completionRow{HabitID: habit.ID, CompletedAt: "2024-03-09T00:00:00+00:00"},
		completionRow{HabitID: habit.ID, CompletedAt: "garbage"})
	fake.mu.Unlock()

	completions, err := c.ListCompletions(ctx)
	if err != nil {
		t.Fatalf("ListCompletions failed: %v", err)
	}
	if len(completions) != 2 {
		t.Fatalf("expected 2 readable completions, got %d", len(completions))
	}

	if err := c.DeleteCompletion(ctx, habit.ID, "2024-03-10"); err != nil {
		t.Fatalf("DeleteCompletion failed: %v", err)
	}
	req = fake.lastRequest()
	if req.URL.Query().Get("habit_id") != "eq."+habit.ID || req.URL.Query().Get("completed_at") != "eq.2024-03-10" {
		t.Errorf("unexpected delete filter %s", req.URL.RawQuery)
	}

	if err := c.DeleteHabit(ctx, habit.ID); err != nil {
		t.Fatalf("DeleteHabit failed: %v", err)
	}
	habits, _ = c.ListHabits(ctx)
	if len(habits) != 0 {
		t.Errorf("expected no habits after delete, got %d", len(habits))
	}
}

func TestExpiredSessionIsRefreshed(t *testing.T) {
	fake, srv := newFakeSupabase(t)
	c := newTestClient(t, srv, nil)
	ctx := context.Background()

	if _, err := c.SignInWithPassword(ctx, "me@example.com", "password123"); err != nil {
		t.Fatalf("SignInWithPassword failed: %v", err)
	}

	c.SetClock(func() time.Time { return time.Now().Add(2 * time.Hour) })
	if _, err := c.ListHabits(ctx); err != nil {
		t.Fatalf("ListHabits after expiry failed: %v", err)
	}
	fake.mu.Lock()
	refreshes := fake.refreshes
	fake.mu.Unlock()
	if refreshes != 1 {
		t.Errorf("expected one refresh, got %d", refreshes)
	}
}
