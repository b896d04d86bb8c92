package auth

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julianstephens/streakline/internal/cli"
	"github.com/julianstephens/streakline/internal/config"
	"github.com/julianstephens/streakline/internal/constants"
	"github.com/julianstephens/streakline/internal/errors"
	"github.com/julianstephens/streakline/internal/storage"
	"github.com/julianstephens/streakline/internal/storage/sqlite"
)

type testEnv struct {
	t        *testing.T
	path     string
	sessions *storage.MemorySessions
	prompts  int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		t:        t,
		path:     filepath.Join(t.TempDir(), "cli.db"),
		sessions: &storage.MemorySessions{},
	}
	store := sqlite.NewStore(env.path, []byte("cli-test-secret"), env.sessions)
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	store.Close()
	return env
}

// context returns a fresh command context over the shared database and
// session store, the way separate invocations would see it.
func (e *testEnv) context(out *bytes.Buffer) *cli.Context {
	cfg := &config.Config{Backend: constants.BackendSQLite, DB: e.path, Timezone: "UTC"}
	ctx := cli.NewContext(context.Background(), cfg)
	ctx.Out = out
	ctx.NewProvider = func(*config.Config) (storage.Provider, error) {
		return sqlite.NewStore(e.path, []byte("cli-test-secret"), e.sessions), nil
	}
	ctx.Prompt = func(string) (string, error) {
		e.prompts++
		return "prompted-secret", nil
	}
	e.t.Cleanup(func() { ctx.Close() })
	return ctx
}

type runner interface {
	Run(*cli.Context) error
}

func (e *testEnv) run(cmd runner) (string, error) {
	var out bytes.Buffer
	ctx := e.context(&out)
	err := cmd.Run(ctx)
	ctx.Close()
	return out.String(), err
}

func TestSignupLoginLogoutStatus(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(&StatusCmd{})
	if err != nil || !strings.Contains(out, "Not signed in") {
		t.Fatalf("status before signup = %q, %v", out, err)
	}

	out, err = env.run(&SignupCmd{Email: "Me@Example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	if !strings.Contains(out, "me@example.com") {
		t.Errorf("signup output = %q", out)
	}

	out, err = env.run(&StatusCmd{})
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, "Signed in as me@example.com (sqlite backend)") {
		t.Errorf("status output = %q", out)
	}

	if out, err = env.run(&LogoutCmd{}); err != nil || !strings.Contains(out, "Signed out") {
		t.Fatalf("logout = %q, %v", out, err)
	}
	if out, _ = env.run(&StatusCmd{}); !strings.Contains(out, "Not signed in") {
		t.Errorf("status after logout = %q", out)
	}

	if out, err = env.run(&LoginCmd{Email: "me@example.com", Password: "password123"}); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !strings.Contains(out, "Signed in as me@example.com") {
		t.Errorf("login output = %q", out)
	}
}

func TestLoginPromptsForPassword(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.run(&SignupCmd{Email: "me@example.com", Password: "prompted-secret"}); err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	if _, err := env.run(&LogoutCmd{}); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	if _, err := env.run(&LoginCmd{Email: "me@example.com"}); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if env.prompts != 1 {
		t.Errorf("expected one password prompt, got %d", env.prompts)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.run(&SignupCmd{Email: "me@example.com", Password: "password123"}); err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	env.run(&LogoutCmd{})

	_, err := env.run(&LoginCmd{Email: "me@example.com", Password: "wrong-password"})
	if err != errors.ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginValidatesInput(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(&LoginCmd{Email: "not-an-email", Password: "password123"})
	if !errors.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestLogoutWhenSignedOut(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run(&LogoutCmd{})
	if err != nil || !strings.Contains(out, "Not signed in") {
		t.Errorf("logout = %q, %v", out, err)
	}
}
