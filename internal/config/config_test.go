package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"supabase ok", Config{Backend: "supabase", SupabaseURL: "https://x.supabase.co", SupabaseAnonKey: "k", Timezone: "Local"}, ""},
		{"supabase missing", Config{Backend: "supabase", Timezone: "Local"}, "SUPABASE_URL and SUPABASE_ANON_KEY"},
		{"supabase missing key", Config{Backend: "supabase", SupabaseURL: "https://x", Timezone: "UTC"}, "SUPABASE_ANON_KEY"},
		{"sqlite ok", Config{Backend: "sqlite", DB: "/tmp/x.db", Timezone: "UTC"}, ""},
		{"sqlite missing path", Config{Backend: "sqlite", Timezone: "UTC"}, "--db"},
		{"postgres defers to keyring", Config{Backend: "postgres", Timezone: "UTC"}, ""},
		{"bad timezone", Config{Backend: "sqlite", DB: "x", Timezone: "Mars/Olympus"}, "invalid timezone"},
		{"unknown backend", Config{Backend: "redis", Timezone: "UTC"}, "unknown backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLocation(t *testing.T) {
	cfg := Config{Timezone: "UTC"}
	loc, err := cfg.Location()
	if err != nil || loc.String() != "UTC" {
		t.Errorf("Location() = %v, %v", loc, err)
	}
}

type cli struct {
	Config
	Run struct{} `cmd:"" default:"1"`
}

func parse(t *testing.T, yamlContent string, args ...string) *cli {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yamlContent), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var c cli
	parser, err := kong.New(&c, kong.Configuration(YAML, path), kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	if err != nil {
		t.Fatalf("kong.New failed: %v", err)
	}
	if _, err := parser.Parse(args); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return &c
}

func TestYAMLResolver(t *testing.T) {
	for _, env := range []string{"STREAKLINE_BACKEND", "SUPABASE_URL", "VITE_SUPABASE_URL", "STREAKLINE_TIMEZONE", "SUPABASE_ANON_KEY", "VITE_SUPABASE_ANON_KEY"} {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}

	c := parse(t, `
backend: sqlite
timezone: Europe/Berlin
supabase:
  url: https://nested.supabase.co
supabase_anon_key: flat-key
`)
	if c.Backend != "sqlite" {
		t.Errorf("expected backend from file, got %q", c.Backend)
	}
	if c.Timezone != "Europe/Berlin" {
		t.Errorf("expected timezone from file, got %q", c.Timezone)
	}
	if c.SupabaseURL != "https://nested.supabase.co" {
		t.Errorf("expected nested url, got %q", c.SupabaseURL)
	}
	if c.SupabaseAnonKey != "flat-key" {
		t.Errorf("expected flat key, got %q", c.SupabaseAnonKey)
	}

	// flags win over the file
	c = parse(t, "backend: sqlite\n", "--backend", "postgres")
	if c.Backend != "postgres" {
		t.Errorf("expected flag to override file, got %q", c.Backend)
	}

	// an empty file is fine; supabase still needs its URL and key
	c = parse(t, "", "--supabase-url", "https://flag.supabase.co", "--supabase-anon-key", "flag-key")
	if c.Backend != "supabase" {
		t.Errorf("expected default backend, got %q", c.Backend)
	}
	if c.LogLevel != "info" {
		t.Errorf("expected default log level, got %q", c.LogLevel)
	}
}

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("STREAKLINE_TEST_DOTENV=from-file\nSTREAKLINE_TEST_KEEP=from-file\n"), 0600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("STREAKLINE_TEST_KEEP", "from-env")
	t.Setenv("STREAKLINE_TEST_DOTENV", "")
	os.Unsetenv("STREAKLINE_TEST_DOTENV")

	if err := LoadDotenv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("LoadDotenv failed: %v", err)
	}
	if got := os.Getenv("STREAKLINE_TEST_DOTENV"); got != "from-file" {
		t.Errorf("expected value from .env, got %q", got)
	}
	if got := os.Getenv("STREAKLINE_TEST_KEEP"); got != "from-env" {
		t.Errorf("existing env must not be overridden, got %q", got)
	}
}
