// Package config holds the global settings shared by every command. Flags
// win over the YAML config file, which wins over environment variables
// (a .env file only fills variables that are not already set).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/julianstephens/streakline/internal/constants"
	"github.com/julianstephens/streakline/internal/utils"
)

// Config is embedded into the kong CLI struct, so its fields are global flags.
type Config struct {
	Backend         string `help:"Storage backend (${enum})." enum:"supabase,sqlite,postgres" default:"supabase" env:"STREAKLINE_BACKEND"`
	SupabaseURL     string `name:"supabase-url" help:"Supabase project URL." env:"SUPABASE_URL,VITE_SUPABASE_URL"`
	SupabaseAnonKey string `name:"supabase-anon-key" help:"Supabase anon (public) key." env:"SUPABASE_ANON_KEY,VITE_SUPABASE_ANON_KEY"`
	DB              string `name:"db" help:"SQLite database path." type:"path" default:"~/.config/streakline/streakline.db" env:"STREAKLINE_DB"`
	DatabaseURL     string `name:"database-url" help:"PostgreSQL connection string without a password. Falls back to the OS keyring." env:"STREAKLINE_DATABASE_URL"`
	Timezone        string `help:"IANA timezone used to decide what today is." default:"Local" env:"STREAKLINE_TIMEZONE"`
	ConfigDir       string `name:"config-dir" help:"Directory for logs and local state." type:"path" default:"~/.config/streakline" env:"STREAKLINE_CONFIG_DIR"`
	NoKeyring       bool   `name:"no-keyring" help:"Keep the session in memory instead of the OS keyring." env:"STREAKLINE_NO_KEYRING"`
	Debug           bool   `help:"Enable debug logging to stderr." env:"STREAKLINE_DEBUG"`
	LogLevel        string `name:"log-level" help:"Log file level (${enum})." enum:"debug,info,warn,error" default:"info" env:"STREAKLINE_LOG_LEVEL"`
}

// Validate checks the settings the selected backend needs
func (c *Config) Validate() error {
	if !utils.ValidateTimezone(c.Timezone) {
		return fmt.Errorf("invalid timezone %q", c.Timezone)
	}

	switch c.Backend {
	case constants.BackendSupabase:
		var missing []string
		if strings.TrimSpace(c.SupabaseURL) == "" {
			missing = append(missing, "SUPABASE_URL")
		}
		if strings.TrimSpace(c.SupabaseAnonKey) == "" {
			missing = append(missing, "SUPABASE_ANON_KEY")
		}
		if len(missing) > 0 {
			return fmt.Errorf("supabase backend requires %s (flag, environment, .env or config file)", strings.Join(missing, " and "))
		}
	case constants.BackendSQLite:
		if strings.TrimSpace(c.DB) == "" {
			return errors.New("sqlite backend requires --db")
		}
	case constants.BackendPostgres:
		// the connection string may come from the keyring at open time
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	return nil
}

// Location resolves the configured timezone
func (c *Config) Location() (*time.Location, error) {
	return utils.LoadLocation(c.Timezone)
}

// LoadDotenv loads variables from the given .env files into the process
// environment without overriding existing values. Missing files are ignored.
func LoadDotenv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// DefaultConfigFiles are the YAML files consulted for flag defaults
func DefaultConfigFiles() []string {
	return []string{constants.DefaultConfigFile, ".streakline.yaml"}
}
