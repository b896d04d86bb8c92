package constants

// SessionState represents the current state of the TUI application
type SessionState int

const (
	AppName            = "streakline"
	DefaultKeyringUser = "database-connection"
	SessionKeyringUser = "session"
	JWTSecretUser      = "jwt-secret"
	DefaultConfigDir   = "~/.config/streakline"
	DefaultDBPath      = "~/.config/streakline/streakline.db"
	DefaultConfigFile  = "~/.config/streakline/config.yaml"
	Version            = "v0.1.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimestampFormat is a fixed-width UTC layout so stored timestamps sort lexically
	TimestampFormat = "2006-01-02T15:04:05.000000Z"

	// Backends
	BackendSupabase = "supabase"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"

	// Collections exposed by the record store
	HabitsTable      = "habits"
	CompletionsTable = "habit_completions"

	// Auth
	MinPasswordLength    = 6
	AccessTokenTTL       = 60 * 60          // seconds
	SessionTTL           = 7 * 24 * 60 * 60 // seconds, refresh token lifetime
	SessionRefreshLeeway = 30               // seconds

	// Logging
	LogDirName    = "logs"
	LogMaxSizeMB  = 10
	LogMaxBackups = 3
	LogMaxAgeDays = 28
)

// Session States
const (
	StateAuth SessionState = iota
	StateHabits
	StateAddHabit
	StateConfirmDelete
)
