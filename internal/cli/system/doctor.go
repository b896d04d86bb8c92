package system

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/streakline/internal/backup"
	"github.com/julianstephens/streakline/internal/cli"
	"github.com/julianstephens/streakline/internal/constants"
	"github.com/julianstephens/streakline/internal/keyring"
	"github.com/julianstephens/streakline/internal/migration"
)

// schemaStatus is implemented by the SQL backends
type schemaStatus interface {
	MigrationStatus() (migration.Status, error)
}

// healthChecker is implemented by the hosted backend
type healthChecker interface {
	Health(ctx context.Context) error
}

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	hasError := false
	fail := func(name string, err error) {
		ctx.Printf("❌ %s: FAIL\n", name)
		ctx.Printf("   Error: %v\n", err)
		hasError = true
	}

	// Check 1: configuration
	configOK := true
	if err := ctx.Config.Validate(); err != nil {
		fail("Configuration", err)
		configOK = false
	} else {
		ctx.Printf("✓ Configuration: OK (%s backend)\n", ctx.Config.Backend)
	}

	// Check 2: keyring (warning only)
	if ctx.Config.NoKeyring {
		ctx.Printf("⊘ OS keyring: SKIPPED (--no-keyring)\n")
	} else if !keyring.IsAvailable() {
		ctx.Printf("⚠ OS keyring: WARNING\n")
		ctx.Printf("   Keyring unavailable, sessions will not persist between runs\n")
	} else {
		ctx.Printf("✓ OS keyring: OK\n")
	}

	// Check 3: backend reachable
	reachable := false
	if configOK {
		if err := checkBackendReachable(ctx); err != nil {
			fail("Backend reachable", err)
		} else {
			ctx.Printf("✓ Backend reachable: OK\n")
			reachable = true
		}
	} else {
		ctx.Printf("⊘ Backend reachable: SKIPPED (invalid configuration)\n")
	}

	// Check 4: schema version (SQL backends only)
	if reachable {
		switch err := checkSchemaVersion(ctx); {
		case err == errNotApplicable:
			ctx.Printf("⊘ Schema version: SKIPPED (managed by the hosted backend)\n")
		case err != nil:
			fail("Schema version", err)
		default:
			ctx.Printf("✓ Schema version: OK\n")
		}
	} else {
		ctx.Printf("⊘ Schema version: SKIPPED (backend not reachable)\n")
	}

	// Check 5: session (warning only)
	if reachable {
		if email, err := checkSession(ctx); err != nil {
			ctx.Printf("⚠ Session: WARNING\n")
			ctx.Printf("   %v\n", err)
		} else {
			ctx.Printf("✓ Session: OK (signed in as %s)\n", email)
		}
	} else {
		ctx.Printf("⊘ Session: SKIPPED (backend not reachable)\n")
	}

	// Check 6: backups present (warning only, sqlite)
	if ctx.Config.Backend == constants.BackendSQLite {
		if err := checkBackupsPresent(ctx); err != nil {
			ctx.Printf("⚠ Backups present: WARNING\n")
			ctx.Printf("   %v\n", err)
		} else {
			ctx.Printf("✓ Backups present: OK\n")
		}
	}

	// Check 7: clock/timezone sanity
	if err := checkClockTimezone(ctx); err != nil {
		fail("Clock/timezone", err)
	} else {
		ctx.Printf("✓ Clock/timezone: OK\n")
	}

	ctx.Println()
	if hasError {
		return fmt.Errorf("diagnostics found problems")
	}
	ctx.Println("All checks passed")
	return nil
}

var errNotApplicable = fmt.Errorf("not applicable")

func checkBackendReachable(ctx *cli.Context) error {
	p, err := ctx.Provider()
	if err != nil {
		return err
	}
	if h, ok := p.(healthChecker); ok {
		return h.Health(ctx.Ctx())
	}
	return p.Load(ctx.Ctx())
}

func checkSchemaVersion(ctx *cli.Context) error {
	p, err := ctx.Provider()
	if err != nil {
		return err
	}
	st, ok := p.(schemaStatus)
	if !ok {
		return errNotApplicable
	}
	status, err := st.MigrationStatus()
	if err != nil {
		return err
	}
	if status.Current > status.Latest {
		return fmt.Errorf("schema version %d is newer than supported version %d, upgrade streakline", status.Current, status.Latest)
	}
	if !status.UpToDate() {
		return fmt.Errorf("%d pending migration(s), run 'streakline init'", len(status.Pending))
	}
	return nil
}

func checkSession(ctx *cli.Context) (string, error) {
	p, err := ctx.Provider()
	if err != nil {
		return "", err
	}
	session, err := p.GetSession(ctx.Ctx())
	if err != nil {
		return "", err
	}
	if session == nil {
		return "", fmt.Errorf("not signed in, run 'streakline auth login'")
	}
	return session.User.Email, nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	mgr := backup.NewManager(ctx.Config.DB)
	backups, err := mgr.List()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found in %s", mgr.Dir())
	}
	return nil
}

func checkClockTimezone(ctx *cli.Context) error {
	if _, err := ctx.Config.Location(); err != nil {
		return err
	}

	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}
