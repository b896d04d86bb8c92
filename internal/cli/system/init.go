package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/streakline/internal/backup"
	"github.com/julianstephens/streakline/internal/cli"
	"github.com/julianstephens/streakline/internal/constants"
)

type InitCmd struct {
	Force bool `help:"Force reset by deleting the existing SQLite database before initialization."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force && ctx.Config.Backend != constants.BackendSQLite {
		return fmt.Errorf("--force is only supported for the sqlite backend")
	}

	// an existing sqlite database is snapshotted before it is migrated or reset
	if ctx.Config.Backend == constants.BackendSQLite {
		dbPath := ctx.Config.DB
		if _, err := os.Stat(dbPath); err == nil {
			path, err := backup.NewManager(dbPath).Create()
			if err != nil {
				return err
			}
			ctx.Printf("Backed up existing database to: %s\n", path)

			if c.Force {
				if err := os.Remove(dbPath); err != nil {
					return fmt.Errorf("failed to delete existing database: %w", err)
				}
				ctx.Printf("Deleted existing database at: %s\n", dbPath)
			}
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	p, err := ctx.Provider()
	if err != nil {
		return err
	}
	if err := p.Init(ctx.Ctx()); err != nil {
		return err
	}

	switch ctx.Config.Backend {
	case constants.BackendSQLite:
		ctx.Printf("Initialized streakline storage at: %s\n", ctx.Config.DB)
	default:
		ctx.Printf("Initialized streakline storage (%s backend)\n", p.Name())
	}
	if st, ok := p.(schemaStatus); ok {
		if status, err := st.MigrationStatus(); err == nil {
			ctx.Printf("Schema version: %d\n", status.Current)
		}
	}
	return nil
}
