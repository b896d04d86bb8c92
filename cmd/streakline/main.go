package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/streakline/internal/cli"
	"github.com/julianstephens/streakline/internal/cli/auth"
	"github.com/julianstephens/streakline/internal/cli/habits"
	"github.com/julianstephens/streakline/internal/cli/system"
	"github.com/julianstephens/streakline/internal/config"
	"github.com/julianstephens/streakline/internal/constants"
	"github.com/julianstephens/streakline/internal/logger"
)

var CLI struct {
	config.Config `embed:""`
	Version kong.VersionFlag

	Init    system.InitCmd    `cmd:"" help:"Initialize streakline storage (runs migrations for sqlite and postgres)."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Tui     system.TuiCmd     `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Auth    auth.AuthCmd      `cmd:"" help:"Sign up, sign in and manage the session."`
	Habit   habits.HabitCmd   `cmd:"" help:"Manage habits and habit tracking."`
	Stats   habits.StatsCmd   `cmd:"" help:"Show habit statistics."`
	Keyring system.KeyringCmd `cmd:"" help:"Manage the PostgreSQL connection string in the OS keyring."`
}

func main() {
	if err := config.LoadDotenv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Personal habit tracker with streaks"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Configuration(config.YAML, config.DefaultConfigFiles()...),
		kong.Vars{"version": constants.Version},
	)

	if err := logger.Init(logger.Config{Debug: CLI.Debug, Level: CLI.LogLevel, ConfigDir: CLI.ConfigDir}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	appCtx := cli.NewContext(ctx, &CLI.Config)

	err := kctx.Run(appCtx)
	if closeErr := appCtx.Close(); closeErr != nil {
		logger.Warn("Error closing storage", "error", closeErr)
	}
	stop()
	_ = logger.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
