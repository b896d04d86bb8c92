// Package logger writes streakline's log to a rotating file under the
// config directory. The TUI owns stderr, so it is only added in debug mode.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/julianstephens/streakline/internal/constants"
)

var (
	// Logger is the global logger instance
	Logger *log.Logger

	sink *lumberjack.Logger
)

// Config holds logger configuration. Zero values fall back to the defaults
// in constants.
type Config struct {
	Debug     bool
	Level     string
	ConfigDir string
	// MaxSizeMB and MaxBackups bound the rotated files
	MaxSizeMB  int
	MaxBackups int
}

func (c Config) level() (log.Level, error) {
	if c.Debug {
		return log.DebugLevel, nil
	}
	if c.Level == "" {
		return log.InfoLevel, nil
	}
	lvl, err := log.ParseLevel(c.Level)
	if err != nil {
		return 0, fmt.Errorf("invalid log level %q", c.Level)
	}
	return lvl, nil
}

// Init initializes the global logger with the given configuration
func Init(cfg Config) error {
	level, err := cfg.level()
	if err != nil {
		return err
	}

	logDir := filepath.Join(cfg.ConfigDir, constants.LogDirName)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}

	maxSize, maxBackups := cfg.MaxSizeMB, cfg.MaxBackups
	if maxSize <= 0 {
		maxSize = constants.LogMaxSizeMB
	}
	if maxBackups <= 0 {
		maxBackups = constants.LogMaxBackups
	}

	// re-init replaces the sink
	_ = Close()
	sink = &lumberjack.Logger{
		Filename:   filepath.Join(logDir, constants.AppName+".log"),
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     constants.LogMaxAgeDays,
		Compress:   true,
	}

	var writer io.Writer = sink
	if cfg.Debug {
		writer = io.MultiWriter(os.Stderr, sink)
	}

	Logger = log.NewWithOptions(writer, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Level:           level,
		Prefix:          constants.AppName,
	})
	return nil
}

// Path returns the active log file, or "" before Init
func Path() string {
	if sink == nil {
		return ""
	}
	return sink.Filename
}

// Close flushes and closes the log file
func Close() error {
	if sink == nil {
		return nil
	}
	err := sink.Close()
	sink = nil
	return err
}

func Debug(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

func Info(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

func Warn(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

func Error(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}

// Fatal logs and exits with status 1
func Fatal(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Fatal(msg, keyvals...)
	}
	os.Exit(1)
}
