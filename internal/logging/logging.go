// Package logging provides file-based logging with rotation for
// symbolgraph. Structured JSON logs are written to a rotating file (by
// default ~/.symbolgraph/logs/symbolgraph.log), optionally mirrored to
// stderr; debug logging only lowers the minimum level.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config controls where and how verbosely symbolgraph logs.
type Config struct {
	// Level is the minimum level logged: debug, info, warn, or error.
	Level string
	// FilePath is the log file's path. Empty disables file logging.
	FilePath string
	// MaxSizeMB is the file size, in MB, that triggers rotation.
	MaxSizeMB int
	// MaxFiles caps how many rotated files are kept.
	MaxFiles int
	// WriteToStderr additionally mirrors output to stderr.
	WriteToStderr bool
}

// DefaultConfig returns info-level logging to the default log path, mirrored
// to stderr.
func DefaultConfig() Config {
	return Config{
		Level:         "info",
		FilePath:      DefaultLogPath(),
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: true,
	}
}

// DebugConfig is DefaultConfig with the level raised to debug.
func DebugConfig() Config {
	cfg := DefaultConfig()
	cfg.Level = "debug"
	return cfg
}

// Setup builds a JSON slog.Logger per cfg and returns it alongside a
// cleanup function the caller must run before exiting.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	if err := EnsureLogDir(); err != nil {
		return nil, nil, err
	}

	var output io.Writer = io.Discard
	cleanup := func() {}
	if cfg.FilePath != "" {
		writer, err := NewRotatingWriter(cfg.FilePath, cfg.MaxSizeMB, cfg.MaxFiles)
		if err != nil {
			return nil, nil, err
		}
		output = writer
		cleanup = func() {
			_ = writer.Sync()
			_ = writer.Close()
		}
	}
	if cfg.WriteToStderr {
		if cfg.FilePath == "" {
			output = os.Stderr
		} else {
			output = io.MultiWriter(output, os.Stderr)
		}
	}

	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})
	logger := slog.New(handler)

	return logger, cleanup, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
