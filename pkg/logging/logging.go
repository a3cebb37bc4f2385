// Package logging builds the slog logger shared by the agents
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/saaga0h/jeeves-timeofday/pkg/config"
)

// Logger wraps the slog logger and the rotated file behind it, if any
type Logger struct {
	*slog.Logger
	file *lumberjack.Logger
}

// New creates a text logger at cfg.LogLevel writing to stdout and, when
// cfg.LogFile is set, to a size-rotated file
func New(cfg *config.Config) *Logger {
	return newWithConsole(cfg, os.Stdout)
}

func newWithConsole(cfg *config.Config, console io.Writer) *Logger {
	var out io.Writer = console
	var file *lumberjack.Logger

	if cfg.LogFile != "" {
		file = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
			MaxAge:     cfg.LogMaxAgeDays,
			Compress:   true,
			LocalTime:  true,
		}
		if console != nil {
			out = io.MultiWriter(console, file)
		} else {
			out = file
		}
	}
	if out == nil {
		out = io.Discard
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: ParseLevel(cfg.LogLevel),
	})

	return &Logger{
		Logger: slog.New(handler).With("service", cfg.ServiceName),
		file:   file,
	}
}

// Close flushes and closes the log file
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// ParseLevel maps a config level name to a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
