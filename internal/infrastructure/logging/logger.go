package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/roomcast/roomcast-core/internal/infrastructure/config"
)

// Logger is a slog.Logger carrying the service and version fields on
// every entry. Safe for concurrent use.
type Logger struct {
	*slog.Logger
}

// New builds a Logger from the logging section of the config. Format
// is "json" unless "text" is asked for; output is stdout unless
// "stderr" is asked for; unknown levels fall back to info.
func New(cfg config.LoggingConfig, version string) *Logger {
	return NewWithWriter(cfg, version, pickWriter(cfg.Output))
}

// NewWithWriter is New with an explicit destination, for tests that
// want to inspect what was written.
func NewWithWriter(cfg config.LoggingConfig, version string, w io.Writer) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", "roomcast"),
		slog.String("version", version),
	})
	return &Logger{Logger: slog.New(handler)}
}

// Default returns a JSON/info/stdout logger for early startup, before
// the config file has been read.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}, "dev")
}

// With returns a child logger with extra default attributes, e.g.
// log.With("component", "mqtt").
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

func pickWriter(output string) io.Writer {
	if strings.EqualFold(output, "stderr") {
		return os.Stderr
	}
	return os.Stdout
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
