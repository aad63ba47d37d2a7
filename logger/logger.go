// Package logger builds the structured logger used by the sig tools.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"

	"github.com/omnicraft/sig/config"
)

// New returns a logger writing to the configured output and, when a log
// file is set, to that file as JSON. The returned close func releases the
// file.
func New(cfg config.LogConfig) (*slog.Logger, func() error, error) {
	return NewWithWriter(cfg, nil)
}

// NewWithWriter is New with w in place of the configured output.
func NewWithWriter(cfg config.LogConfig, w io.Writer) (*slog.Logger, func() error, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	if w == nil {
		switch cfg.Output {
		case "stdout":
			w = os.Stdout
		case "none":
		default:
			w = os.Stderr
		}
	}

	var handlers []slog.Handler
	if w != nil {
		if cfg.Format == "json" {
			handlers = append(handlers, slog.NewJSONHandler(w, opts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(w, opts))
		}
	}

	closer := func() error { return nil }
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		handlers = append(handlers, slog.NewJSONHandler(f, opts))
		closer = f.Close
	}

	return slog.New(slogmulti.Fanout(handlers...)), closer, nil
}

func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", s, err)
	}
	return level, nil
}
