// Package logging configures the process-wide slog logger. It exists
// to choose the handler and, when a log file is configured, the
// rotating writer it drains into — internal/datafile and
// internal/scan already log through the package-level slog.Warn
// directly, the idiom this package sets up rather than wraps.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/azuline/rose-sub000/internal/rotatelog"
)

// Format selects the slog handler.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Config configures Init. LogFile, when set, routes output through a
// rotatelog.Writer instead of Writer (or os.Stderr if Writer is nil).
type Config struct {
	Format     Format
	Level      slog.Level
	AddSource  bool
	Writer     io.Writer
	LogFile    string
	MaxSizeMB  int
	MaxBackups int
}

// Init builds the handler Config describes and installs it as the
// default logger via slog.SetDefault, returning it for callers that
// want a scoped reference (e.g. cmd/rose's top-level error reporting).
func Init(cfg Config) (*slog.Logger, error) {
	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}
	if cfg.LogFile != "" {
		maxBytes := int64(cfg.MaxSizeMB) * 1024 * 1024
		rl, err := rotatelog.New(cfg.LogFile, maxBytes, cfg.MaxBackups)
		if err != nil {
			return nil, fmt.Errorf("logging: init: %w", err)
		}
		w = rl
	}

	opts := &slog.HandlerOptions{Level: cfg.Level, AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, nil
}
