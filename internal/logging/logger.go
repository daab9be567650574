// Package logging builds the application loggers. Rendered prompts and
// JSON-RPC traffic own stdout, so all diagnostics go to stderr.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// New creates the standard stderr logger. Common keys are normalized
// ("error" becomes "err") so log lines stay grep-friendly across packages.
func New(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}))
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
