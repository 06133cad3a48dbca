// Package logging configures diagnostic logging for gptchat.
//
// The TUI owns the terminal, so records go to a file instead of stdout.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/diogo/gptchat/internal/config"
)

// NewSessionID returns a fresh identifier for one chat session
func NewSessionID() string {
	return uuid.NewString()
}

// New builds a text logger writing to w, tagged with the session id
func New(w io.Writer, verbose bool, sessionID string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if verbose {
		opts.Level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(w, opts))
	if sessionID != "" {
		logger = logger.With(slog.String("session_id", sessionID))
	}
	return logger
}

// Discard returns a logger that drops every record
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Setup opens the log file configured in cfg and installs the logger as the slog default.
// The caller must close the returned file when the session ends.
func Setup(cfg config.Config, sessionID string) (*slog.Logger, io.Closer, error) {
	path, err := config.GetLogPath(cfg)
	if err != nil {
		return nil, nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := New(f, cfg.Verbose, sessionID)
	slog.SetDefault(logger)
	return logger, f, nil
}

// Truncate shortens s to at most maxLen bytes, appending "..." when cut.
// The cut backs off to a rune boundary so the result stays valid UTF-8.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := max(maxLen, 0)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
