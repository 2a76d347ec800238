// Package logging builds the process logger. The terminal belongs to the
// UI, so records go to a file or nowhere.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// New opens path for appending and returns a JSON logger writing to it.
// An empty path yields a logger that discards everything.
func New(path string, verbose bool) (*slog.Logger, io.Closer, error) {
	if path == "" {
		return Discard(), io.NopCloser(nil), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Discard(), io.NopCloser(nil), err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return Discard(), io.NopCloser(nil), err
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
	return logger, f, nil
}

func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
