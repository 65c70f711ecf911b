// Package obs sets up this repo's structured logger.
//
// Grounded on IAMAMZ-aalice-drone-detection-knn-backend/server's
// utils.GetLogger() + slog.Any("error", err)/ErrorContext/InfoContext
// pattern, used throughout its socketHandlers.go and main.go.
package obs

import (
	"log/slog"
	"os"
	"sync"
)

var (
	once   sync.Once
	logger *slog.Logger
)

// Logger returns the process-wide structured logger, a JSON handler over
// stderr. Built once and reused, per GetLogger()'s singleton style.
func Logger() *slog.Logger {
	once.Do(func() {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	})
	return logger
}

// SetLevel rebuilds the logger at the requested level, for the CLI's
// --verbose flag.
func SetLevel(level slog.Level) {
	// Spend the once first, so a later Logger() call keeps this logger
	// instead of replacing it with the Info-level default.
	once.Do(func() {})
	logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}
