package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/evcraddock/rental-bridge/internal/apperr"
)

// Command runs fn and logs its outcome under name. Caller-facing failures
// are logged at warn, anything else at error.
func Command(ctx context.Context, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	duration := time.Since(start)

	level := slog.LevelInfo
	attrs := []any{
		"command", name,
		"duration", duration.String(),
	}
	if err != nil {
		level = slog.LevelError
		if apperr.Expected(err) {
			level = slog.LevelWarn
		}
		attrs = append(attrs, "error", err.Error())
	}

	slog.Log(ctx, level, "command", attrs...)
	return err
}
