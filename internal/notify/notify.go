// Package notify carries the two side channels the marketplace reports
// through: user-facing notifications and outgoing email.
package notify

import (
	"context"
	"log/slog"
)

// Level classifies a notification.
type Level string

// Notification levels.
const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notifier receives user-facing messages.
type Notifier interface {
	Notify(ctx context.Context, level Level, msg string)
}

// Func adapts a function to a Notifier.
type Func func(ctx context.Context, level Level, msg string)

// Notify calls f.
func (f Func) Notify(ctx context.Context, level Level, msg string) { f(ctx, level, msg) }

// Log is a Notifier that writes to the default slog logger.
type Log struct{}

// Notify logs msg at a level matching the notification level.
func (Log) Notify(ctx context.Context, level Level, msg string) {
	l := slog.LevelInfo
	if level == LevelError {
		l = slog.LevelWarn
	}
	slog.Log(ctx, l, "notification", "level", string(level), "msg", msg)
}

// Discard drops every notification.
var Discard Notifier = Func(func(context.Context, Level, string) {})
