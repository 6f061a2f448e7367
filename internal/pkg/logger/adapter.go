package logger

import (
	"log/slog"

	"github.com/peterhaasme/time-portfolio/internal/app/port"
)

// slogAdapter реализует port.Logger поверх *slog.Logger.
type slogAdapter struct {
	l *slog.Logger
}

// NewSlogAdapter wraps l as a port.Logger. A nil l uses the global logger.
func NewSlogAdapter(l *slog.Logger) port.Logger {
	if l == nil {
		ensureInitialized()
		l = globalLogger
	}
	return &slogAdapter{l: l}
}

// Named returns an adapter whose records carry a component attribute.
func Named(l *slog.Logger, component string) port.Logger {
	if l == nil {
		ensureInitialized()
		l = globalLogger
	}
	return NewSlogAdapter(l.With("component", component))
}

func (a *slogAdapter) Info(msg string, args ...any)  { a.l.Info(msg, args...) }
func (a *slogAdapter) Debug(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.l.Warn(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.l.Error(msg, args...) }
