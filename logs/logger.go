// Package logs is the structured-logging seam used by library packages, so
// they stay decoupled from the concrete logger the binary wires in.
package logs

import "log/slog"

// Logger is the minimal structured interface library code logs through.
type Logger interface {
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

type slogWrapper struct{}

func (s slogWrapper) Warn(msg string, args ...any)  { slog.Warn(msg, args...) }
func (s slogWrapper) Info(msg string, args ...any)  { slog.Info(msg, args...) }
func (s slogWrapper) Error(msg string, args ...any) { slog.Error(msg, args...) }

// DefaultLogger is used when no logger is injected; binaries replace it with
// the zap-backed implementation.
var DefaultLogger Logger = slogWrapper{}
