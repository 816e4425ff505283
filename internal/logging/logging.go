// Package logging provides the structured diagnostics used by the pool,
// client façade, and H2 body pump. It is a thin wrapper around zap,
// scaled down for a library: no file rotation or config-file loading,
// just an injectable zap.Logger with a safe no-op default.
package logging

import "go.uber.org/zap"

// Logger is the component-scoped logger handed to pool/client/h2
// constructors. The zero value is not usable; use Nop() or New().
type Logger struct {
	z *zap.SugaredLogger
}

// Nop returns a Logger that discards everything, used as the default
// when a caller doesn't supply one.
func Nop() Logger {
	return Logger{z: zap.NewNop().Sugar()}
}

// New wraps an existing *zap.Logger, adding a "component" field.
func New(base *zap.Logger, component string) Logger {
	if base == nil {
		base = zap.NewNop()
	}
	return Logger{z: base.Sugar().With("component", component)}
}

// With returns a child Logger with additional structured fields.
func (l Logger) With(kv ...any) Logger {
	return Logger{z: l.z.With(kv...)}
}

func (l Logger) Debugw(msg string, kv ...any) { l.z.Debugw(msg, kv...) }
func (l Logger) Infow(msg string, kv ...any)  { l.z.Infow(msg, kv...) }
func (l Logger) Warnw(msg string, kv ...any)  { l.z.Warnw(msg, kv...) }
func (l Logger) Errorw(msg string, kv ...any) { l.z.Errorw(msg, kv...) }
