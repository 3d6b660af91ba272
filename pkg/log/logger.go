// Package log provides structured logging for the Meridian SDK.
//
// The package is built around a small Logger interface so that SDK
// components never depend on a concrete logging backend. The default
// implementation is backed by zap and supports JSON and logfmt output.
// Loggers are immutable: WithName, WithKV and AddCallerSkip return copies.
package log

import "context"

// Level controls the minimum severity a logger emits.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Output formats supported by NewZapLogger.
const (
	FormatJSON   = "json"
	FormatLogfmt = "logfmt"
)

// Config carries the options common to all Logger implementations.
type Config struct {
	// Format selects the output encoding, FormatJSON or FormatLogfmt.
	// An empty or unknown value falls back to FormatJSON.
	Format string
	// Level is the minimum severity to emit. Defaults to LevelInfo.
	Level Level
}

// Logger is the logging interface used throughout the SDK.
// The keysAndValues arguments are alternating key-value pairs
// (e.g. "subscription", id, "query", q).
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)

	// WithName returns a logger whose name is extended with the given
	// subsystem name. Names form a dot-separated hierarchy.
	WithName(name string) Logger
	// Name returns the full dot-separated name of this logger.
	Name() string

	// WithKV returns a logger that includes the given key-value pairs
	// in every entry it emits.
	WithKV(keysAndValues ...any) Logger
	// GetAllKV returns the accumulated key-value pairs.
	GetAllKV() []any

	// AddCallerSkip returns a logger that skips an additional number of
	// stack frames when resolving caller information. Useful when the
	// logger is wrapped by helper functions.
	AddCallerSkip(skip int) Logger

	// WithSpanEventRecorder returns a logger that mirrors every entry
	// onto the given recorder, typically an OpenTelemetry span.
	WithSpanEventRecorder(ser SpanEventRecorder) Logger
}

// SpanEventRecorder receives log entries as trace span events.
type SpanEventRecorder interface {
	TraceID() string
	SpanID() string
	RecordEvent(name string, keysAndValues ...any)
	RecordError(name string, keysAndValues ...any)
}

type ctxKey struct{}

// WithContext returns a copy of ctx carrying the given logger.
func WithContext(ctx context.Context, lg Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, lg)
}

// FromContext returns the logger stored in ctx, or a noop logger
// if none is present.
func FromContext(ctx context.Context) Logger {
	if lg, ok := ctx.Value(ctxKey{}).(Logger); ok {
		return lg
	}
	return NewNoopLogger()
}

// NoopLogger discards all entries. It is the fallback logger used when
// a component is not given an explicit one.
type NoopLogger struct{}

var _ Logger = NoopLogger{}

// NewNoopLogger returns a logger that discards everything.
func NewNoopLogger() Logger { return NoopLogger{} }

func (NoopLogger) Debug(string, ...any) {}
func (NoopLogger) Info(string, ...any)  {}
func (NoopLogger) Warn(string, ...any)  {}
func (NoopLogger) Error(string, ...any) {}

func (n NoopLogger) WithName(string) Logger                         { return n }
func (NoopLogger) Name() string                                     { return "" }
func (n NoopLogger) WithKV(...any) Logger                           { return n }
func (NoopLogger) GetAllKV() []any                                  { return nil }
func (n NoopLogger) AddCallerSkip(int) Logger                       { return n }
func (n NoopLogger) WithSpanEventRecorder(SpanEventRecorder) Logger { return n }
