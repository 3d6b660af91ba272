package log

import (
	"fmt"
	"os"

	zaplogfmt "github.com/jsternberg/zap-logfmt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger is the default Logger implementation, backed by zap.
// Instances are immutable; all With* methods return copies.
type ZapLogger struct {
	lg   *zap.Logger
	name string
	kv   []any
	ser  SpanEventRecorder
}

var _ Logger = &ZapLogger{}

// NewZapLogger creates a ZapLogger with the given configuration.
// Output goes to the provided write syncers, or to stdout when none
// are given.
func NewZapLogger(cfg Config, ws ...zapcore.WriteSyncer) Logger {
	encCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.EpochMillisTimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var enc zapcore.Encoder
	switch cfg.Format {
	case FormatLogfmt:
		enc = zaplogfmt.NewEncoder(encCfg)
	default:
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	sink := zapcore.WriteSyncer(zapcore.Lock(os.Stdout))
	if len(ws) > 0 {
		sink = zapcore.NewMultiWriteSyncer(ws...)
	}

	core := zapcore.NewCore(enc, sink, zapLevel(cfg.Level))
	return &ZapLogger{
		// Skip one frame so the caller field points at the call site of
		// the ZapLogger method, not the method itself.
		lg: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)),
	}
}

func zapLevel(level Level) zapcore.Level {
	switch level {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *ZapLogger) clone() *ZapLogger {
	kv := make([]any, len(l.kv))
	copy(kv, l.kv)
	return &ZapLogger{lg: l.lg, name: l.name, kv: kv, ser: l.ser}
}

func (l *ZapLogger) Debug(msg string, keysAndValues ...any) {
	l.emit(zapcore.DebugLevel, msg, keysAndValues)
}

func (l *ZapLogger) Info(msg string, keysAndValues ...any) {
	l.emit(zapcore.InfoLevel, msg, keysAndValues)
}

func (l *ZapLogger) Warn(msg string, keysAndValues ...any) {
	l.emit(zapcore.WarnLevel, msg, keysAndValues)
}

func (l *ZapLogger) Error(msg string, keysAndValues ...any) {
	l.emit(zapcore.ErrorLevel, msg, keysAndValues)
}

func (l *ZapLogger) emit(lvl zapcore.Level, msg string, keysAndValues []any) {
	all := make([]any, 0, len(l.kv)+len(keysAndValues))
	all = append(all, l.kv...)
	all = append(all, keysAndValues...)

	if l.ser != nil {
		if lvl >= zapcore.ErrorLevel {
			l.ser.RecordError(msg, all...)
		} else {
			l.ser.RecordEvent(msg, all...)
		}
	}

	sugar := l.lg.Sugar()
	switch lvl {
	case zapcore.DebugLevel:
		sugar.Debugw(msg, all...)
	case zapcore.InfoLevel:
		sugar.Infow(msg, all...)
	case zapcore.WarnLevel:
		sugar.Warnw(msg, all...)
	default:
		sugar.Errorw(msg, all...)
	}
}

// WithName returns a logger named "<current>.<name>".
func (l *ZapLogger) WithName(name string) Logger {
	c := l.clone()
	c.lg = c.lg.Named(name)
	if c.name == "" {
		c.name = name
	} else {
		c.name = fmt.Sprintf("%s.%s", c.name, name)
	}
	return c
}

// Name returns the full dot-separated logger name.
func (l *ZapLogger) Name() string { return l.name }

// WithKV returns a logger that attaches the given pairs to every entry.
func (l *ZapLogger) WithKV(keysAndValues ...any) Logger {
	c := l.clone()
	c.kv = append(c.kv, keysAndValues...)
	return c
}

// GetAllKV returns the accumulated key-value pairs.
func (l *ZapLogger) GetAllKV() []any { return l.kv }

// AddCallerSkip returns a logger skipping additional caller frames.
func (l *ZapLogger) AddCallerSkip(skip int) Logger {
	c := l.clone()
	c.lg = c.lg.WithOptions(zap.AddCallerSkip(skip))
	return c
}

// WithSpanEventRecorder returns a logger that mirrors entries onto ser
// and tags every entry with the trace and span identifiers.
func (l *ZapLogger) WithSpanEventRecorder(ser SpanEventRecorder) Logger {
	c := l.clone()
	c.ser = ser
	c.kv = append(c.kv, "trace_id", ser.TraceID(), "span_id", ser.SpanID())
	return c
}
