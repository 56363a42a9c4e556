package core

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Logger is the narrow structured logging surface services depend on.
// Key/value pairs follow the zap sugared convention.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// ZapLogger adapts a zap sugared logger to Logger.
type ZapLogger struct {
	s *zap.SugaredLogger
}

// NewZapLogger wraps l. A nil logger yields a no-op zap logger.
func NewZapLogger(l *zap.Logger) ZapLogger {
	if l == nil {
		l = zap.NewNop()
	}
	return ZapLogger{s: l.Sugar()}
}

func (z ZapLogger) Debug(msg string, kv ...any) { z.s.Debugw(msg, kv...) }
func (z ZapLogger) Info(msg string, kv ...any)  { z.s.Infow(msg, kv...) }
func (z ZapLogger) Warn(msg string, kv ...any)  { z.s.Warnw(msg, kv...) }
func (z ZapLogger) Error(msg string, kv ...any) { z.s.Errorw(msg, kv...) }

// MetricsRecorder receives one observation per service operation.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// Tracer opens a span per service operation.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan is closed with the operation's error, nil on success.
type TraceSpan interface {
	End(err error)
}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}
