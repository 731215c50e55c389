package core

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Logger receives structured service events as a message plus key-value pairs.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
}

// MetricsRecorder observes service operation outcomes.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// Tracer opens spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan terminates a single traced operation.
type TraceSpan interface {
	End(err error)
}

// Option customises service construction.
type Option func(*Service)

// WithLogger attaches a structured logger to the service.
func WithLogger(logger Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsRecorder attaches a metrics recorder to the service.
func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(s *Service) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

// WithTracer attaches a tracer to the service.
func WithTracer(tracer Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithClock overrides the service time source, used by tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

// JSONLogger writes one JSON object per event to the configured writer.
type JSONLogger struct {
	mu    sync.Mutex
	enc   *json.Encoder
	clock func() time.Time
}

// NewJSONLogger constructs a JSON-lines logger writing to w.
func NewJSONLogger(w io.Writer) *JSONLogger {
	return &JSONLogger{
		enc:   json.NewEncoder(w),
		clock: func() time.Time { return time.Now().UTC() },
	}
}

func (l *JSONLogger) log(level, msg string, keyvals []any) {
	entry := map[string]any{
		"ts":    l.clock().Format(time.RFC3339Nano),
		"level": level,
		"msg":   msg,
	}
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		entry[key] = keyvals[i+1]
	}
	l.mu.Lock()
	_ = l.enc.Encode(entry)
	l.mu.Unlock()
}

// Debug logs at debug level.
func (l *JSONLogger) Debug(msg string, keyvals ...any) { l.log("debug", msg, keyvals) }

// Info logs at info level.
func (l *JSONLogger) Info(msg string, keyvals ...any) { l.log("info", msg, keyvals) }

// Error logs at error level.
func (l *JSONLogger) Error(msg string, keyvals ...any) { l.log("error", msg, keyvals) }
