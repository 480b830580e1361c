package kv

import (
	"context"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/00aj99/Hauk/internal/kv"

// Instrumented records a span, an operation counter and a latency histogram for
// every call to the wrapped store.
type Instrumented struct {
	next    Store
	tracer  trace.Tracer
	ops     *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// NewInstrumented wraps next. Metrics are registered on reg; pass a fresh
// prometheus.NewRegistry() in tests to avoid duplicate registration panics.
func NewInstrumented(next Store, tp trace.TracerProvider, reg prometheus.Registerer) *Instrumented {
	factory := promauto.With(reg)
	return &Instrumented{
		next:   next,
		tracer: tp.Tracer(instrumentationName),
		ops: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hauk",
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Key-value store operations by type, key family and result.",
		}, []string{"op", "family", "result"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hauk",
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Key-value store operation latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}
}

func (s *Instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, end := s.start(ctx, "get", key)
	v, ok, err := s.next.Get(ctx, key)
	result := "hit"
	if !ok {
		result = "miss"
	}
	end(result, err)
	return v, ok, err
}

func (s *Instrumented) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, end := s.start(ctx, "set", key, attribute.Int64("kv.ttl_seconds", int64(ttl/time.Second)))
	err := s.next.Set(ctx, key, value, ttl)
	end("ok", err)
	return err
}

func (s *Instrumented) Delete(ctx context.Context, key string) error {
	ctx, end := s.start(ctx, "delete", key)
	err := s.next.Delete(ctx, key)
	end("ok", err)
	return err
}

// Ping forwards to the wrapped store when it supports health checks.
func (s *Instrumented) Ping(ctx context.Context) error {
	if p, ok := s.next.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *Instrumented) start(ctx context.Context, op, key string, attrs ...attribute.KeyValue) (context.Context, func(result string, err error)) {
	family := keyFamily(key)
	attrs = append(attrs, attribute.String("kv.family", family))
	ctx, span := s.tracer.Start(ctx, "kv."+op, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
	began := time.Now()
	return ctx, func(result string, err error) {
		if err != nil {
			result = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		s.ops.WithLabelValues(op, family, result).Inc()
		s.latency.WithLabelValues(op).Observe(time.Since(began).Seconds())
		span.End()
	}
}

// keyFamily maps a key to its family label without leaking identifiers into metrics.
func keyFamily(key string) string {
	switch {
	case strings.Contains(key, prefixSession):
		return "session"
	case strings.Contains(key, prefixShare):
		return "share"
	case strings.Contains(key, prefixPIN):
		return "pin"
	default:
		return "other"
	}
}
