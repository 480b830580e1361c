package telemetry

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/00aj99/Hauk/internal/telemetry/domain"
)

// MetricsEmitter counts lifecycle events by type.
type MetricsEmitter struct {
	events *prometheus.CounterVec
}

// NewMetricsEmitter registers hauk_lifecycle_events_total with reg.
func NewMetricsEmitter(reg prometheus.Registerer) *MetricsEmitter {
	factory := promauto.With(reg)
	return &MetricsEmitter{
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hauk_lifecycle_events_total",
			Help: "Session and share lifecycle events by type.",
		}, []string{"event_type"}),
	}
}

func (m *MetricsEmitter) Emit(_ context.Context, event *domain.Event) error {
	if event == nil {
		return nil
	}
	m.events.WithLabelValues(event.EventType).Inc()
	return nil
}
