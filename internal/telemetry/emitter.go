package telemetry

import (
	"context"

	"github.com/00aj99/Hauk/internal/telemetry/domain"
)

// EventEmitter emits lifecycle events (e.g. to OTel Logs or Kafka). Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *domain.Event) error
}
