// Package producer publishes lifecycle events to a message broker.
package producer

import (
	"context"

	"github.com/00aj99/Hauk/internal/telemetry/domain"
)

// Producer emits lifecycle events. Callers use it best-effort: log and ignore errors.
type Producer interface {
	Emit(ctx context.Context, event *domain.Event) error
	// Close releases the underlying writer. Safe to call if already closed.
	Close() error
}
