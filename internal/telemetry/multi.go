package telemetry

import (
	"context"
	"errors"

	"github.com/00aj99/Hauk/internal/telemetry/domain"
)

// Multi fans an event out to every non-nil emitter and joins their errors.
type Multi []EventEmitter

// NewMulti drops nil emitters. It returns nil when none remain.
func NewMulti(emitters ...EventEmitter) EventEmitter {
	var m Multi
	for _, e := range emitters {
		if e != nil {
			m = append(m, e)
		}
	}
	switch len(m) {
	case 0:
		return nil
	case 1:
		return m[0]
	}
	return m
}

func (m Multi) Emit(ctx context.Context, event *domain.Event) error {
	var errs []error
	for _, e := range m {
		if err := e.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
