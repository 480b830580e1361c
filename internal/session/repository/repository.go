package repository

import (
	"context"

	"github.com/00aj99/Hauk/internal/session/domain"
)

// Repository defines persistence for broadcasting sessions.
type Repository interface {
	// Get returns the session for id, or nil if it does not exist or has expired.
	Get(ctx context.Context, id string) (*domain.Session, error)
	// Save validates and persists s until its expiry. An already-expired session is deleted instead.
	Save(ctx context.Context, s *domain.Session) error
	// Delete removes the session record.
	Delete(ctx context.Context, id string) error
}
