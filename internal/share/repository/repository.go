package repository

import (
	"context"

	"github.com/00aj99/Hauk/internal/share/domain"
)

// Repository defines persistence for shares and the group PIN registry.
type Repository interface {
	// Get returns the share for id, or nil if it does not exist or has expired.
	Get(ctx context.Context, id string) (*domain.Share, error)
	// GetByPIN resolves a group PIN to its share, or nil on a miss at either step.
	GetByPIN(ctx context.Context, pin string) (*domain.Share, error)
	// Save validates and publishes sh until its expiry. An already-expired share is deleted instead.
	Save(ctx context.Context, sh *domain.Share) error
	// Delete removes the share and, for groups, its PIN entry.
	Delete(ctx context.Context, sh *domain.Share) error
}
