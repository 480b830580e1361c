package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/00aj99/Hauk/internal/expiry"
	"github.com/00aj99/Hauk/internal/kv"
	"github.com/00aj99/Hauk/internal/session/domain"
)

// KVRepository stores sessions as JSON under kv.SessionKey.
type KVRepository struct {
	store kv.Store
	nowF  func() time.Time
}

// NewKVRepository returns a session repository over store. now may be nil to use the wall clock.
func NewKVRepository(store kv.Store, now func() time.Time) *KVRepository {
	if now == nil {
		now = time.Now
	}
	return &KVRepository{store: store, nowF: now}
}

// Get returns the session for id, or nil if not found.
// It returns an error only for store failures or undecodable records.
func (r *KVRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	if id == "" {
		return nil, nil
	}
	b, ok, err := r.store.Get(ctx, kv.SessionKey(id))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var s domain.Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("session %s: decode: %w", domain.Ref(id), err)
	}
	s.ID = id
	if s.Targets == nil {
		s.Targets = []string{}
	}
	if s.Points == nil {
		s.Points = []domain.Point{}
	}
	return &s, nil
}

// Save persists s with a TTL matching its expiry, or deletes it when already expired.
// Nothing is written when s fails validation.
func (r *KVRepository) Save(ctx context.Context, s *domain.Session) error {
	if err := s.Validate(); err != nil {
		return err
	}
	now := r.nowF()
	if s.HasExpired(now) {
		return r.Delete(ctx, s.ID)
	}
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session %s: encode: %w", domain.Ref(s.ID), err)
	}
	return r.store.Set(ctx, kv.SessionKey(s.ID), b, expiry.TTL(s.Expire, now))
}

// Delete removes the session record for id.
func (r *KVRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, kv.SessionKey(id))
}
