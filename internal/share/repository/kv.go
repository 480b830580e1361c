package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/00aj99/Hauk/internal/expiry"
	"github.com/00aj99/Hauk/internal/kv"
	"github.com/00aj99/Hauk/internal/share/domain"
)

// KVRepository stores shares as JSON under kv.ShareKey and group PINs under kv.PINKey.
// The share record is authoritative; a PIN entry is only a pointer to it, so
// writes go share first and deletes go PIN first.
type KVRepository struct {
	store kv.Store
	nowF  func() time.Time
}

// NewKVRepository returns a share repository over store. now may be nil to use the wall clock.
func NewKVRepository(store kv.Store, now func() time.Time) *KVRepository {
	if now == nil {
		now = time.Now
	}
	return &KVRepository{store: store, nowF: now}
}

// Get returns the share for id, or nil if not found.
func (r *KVRepository) Get(ctx context.Context, id string) (*domain.Share, error) {
	if id == "" {
		return nil, nil
	}
	b, ok, err := r.store.Get(ctx, kv.ShareKey(id))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var sh domain.Share
	if err := json.Unmarshal(b, &sh); err != nil {
		return nil, fmt.Errorf("share %s: decode: %w", id, err)
	}
	sh.ID = id
	return &sh, nil
}

// GetByPIN returns the group share registered under pin, or nil if either the
// PIN entry or the share it points at is gone. A PIN pointing at a share that
// no longer carries it is treated as a miss.
func (r *KVRepository) GetByPIN(ctx context.Context, pin string) (*domain.Share, error) {
	if pin == "" {
		return nil, nil
	}
	b, ok, err := r.store.Get(ctx, kv.PINKey(pin))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	sh, err := r.Get(ctx, string(b))
	if err != nil || sh == nil {
		return nil, err
	}
	if !sh.IsGroup() || sh.PIN() != pin {
		return nil, nil
	}
	return sh, nil
}

// Save persists sh with a TTL matching its expiry, or deletes it when already expired.
// For groups the PIN entry is refreshed with the same TTL after the share record.
func (r *KVRepository) Save(ctx context.Context, sh *domain.Share) error {
	if err := sh.Validate(); err != nil {
		return err
	}
	now := r.nowF()
	if sh.HasExpired(now) {
		return r.Delete(ctx, sh)
	}
	b, err := json.Marshal(sh)
	if err != nil {
		return fmt.Errorf("share %s: encode: %w", sh.ID, err)
	}
	ttl := expiry.TTL(sh.Expire, now)
	if err := r.store.Set(ctx, kv.ShareKey(sh.ID), b, ttl); err != nil {
		return err
	}
	if sh.IsGroup() {
		if err := r.store.Set(ctx, kv.PINKey(sh.PIN()), []byte(sh.ID), ttl); err != nil {
			return fmt.Errorf("share %s: register pin: %w", sh.ID, err)
		}
	}
	return nil
}

// Delete removes the PIN entry of a group, then the share record.
func (r *KVRepository) Delete(ctx context.Context, sh *domain.Share) error {
	if sh.IsGroup() && sh.PIN() != "" {
		if err := r.store.Delete(ctx, kv.PINKey(sh.PIN())); err != nil {
			return err
		}
	}
	return r.store.Delete(ctx, kv.ShareKey(sh.ID))
}
