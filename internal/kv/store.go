// Package kv defines the key-value capability every session and share record is
// persisted through, plus adapters for the supported backends.
package kv

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnavailable wraps backend failures (connection refused, timeouts, protocol errors).
	ErrUnavailable = errors.New("kv: store unavailable")
	// ErrNonPositiveTTL is returned by Set when ttl <= 0. Callers must delete instead of writing an expired value.
	ErrNonPositiveTTL = errors.New("kv: ttl must be positive")
)

// Store is a flat key-value store with per-key expiry. It offers last-write-wins
// semantics per key and no multi-key atomicity.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent or expired.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set upserts value under key, expiring after ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Pinger is implemented by stores that can report backend reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Key family prefixes. A single flat store hosts all three families.
const (
	prefixSession = "-session-"
	prefixShare   = "-locdata-"
	prefixPIN     = "-groupid-"
)

// SessionKey returns the key under which a session record is stored.
func SessionKey(id string) string { return prefixSession + id }

// ShareKey returns the key under which a share record is stored.
func ShareKey(id string) string { return prefixShare + id }

// PINKey returns the key of the group registry entry for pin.
func PINKey(pin string) string { return prefixPIN + pin }

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}
