package kv

import (
	"context"
	"time"
)

// Prefixed namespaces every key with a fixed prefix so several deployments can
// share one backend.
type Prefixed struct {
	next   Store
	prefix string
}

// WithPrefix wraps next so that key k is stored as prefix+k. An empty prefix returns next unchanged.
func WithPrefix(next Store, prefix string) Store {
	if prefix == "" {
		return next
	}
	return &Prefixed{next: next, prefix: prefix}
}

func (p *Prefixed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return p.next.Get(ctx, p.prefix+key)
}

func (p *Prefixed) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return p.next.Set(ctx, p.prefix+key, value, ttl)
}

func (p *Prefixed) Delete(ctx context.Context, key string) error {
	return p.next.Delete(ctx, p.prefix+key)
}
