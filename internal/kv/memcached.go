package kv

import (
	"context"
	"errors"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// memcached treats expirations larger than 30 days as absolute unix timestamps.
const memcachedRelativeLimit = 30 * 24 * time.Hour

// MemcachedStore is a Store backed by memcached. The client has no context
// support; ctx is only checked before each call.
type MemcachedStore struct {
	client *memcache.Client
	nowF   func() time.Time
}

// DialMemcached returns a MemcachedStore for the given servers (host:port).
// timeout bounds each socket operation; zero keeps the client default.
func DialMemcached(timeout time.Duration, servers ...string) *MemcachedStore {
	c := memcache.New(servers...)
	if timeout > 0 {
		c.Timeout = timeout
	}
	return &MemcachedStore{client: c, nowF: time.Now}
}

// Get returns the value stored at key.
func (s *MemcachedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, unavailable("memcached get", err)
	}
	it, err := s.client.Get(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, unavailable("memcached get", err)
	}
	return it.Value, true, nil
}

// Set writes value with the given ttl, rounded up to whole seconds.
func (s *MemcachedStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrNonPositiveTTL
	}
	if err := ctx.Err(); err != nil {
		return unavailable("memcached set", err)
	}
	err := s.client.Set(&memcache.Item{Key: key, Value: value, Expiration: s.expiration(ttl)})
	if err != nil {
		return unavailable("memcached set", err)
	}
	return nil
}

// Delete removes key.
func (s *MemcachedStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return unavailable("memcached delete", err)
	}
	err := s.client.Delete(key)
	if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		return unavailable("memcached delete", err)
	}
	return nil
}

// Ping checks every configured server.
func (s *MemcachedStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return unavailable("memcached ping", err)
	}
	if err := s.client.Ping(); err != nil {
		return unavailable("memcached ping", err)
	}
	return nil
}

func (s *MemcachedStore) expiration(ttl time.Duration) int32 {
	secs := (ttl + time.Second - 1) / time.Second
	if time.Duration(secs)*time.Second > memcachedRelativeLimit {
		return int32(s.nowF().Add(ttl).Unix())
	}
	return int32(secs)
}

// Close is a no-op; the client pools connections per server and has no shutdown hook.
func (s *MemcachedStore) Close() error { return nil }
