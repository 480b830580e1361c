package kv

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/00aj99/Hauk/internal/db"
)

// Supported backend names.
const (
	BackendMemory    = "memory"
	BackendMemcached = "memcached"
	BackendRedis     = "redis"
	BackendPostgres  = "postgres"
)

// Backend is a Store that owns connections and can report its health.
type Backend interface {
	Store
	Pinger
	io.Closer
}

// Options selects and configures a backend.
type Options struct {
	Backend       string
	MemcachedAddr string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	DatabaseURL   string
	// Timeout bounds the initial reachability check and memcached socket operations.
	Timeout time.Duration
}

// Open connects to the configured backend and verifies it is reachable.
func Open(ctx context.Context, opts Options) (Backend, error) {
	var b Backend
	switch opts.Backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendMemcached:
		b = DialMemcached(opts.Timeout, opts.MemcachedAddr)
	case BackendRedis:
		b = DialRedis(opts.RedisAddr, opts.RedisPassword, opts.RedisDB)
	case BackendPostgres:
		conn, err := db.Open(opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("kv: open postgres: %w", err)
		}
		b = NewPostgresStore(conn)
	default:
		return nil, fmt.Errorf("kv: unknown backend %q", opts.Backend)
	}

	pingCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	if err := b.Ping(pingCtx); err != nil {
		_ = b.Close()
		return nil, err
	}
	return b, nil
}
