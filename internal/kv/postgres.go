package kv

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PostgresStore is a Store backed by the kv_entries table (see internal/db/migrations).
// Expired rows are invisible to Get and removed by Sweep.
type PostgresStore struct {
	db   *sql.DB
	nowF func() time.Time
}

// NewPostgresStore returns a store using db. The schema must already be migrated.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, nowF: time.Now}
}

const (
	pgGet = `SELECT value FROM kv_entries WHERE key = $1 AND expires_at > $2`
	pgSet = `INSERT INTO kv_entries (key, value, expires_at) VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at`
	pgDelete = `DELETE FROM kv_entries WHERE key = $1`
	pgSweep  = `DELETE FROM kv_entries WHERE expires_at <= $1`
)

// Get returns the value at key if it has not expired.
func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var v []byte
	err := s.db.QueryRowContext(ctx, pgGet, key, s.nowF().UTC()).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, unavailable("postgres get", err)
	}
	return v, true, nil
}

// Set upserts value with an absolute expiry of now+ttl.
func (s *PostgresStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrNonPositiveTTL
	}
	if _, err := s.db.ExecContext(ctx, pgSet, key, value, s.nowF().UTC().Add(ttl)); err != nil {
		return unavailable("postgres set", err)
	}
	return nil
}

// Delete removes key.
func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, pgDelete, key); err != nil {
		return unavailable("postgres delete", err)
	}
	return nil
}

// Sweep deletes every expired row and returns how many were removed.
func (s *PostgresStore) Sweep(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, pgSweep, s.nowF().UTC())
	if err != nil {
		return 0, unavailable("postgres sweep", err)
	}
	return res.RowsAffected()
}

// Ping checks the connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable("postgres ping", err)
	}
	return nil
}

// Close closes the database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
