// Package idgen produces collision-free share IDs, session IDs and group PINs by
// probing the key-value store before handing a candidate out.
package idgen

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/big"
	mrand "math/rand/v2"
	"strconv"
	"strings"

	"github.com/00aj99/Hauk/internal/kv"
)

const (
	sessionIDBytes = 32
	shareIDBytes   = 32
	shareIDHalf    = 4

	// PINMin and PINMax bound group PINs (inclusive).
	PINMin = 100000
	PINMax = 999999

	// DefaultMaxAttempts is used when New is given a non-positive bound.
	DefaultMaxAttempts = 16
)

// ErrCollisionExhausted is returned when every probed candidate was already in use.
var ErrCollisionExhausted = errors.New("idgen: no free identifier found")

// Generator hands out identifiers that are not currently present in the store.
// A candidate is only reserved once the caller saves a record under it; two
// concurrent callers can in principle receive the same value.
type Generator struct {
	store       kv.Store
	maxAttempts int
	random      io.Reader
	pin         func() int
}

// Option customizes a Generator.
type Option func(*Generator)

// WithRandom replaces the cryptographic source used for share and session IDs.
func WithRandom(r io.Reader) Option {
	return func(g *Generator) { g.random = r }
}

// WithPINSource replaces the PIN source. fn must return values in [PINMin, PINMax].
func WithPINSource(fn func() int) Option {
	return func(g *Generator) { g.pin = fn }
}

// New returns a Generator probing store, giving up after maxAttempts candidates.
func New(store kv.Store, maxAttempts int, opts ...Option) *Generator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	g := &Generator{
		store:       store,
		maxAttempts: maxAttempts,
		random:      rand.Reader,
		pin:         func() int { return PINMin + mrand.IntN(PINMax-PINMin+1) },
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewShareID returns a free share ID such as "AB12-9F3D": the first and last four
// base36 digits of the SHA-256 of random bytes.
func (g *Generator) NewShareID(ctx context.Context) (string, error) {
	return g.find(ctx, "share id", kv.ShareKey, func() (string, error) {
		buf := make([]byte, shareIDBytes)
		if _, err := io.ReadFull(g.random, buf); err != nil {
			return "", err
		}
		return formatShareID(sha256.Sum256(buf)), nil
	})
}

// NewSessionID returns a free 64-character hex session ID.
func (g *Generator) NewSessionID(ctx context.Context) (string, error) {
	return g.find(ctx, "session id", kv.SessionKey, func() (string, error) {
		buf := make([]byte, sessionIDBytes)
		if _, err := io.ReadFull(g.random, buf); err != nil {
			return "", err
		}
		return hex.EncodeToString(buf), nil
	})
}

// NewGroupPIN returns a free 6-digit group PIN. PINs are mnemonics, not secrets,
// so a non-cryptographic source is used.
func (g *Generator) NewGroupPIN(ctx context.Context) (string, error) {
	return g.find(ctx, "group pin", kv.PINKey, func() (string, error) {
		return strconv.Itoa(g.pin()), nil
	})
}

func (g *Generator) find(ctx context.Context, what string, key func(string) string, next func() (string, error)) (string, error) {
	for i := 0; i < g.maxAttempts; i++ {
		candidate, err := next()
		if err != nil {
			return "", fmt.Errorf("idgen: generate %s: %w", what, err)
		}
		_, used, err := g.store.Get(ctx, key(candidate))
		if err != nil {
			return "", fmt.Errorf("idgen: probe %s: %w", what, err)
		}
		if !used {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s after %d attempts", ErrCollisionExhausted, what, g.maxAttempts)
}

func formatShareID(sum [sha256.Size]byte) string {
	s := strings.ToUpper(new(big.Int).SetBytes(sum[:]).Text(36))
	if len(s) < 2*shareIDHalf {
		s = strings.Repeat("0", 2*shareIDHalf-len(s)) + s
	}
	return s[:shareIDHalf] + "-" + s[len(s)-shareIDHalf:]
}
