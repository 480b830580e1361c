package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"time"

	"github.com/00aj99/Hauk/internal/expiry"
)

var (
	// ErrIntervalUnset is returned when saving a session whose push interval was never set.
	ErrIntervalUnset = fmt.Errorf("%w: session interval is undefined", expiry.ErrInvariant)
	// ErrIndefinite is returned when saving a session with no expiry.
	ErrIndefinite = fmt.Errorf("%w: session cannot be indefinite", expiry.ErrInvariant)
)

// Session is the broadcasting state of one device: when it stops, how often it
// pushes, the shares it feeds and its most recent points.
type Session struct {
	ID       string   `json:"-"`
	Expire   int64    `json:"expire"`
	Interval *int     `json:"interval"`
	Targets  []string `json:"targets"`
	Points   []Point  `json:"points"`
}

// refLen is the number of hex characters kept by Ref.
const refLen = 12

// Ref returns a short digest of a session ID for logs and events. The ID is the
// device's credential and must never leave the process in clear.
func Ref(id string) string {
	if id == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])[:refLen]
}

// New returns an unsaved session. Expire and Interval must be set before it can be persisted.
func New(id string) *Session {
	return &Session{
		ID:      id,
		Targets: []string{},
		Points:  []Point{},
	}
}

// SetInterval sets the push interval in seconds.
func (s *Session) SetInterval(seconds int) {
	s.Interval = &seconds
}

// IntervalSeconds returns the push interval, or 0 when unset.
func (s *Session) IntervalSeconds() int {
	if s.Interval == nil {
		return 0
	}
	return *s.Interval
}

// HasExpired reports whether the session's expiry is at or before now.
func (s *Session) HasExpired(now time.Time) bool {
	return expiry.HasExpired(s.Expire, now)
}

// Validate checks that the session may be persisted.
func (s *Session) Validate() error {
	if s.Interval == nil {
		return ErrIntervalUnset
	}
	if s.Expire == 0 {
		return ErrIndefinite
	}
	return nil
}

// AddPoint appends p, evicting the oldest points so that at most limit remain.
// A non-positive limit keeps every point.
func (s *Session) AddPoint(p Point, limit int) {
	s.Points = append(s.Points, p)
	if limit > 0 && len(s.Points) > limit {
		s.Points = slices.Clone(s.Points[len(s.Points)-limit:])
	}
}

// AddTarget records that the session feeds shareID. Adding a known target is a no-op.
func (s *Session) AddTarget(shareID string) {
	if !slices.Contains(s.Targets, shareID) {
		s.Targets = append(s.Targets, shareID)
	}
}

// RemoveTarget drops shareID, keeping the remaining targets in order.
func (s *Session) RemoveTarget(shareID string) {
	s.Targets = slices.DeleteFunc(s.Targets, func(id string) bool { return id == shareID })
}

// HasTarget reports whether the session feeds shareID.
func (s *Session) HasTarget(shareID string) bool {
	return slices.Contains(s.Targets, shareID)
}
