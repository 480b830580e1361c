package service

import (
	"context"
	"fmt"
	"math"

	sessiondomain "github.com/00aj99/Hauk/internal/session/domain"
	sharedomain "github.com/00aj99/Hauk/internal/share/domain"
	telemetrydomain "github.com/00aj99/Hauk/internal/telemetry/domain"
)

// IntervalInfinite is the interval of a group with no live members.
const IntervalInfinite = math.MaxInt

// members resolves the share's hosts to their live sessions, keyed by session ID.
// Hosts whose session is absent or expired are left out.
func (s *SharingService) members(ctx context.Context, sh *sharedomain.Share) (map[string]*sessiondomain.Session, error) {
	live := make(map[string]*sessiondomain.Session)
	for _, id := range sh.HostIDs() {
		sess, err := s.liveSession(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("share %s: load member: %w", sh.ID, err)
		}
		if sess != nil {
			live[id] = sess
		}
	}
	return live, nil
}

// AutoExpiration returns the latest expiry among the share's live members, or 0 if none are live.
func (s *SharingService) AutoExpiration(ctx context.Context, sh *sharedomain.Share) (int64, error) {
	live, err := s.members(ctx, sh)
	if err != nil {
		return 0, err
	}
	return maxExpire(live), nil
}

// AutoInterval returns the shortest push interval among the share's live members,
// or IntervalInfinite if none are live.
func (s *SharingService) AutoInterval(ctx context.Context, sh *sharedomain.Share) (int, error) {
	live, err := s.members(ctx, sh)
	if err != nil {
		return 0, err
	}
	return minInterval(live), nil
}

func maxExpire(live map[string]*sessiondomain.Session) int64 {
	var exp int64
	for _, sess := range live {
		exp = max(exp, sess.Expire)
	}
	return exp
}

func minInterval(live map[string]*sessiondomain.Session) int {
	interval := IntervalInfinite
	for _, sess := range live {
		interval = min(interval, sess.IntervalSeconds())
	}
	return interval
}

// SetAutoExpiration recomputes a share's expiry from its live members. It does not save.
func (s *SharingService) SetAutoExpiration(ctx context.Context, sh *sharedomain.Share) error {
	exp, err := s.AutoExpiration(ctx, sh)
	if err != nil {
		return err
	}
	sh.Expire = exp
	return nil
}

// AddHost adds sessionID to a group under nickname and recomputes its expiry.
// The session must already be saved to count as live. The share is not saved.
func (s *SharingService) AddHost(ctx context.Context, sh *sharedomain.Share, nickname, sessionID string) error {
	if !sh.IsGroup() {
		return fmt.Errorf("%w: share %s is not a group", ErrInvalidArgument, sh.ID)
	}
	sh.AddHost(nickname, sessionID)
	return s.SetAutoExpiration(ctx, sh)
}

// Clean drops members whose sessions are absent or expired. A group left with no
// members is deleted along with its PIN; otherwise its expiry is recomputed and it is saved.
// It reports whether the share was deleted.
func (s *SharingService) Clean(ctx context.Context, sh *sharedomain.Share) (bool, error) {
	live, err := s.members(ctx, sh)
	if err != nil {
		return false, err
	}
	var removed []string
	for _, id := range sh.HostIDs() {
		if _, ok := live[id]; !ok {
			sh.RemoveHost(id)
			removed = append(removed, id)
		}
	}
	if len(live) == 0 {
		if err := s.shares.Delete(ctx, sh); err != nil {
			return false, err
		}
		s.emit(telemetrydomain.EventGroupCleaned, sh.ID, "", map[string]any{"removed": len(removed), "deleted": true})
		return true, nil
	}
	sh.Expire = maxExpire(live)
	if err := s.shares.Save(ctx, sh); err != nil {
		return false, err
	}
	if len(removed) > 0 {
		s.emit(telemetrydomain.EventGroupCleaned, sh.ID, "", map[string]any{"removed": len(removed), "deleted": false})
	}
	return false, nil
}

// AllPoints returns each live member's points keyed by nickname.
func (s *SharingService) AllPoints(ctx context.Context, sh *sharedomain.Share) (map[string][]sessiondomain.Point, error) {
	live, err := s.members(ctx, sh)
	if err != nil {
		return nil, err
	}
	return pointsByNickname(sh, live), nil
}

func pointsByNickname(sh *sharedomain.Share, live map[string]*sessiondomain.Session) map[string][]sessiondomain.Point {
	points := make(map[string][]sessiondomain.Point)
	if sh.Group == nil {
		return points
	}
	for nick, id := range sh.Group.Hosts {
		if sess, ok := live[id]; ok {
			points[nick] = sess.Points
		}
	}
	return points
}
