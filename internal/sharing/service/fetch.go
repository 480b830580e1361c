package service

import (
	"context"
	"log"
	"time"

	sessiondomain "github.com/00aj99/Hauk/internal/session/domain"
	sharedomain "github.com/00aj99/Hauk/internal/share/domain"
)

// View is what a viewer sees of a share. Points is set for solo shares;
// Members maps nickname to points for groups.
type View struct {
	ShareID    string
	Type       sharedomain.Type
	Expire     int64
	ServerTime time.Time
	// Interval is the push interval in seconds.
	Interval int
	Points   []sessiondomain.Point
	Members  map[string][]sessiondomain.Point
}

// Fetch returns the current view of a share. A solo share whose host is gone and
// a group with no live members are both reported as ErrShareNotFound.
func (s *SharingService) Fetch(ctx context.Context, shareID string) (*View, error) {
	sh, err := s.shares.Get(ctx, shareID)
	if err != nil {
		return nil, err
	}
	if sh == nil {
		return nil, ErrShareNotFound
	}
	if sh.IsGroup() {
		return s.fetchGroup(ctx, sh)
	}
	host, err := s.liveSession(ctx, sh.Host())
	if err != nil {
		return nil, err
	}
	if host == nil {
		return nil, ErrShareNotFound
	}
	return &View{
		ShareID:    sh.ID,
		Type:       sh.Type,
		Expire:     sh.Expire,
		ServerTime: s.nowF(),
		Interval:   host.IntervalSeconds(),
		Points:     host.Points,
	}, nil
}

func (s *SharingService) fetchGroup(ctx context.Context, sh *sharedomain.Share) (*View, error) {
	live, err := s.members(ctx, sh)
	if err != nil {
		return nil, err
	}
	if len(live) == 0 || len(live) < len(sh.HostIDs()) {
		// Prune departed members while we are here. The view is built from live either way.
		if _, err := s.Clean(ctx, sh); err != nil {
			log.Printf("sharing: fetch %s: clean: %v", sh.ID, err)
		}
	}
	if len(live) == 0 {
		return nil, ErrShareNotFound
	}
	return &View{
		ShareID:    sh.ID,
		Type:       sh.Type,
		Expire:     maxExpire(live),
		ServerTime: s.nowF(),
		Interval:   minInterval(live),
		Members:    pointsByNickname(sh, live),
	}, nil
}
