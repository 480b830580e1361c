package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	sessiondomain "github.com/00aj99/Hauk/internal/session/domain"
	sharedomain "github.com/00aj99/Hauk/internal/share/domain"
	telemetrydomain "github.com/00aj99/Hauk/internal/telemetry/domain"
)

// Mode selects what Create does with the new session.
type Mode int

const (
	// ModeAlone creates a solo share.
	ModeAlone Mode = iota
	// ModeCreateGroup creates a group share with a fresh PIN.
	ModeCreateGroup
	// ModeJoinGroup adds the session to the group behind an existing PIN.
	ModeJoinGroup
)

// CreateRequest starts a broadcasting session.
type CreateRequest struct {
	Mode     Mode
	Duration time.Duration
	// Interval is the push interval.
	Interval time.Duration
	// Nickname names the session within a group. Required for group modes.
	Nickname string
	// PIN is the group to join in ModeJoinGroup.
	PIN string
	// Adoptable lets a group absorb a solo share later.
	Adoptable bool
}

// CreateResult describes the new session and the share it feeds.
type CreateResult struct {
	SessionID string
	ShareID   string
	ViewURL   string
	PIN       string
	Expire    int64
	// Interval is the push interval in seconds.
	Interval int
}

func (s *SharingService) validateCreate(req *CreateRequest) error {
	if req.Mode < ModeAlone || req.Mode > ModeJoinGroup {
		return fmt.Errorf("%w: unknown mode %d", ErrInvalidArgument, req.Mode)
	}
	if req.Duration < time.Second {
		return fmt.Errorf("%w: duration must be at least one second", ErrInvalidArgument)
	}
	if s.limits.MaxDuration > 0 && req.Duration > s.limits.MaxDuration {
		return fmt.Errorf("%w: duration exceeds %s", ErrInvalidArgument, s.limits.MaxDuration)
	}
	if req.Interval < max(s.limits.MinInterval, time.Second) {
		return fmt.Errorf("%w: interval below %s", ErrInvalidArgument, max(s.limits.MinInterval, time.Second))
	}
	req.Nickname = strings.TrimSpace(req.Nickname)
	if req.Mode != ModeAlone && req.Nickname == "" {
		return fmt.Errorf("%w: nickname is required for groups", ErrInvalidArgument)
	}
	if req.Mode == ModeJoinGroup && strings.TrimSpace(req.PIN) == "" {
		return fmt.Errorf("%w: group pin is required to join", ErrInvalidArgument)
	}
	return nil
}

// Create starts a session and links it to a solo share, a new group or an existing group.
func (s *SharingService) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	if err := s.validateCreate(&req); err != nil {
		return nil, err
	}
	// A join resolves the group first so a bad PIN costs no writes.
	var group *sharedomain.Share
	if req.Mode == ModeJoinGroup {
		var err error
		if group, err = s.liveGroupByPIN(ctx, strings.TrimSpace(req.PIN)); err != nil {
			return nil, err
		}
	}

	sessionID, err := s.ids.NewSessionID(ctx)
	if err != nil {
		return nil, err
	}
	sess := sessiondomain.New(sessionID)
	sess.Expire = s.nowF().Add(req.Duration).Unix()
	sess.SetInterval(int(req.Interval / time.Second))

	var sh *sharedomain.Share
	switch req.Mode {
	case ModeAlone:
		sh, err = s.createSolo(ctx, sess, req.Adoptable)
	case ModeCreateGroup:
		sh, err = s.createGroup(ctx, sess, req.Nickname)
	case ModeJoinGroup:
		sh, err = s.joinGroup(ctx, group, sess, req.Nickname)
	}
	if err != nil {
		return nil, err
	}

	sess.AddTarget(sh.ID)
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	s.emit(telemetrydomain.EventSessionCreated, sh.ID, sess.ID, map[string]any{"mode": int(req.Mode), "interval": sess.IntervalSeconds()})
	return &CreateResult{
		SessionID: sess.ID,
		ShareID:   sh.ID,
		ViewURL:   s.limits.ViewURL(sh.ID),
		PIN:       sh.PIN(),
		Expire:    sess.Expire,
		Interval:  sess.IntervalSeconds(),
	}, nil
}

func (s *SharingService) createSolo(ctx context.Context, sess *sessiondomain.Session, adoptable bool) (*sharedomain.Share, error) {
	shareID, err := s.ids.NewShareID(ctx)
	if err != nil {
		return nil, err
	}
	sh := sharedomain.NewSolo(shareID)
	sh.SetAdoptable(adoptable)
	sh.SetHost(sess.ID)
	sh.Expire = sess.Expire
	// The host is stored first so a failed create never leaves a share without one.
	sess.AddTarget(sh.ID)
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	if err := s.shares.Save(ctx, sh); err != nil {
		return nil, err
	}
	s.emit(telemetrydomain.EventShareCreated, sh.ID, sess.ID, map[string]any{"type": sh.Type.String(), "adoptable": adoptable})
	return sh, nil
}

func (s *SharingService) createGroup(ctx context.Context, sess *sessiondomain.Session, nickname string) (*sharedomain.Share, error) {
	shareID, err := s.ids.NewShareID(ctx)
	if err != nil {
		return nil, err
	}
	pin, err := s.ids.NewGroupPIN(ctx)
	if err != nil {
		return nil, err
	}
	// The session must be stored before AddHost so it counts as a live member.
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	sh := sharedomain.NewGroup(shareID, pin)
	if err := s.AddHost(ctx, sh, nickname, sess.ID); err != nil {
		return nil, err
	}
	if err := s.shares.Save(ctx, sh); err != nil {
		return nil, err
	}
	s.emit(telemetrydomain.EventShareCreated, sh.ID, sess.ID, map[string]any{"type": sh.Type.String(), "nickname": nickname})
	return sh, nil
}

func (s *SharingService) joinGroup(ctx context.Context, sh *sharedomain.Share, sess *sessiondomain.Session, nickname string) (*sharedomain.Share, error) {
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	if err := s.AddHost(ctx, sh, nickname, sess.ID); err != nil {
		return nil, err
	}
	if err := s.shares.Save(ctx, sh); err != nil {
		return nil, err
	}
	s.emit(telemetrydomain.EventGroupJoined, sh.ID, sess.ID, map[string]any{"nickname": nickname})
	return sh, nil
}

// liveGroupByPIN resolves pin to a group with at least one live member.
// A group whose members are all gone is cleaned up and reported as not found.
func (s *SharingService) liveGroupByPIN(ctx context.Context, pin string) (*sharedomain.Share, error) {
	sh, err := s.shares.GetByPIN(ctx, pin)
	if err != nil {
		return nil, err
	}
	if sh == nil {
		return nil, ErrGroupNotFound
	}
	live, err := s.members(ctx, sh)
	if err != nil {
		return nil, err
	}
	if len(live) == 0 {
		if _, err := s.Clean(ctx, sh); err != nil {
			return nil, err
		}
		return nil, ErrGroupNotFound
	}
	return sh, nil
}

// AdoptRequest asks a group to absorb the broadcaster of an adoptable solo share.
type AdoptRequest struct {
	// SessionID is the requesting member of the group.
	SessionID string
	// ShareID is the solo share to adopt.
	ShareID string
	// Nickname names the adopted broadcaster within the group.
	Nickname string
	PIN      string
}

// Adopt adds the host of an adoptable solo share to a group the requester belongs to.
// The solo share stays live; its host now also feeds the group.
func (s *SharingService) Adopt(ctx context.Context, req AdoptRequest) error {
	req.Nickname = strings.TrimSpace(req.Nickname)
	if req.Nickname == "" {
		return fmt.Errorf("%w: nickname is required", ErrInvalidArgument)
	}
	requester, err := s.liveSession(ctx, req.SessionID)
	if err != nil {
		return err
	}
	if requester == nil {
		return ErrSessionNotFound
	}
	solo, err := s.shares.Get(ctx, req.ShareID)
	if err != nil {
		return err
	}
	if solo == nil {
		return ErrShareNotFound
	}
	if !solo.IsAdoptable() {
		return ErrNotAdoptable
	}
	adoptee, err := s.liveSession(ctx, solo.Host())
	if err != nil {
		return err
	}
	if adoptee == nil {
		return ErrShareNotFound
	}
	group, err := s.liveGroupByPIN(ctx, strings.TrimSpace(req.PIN))
	if err != nil {
		return err
	}
	if !hasHost(group, requester.ID) {
		return ErrNotGroupMember
	}

	if err := s.AddHost(ctx, group, req.Nickname, adoptee.ID); err != nil {
		return err
	}
	if err := s.shares.Save(ctx, group); err != nil {
		return err
	}
	adoptee.AddTarget(group.ID)
	if err := s.sessions.Save(ctx, adoptee); err != nil {
		return err
	}
	s.emit(telemetrydomain.EventShareAdopted, group.ID, adoptee.ID, map[string]any{"solo_share": solo.ID, "nickname": req.Nickname})
	return nil
}

func hasHost(sh *sharedomain.Share, sessionID string) bool {
	return slices.Contains(sh.HostIDs(), sessionID)
}
