package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"

	sessiondomain "github.com/00aj99/Hauk/internal/session/domain"
	sharedomain "github.com/00aj99/Hauk/internal/share/domain"
	telemetrydomain "github.com/00aj99/Hauk/internal/telemetry/domain"
)

// ValidatePoint checks that every field is finite and coordinates are in range.
func ValidatePoint(p sessiondomain.Point) error {
	for _, f := range []struct {
		name string
		v    *float64
	}{{"latitude", &p.Lat}, {"longitude", &p.Lon}, {"time", &p.Time}, {"accuracy", p.Accuracy}, {"speed", p.Speed}} {
		if f.v != nil && (math.IsNaN(*f.v) || math.IsInf(*f.v, 0)) {
			return fmt.Errorf("%w: %s is not a finite number", ErrInvalidArgument, f.name)
		}
	}
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidArgument, p.Lat)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidArgument, p.Lon)
	}
	if p.Accuracy != nil && *p.Accuracy < 0 {
		return fmt.Errorf("%w: negative accuracy", ErrInvalidArgument)
	}
	if p.Speed != nil && *p.Speed < 0 {
		return fmt.Errorf("%w: negative speed", ErrInvalidArgument)
	}
	return nil
}

// PostLocation appends p to the session's history and returns the share IDs it feeds.
func (s *SharingService) PostLocation(ctx context.Context, sessionID string, p sessiondomain.Point) ([]string, error) {
	if err := ValidatePoint(p); err != nil {
		return nil, err
	}
	sess, err := s.liveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	sess.AddPoint(p, s.limits.MaxPoints)
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	s.emit(telemetrydomain.EventLocationPosted, "", sess.ID, map[string]any{"points": len(sess.Points)})
	return sess.Targets, nil
}

// EndSession deletes the session, ends the solo shares it hosts and removes it
// from its groups. Failures on individual targets are collected; the rest still run.
func (s *SharingService) EndSession(ctx context.Context, sessionID string) error {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrSessionNotFound
	}
	if err := s.sessions.Delete(ctx, sess.ID); err != nil {
		return err
	}
	var errs []error
	for _, target := range sess.Targets {
		if err := s.detach(ctx, target, sess.ID); err != nil {
			log.Printf("sharing: end session %s: target %s: %v", sessiondomain.Ref(sess.ID), target, err)
			errs = append(errs, err)
		}
	}
	s.emit(telemetrydomain.EventSessionEnded, "", sess.ID, map[string]any{"targets": len(sess.Targets)})
	return errors.Join(errs...)
}

// detach removes a departed session from one of its target shares.
func (s *SharingService) detach(ctx context.Context, shareID, sessionID string) error {
	sh, err := s.shares.Get(ctx, shareID)
	if err != nil || sh == nil {
		return err
	}
	switch sh.Type {
	case sharedomain.TypeSolo:
		if sh.Host() != sessionID {
			return nil
		}
		return s.EndShare(ctx, sh)
	case sharedomain.TypeGroup:
		sh.RemoveHost(sessionID)
		_, err := s.Clean(ctx, sh)
		return err
	}
	return nil
}

// EndShare deletes a share and, for groups, its PIN.
func (s *SharingService) EndShare(ctx context.Context, sh *sharedomain.Share) error {
	if err := s.shares.Delete(ctx, sh); err != nil {
		return err
	}
	s.emit(telemetrydomain.EventShareEnded, sh.ID, sh.Host(), map[string]any{"type": sh.Type.String()})
	return nil
}
