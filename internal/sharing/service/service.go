// Package service composes sessions and shares into the create, push, adopt,
// stop and fetch flows, and keeps group shares consistent with their members.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	sessiondomain "github.com/00aj99/Hauk/internal/session/domain"
	sharedomain "github.com/00aj99/Hauk/internal/share/domain"
	"github.com/00aj99/Hauk/internal/telemetry"
	telemetrydomain "github.com/00aj99/Hauk/internal/telemetry/domain"
)

// Sentinel errors; handlers map them to gRPC codes and HTTP statuses.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrSessionNotFound = errors.New("session not found or expired")
	ErrShareNotFound   = errors.New("share not found or expired")
	ErrGroupNotFound   = errors.New("group not found or expired")
	ErrNotAdoptable    = errors.New("share cannot be adopted")
	ErrNotGroupMember  = errors.New("session is not a member of the group")
)

// eventSource is the source attribute of every event this package emits.
const eventSource = "sharing"

// Limits bounds what clients may request.
type Limits struct {
	// MaxDuration is the longest a share may run.
	MaxDuration time.Duration
	// MinInterval is the shortest allowed push interval.
	MinInterval time.Duration
	// MaxPoints caps each session's point history.
	MaxPoints int
	// PublicURL is the viewer base; view links are PublicURL + "?" + share ID.
	PublicURL string
}

// ViewURL returns the public link for shareID.
func (l Limits) ViewURL(shareID string) string {
	return strings.TrimSpace(l.PublicURL) + "?" + shareID
}

// SessionRepo is the session persistence needed by the sharing service.
type SessionRepo interface {
	Get(ctx context.Context, id string) (*sessiondomain.Session, error)
	Save(ctx context.Context, s *sessiondomain.Session) error
	Delete(ctx context.Context, id string) error
}

// ShareRepo is the share persistence needed by the sharing service.
type ShareRepo interface {
	Get(ctx context.Context, id string) (*sharedomain.Share, error)
	GetByPIN(ctx context.Context, pin string) (*sharedomain.Share, error)
	Save(ctx context.Context, sh *sharedomain.Share) error
	Delete(ctx context.Context, sh *sharedomain.Share) error
}

// IDGenerator issues unused identifiers.
type IDGenerator interface {
	NewShareID(ctx context.Context) (string, error)
	NewSessionID(ctx context.Context) (string, error)
	NewGroupPIN(ctx context.Context) (string, error)
}

// SharingService implements the sharing flows over the session and share repositories.
type SharingService struct {
	sessions SessionRepo
	shares   ShareRepo
	ids      IDGenerator
	limits   Limits
	emitter  telemetry.EventEmitter
	nowF     func() time.Time
}

// Option customizes a SharingService.
type Option func(*SharingService)

// WithClock overrides the wall clock. It must agree with the repositories' clock.
func WithClock(now func() time.Time) Option {
	return func(s *SharingService) { s.nowF = now }
}

// WithEmitter publishes lifecycle events to e. Events are fire-and-forget.
func WithEmitter(e telemetry.EventEmitter) Option {
	return func(s *SharingService) { s.emitter = e }
}

// NewSharingService returns a SharingService with the given dependencies.
func NewSharingService(sessions SessionRepo, shares ShareRepo, ids IDGenerator, limits Limits, opts ...Option) *SharingService {
	s := &SharingService{
		sessions: sessions,
		shares:   shares,
		ids:      ids,
		limits:   limits,
		nowF:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Limits returns the configured limits.
func (s *SharingService) Limits() Limits { return s.limits }

func (s *SharingService) emit(eventType, shareID, sessionID string, metadata any) {
	if s.emitter == nil {
		return
	}
	event := telemetrydomain.NewEvent(eventType, eventSource, s.nowF())
	event.ShareID = shareID
	event.SessionRef = sessiondomain.Ref(sessionID)
	if metadata != nil {
		event.WithMetadata(metadata)
	}
	telemetry.EmitAsync(s.emitter, event)
}

// liveSession loads a session and treats an expired record as absent.
func (s *SharingService) liveSession(ctx context.Context, id string) (*sessiondomain.Session, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil || sess == nil {
		return nil, err
	}
	if sess.HasExpired(s.nowF()) {
		return nil, nil
	}
	return sess, nil
}
