package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	locationv1 "github.com/00aj99/Hauk/api/location/v1"
	"github.com/00aj99/Hauk/internal/expiry"
	"github.com/00aj99/Hauk/internal/idgen"
	"github.com/00aj99/Hauk/internal/kv"
	sessiondomain "github.com/00aj99/Hauk/internal/session/domain"
	"github.com/00aj99/Hauk/internal/sharing/service"
)

// maxSeconds is the largest seconds count that converts to a time.Duration without overflow.
const maxSeconds = int64(math.MaxInt64 / int64(time.Second))

// Sharing is the subset of *service.SharingService the handlers call.
type Sharing interface {
	Create(ctx context.Context, req service.CreateRequest) (*service.CreateResult, error)
	PostLocation(ctx context.Context, sessionID string, p sessiondomain.Point) ([]string, error)
	Adopt(ctx context.Context, req service.AdoptRequest) error
	EndSession(ctx context.Context, sessionID string) error
	Fetch(ctx context.Context, shareID string) (*service.View, error)
}

// Server implements LocationService for broadcasting devices.
type Server struct {
	locationv1.UnimplementedLocationServiceServer
	sharing Sharing
}

// NewServer returns a LocationService server. If sharing is nil, all RPCs return Unimplemented.
func NewServer(sharing Sharing) *Server {
	return &Server{sharing: sharing}
}

// Create starts a session in one of the three create modes.
func (s *Server) Create(ctx context.Context, req *locationv1.CreateRequest) (*locationv1.CreateResponse, error) {
	if s.sharing == nil {
		return nil, status.Error(codes.Unimplemented, "method Create not implemented")
	}
	var mode service.Mode
	switch req.Mode {
	case locationv1.CreateMode_CREATE_ALONE:
		mode = service.ModeAlone
	case locationv1.CreateMode_CREATE_GROUP:
		mode = service.ModeCreateGroup
	case locationv1.CreateMode_JOIN_GROUP:
		mode = service.ModeJoinGroup
	default:
		return nil, status.Errorf(codes.InvalidArgument, "unknown mode %d", req.Mode)
	}
	if req.Duration <= 0 || req.Interval <= 0 {
		return nil, status.Error(codes.InvalidArgument, "duration and interval must be positive")
	}
	if req.Duration > maxSeconds {
		return nil, status.Errorf(codes.InvalidArgument, "duration %d out of range", req.Duration)
	}
	res, err := s.sharing.Create(ctx, service.CreateRequest{
		Mode:      mode,
		Duration:  time.Duration(req.Duration) * time.Second,
		Interval:  time.Duration(req.Interval) * time.Second,
		Nickname:  req.Nickname,
		PIN:       req.GroupPin,
		Adoptable: req.Adoptable,
	})
	if err != nil {
		return nil, statusFromError("create", err)
	}
	return &locationv1.CreateResponse{
		SessionId: res.SessionID,
		ShareId:   res.ShareID,
		ViewUrl:   res.ViewURL,
		GroupPin:  res.PIN,
		Expire:    res.Expire,
		Interval:  int32(res.Interval),
	}, nil
}

// PostLocation appends a location fix to the session.
func (s *Server) PostLocation(ctx context.Context, req *locationv1.PostLocationRequest) (*locationv1.PostLocationResponse, error) {
	if s.sharing == nil {
		return nil, status.Error(codes.Unimplemented, "method PostLocation not implemented")
	}
	sessionID := strings.TrimSpace(req.SessionId)
	if sessionID == "" {
		return nil, status.Error(codes.InvalidArgument, "session_id required")
	}
	targets, err := s.sharing.PostLocation(ctx, sessionID, sessiondomain.Point{
		Lat:      req.Lat,
		Lon:      req.Lon,
		Time:     req.Time,
		Accuracy: req.Accuracy,
		Speed:    req.Speed,
	})
	if err != nil {
		return nil, statusFromError("post location", err)
	}
	return &locationv1.PostLocationResponse{ShareIds: targets}, nil
}

// Adopt adds an adoptable solo broadcaster to the caller's group.
func (s *Server) Adopt(ctx context.Context, req *locationv1.AdoptRequest) (*locationv1.AdoptResponse, error) {
	if s.sharing == nil {
		return nil, status.Error(codes.Unimplemented, "method Adopt not implemented")
	}
	if strings.TrimSpace(req.SessionId) == "" || strings.TrimSpace(req.ShareId) == "" {
		return nil, status.Error(codes.InvalidArgument, "session_id and share_id required")
	}
	err := s.sharing.Adopt(ctx, service.AdoptRequest{
		SessionID: strings.TrimSpace(req.SessionId),
		ShareID:   strings.TrimSpace(req.ShareId),
		Nickname:  req.Nickname,
		PIN:       req.GroupPin,
	})
	if err != nil {
		return nil, statusFromError("adopt", err)
	}
	return &locationv1.AdoptResponse{}, nil
}

// Stop ends the session and tears down or prunes the shares it feeds.
func (s *Server) Stop(ctx context.Context, req *locationv1.StopRequest) (*locationv1.StopResponse, error) {
	if s.sharing == nil {
		return nil, status.Error(codes.Unimplemented, "method Stop not implemented")
	}
	sessionID := strings.TrimSpace(req.SessionId)
	if sessionID == "" {
		return nil, status.Error(codes.InvalidArgument, "session_id required")
	}
	if err := s.sharing.EndSession(ctx, sessionID); err != nil {
		return nil, statusFromError("stop", err)
	}
	return &locationv1.StopResponse{}, nil
}

// Fetch returns the viewer payload of a share.
func (s *Server) Fetch(ctx context.Context, req *locationv1.FetchRequest) (*locationv1.FetchResponse, error) {
	if s.sharing == nil {
		return nil, status.Error(codes.Unimplemented, "method Fetch not implemented")
	}
	shareID := strings.TrimSpace(req.ShareId)
	if shareID == "" {
		return nil, status.Error(codes.InvalidArgument, "share_id required")
	}
	view, err := s.sharing.Fetch(ctx, shareID)
	if err != nil {
		return nil, statusFromError("fetch", err)
	}
	resp, err := ToFetchResponse(view)
	if err != nil {
		return nil, statusFromError("fetch", err)
	}
	return resp, nil
}

// ToFetchResponse renders a view as the viewer payload.
func ToFetchResponse(v *service.View) (*locationv1.FetchResponse, error) {
	var points any = v.Points
	if v.Members != nil {
		points = v.Members
	}
	if v.Points == nil && v.Members == nil {
		points = []sessiondomain.Point{}
	}
	raw, err := json.Marshal(points)
	if err != nil {
		return nil, err
	}
	return &locationv1.FetchResponse{
		Type:       int32(v.Type),
		Expire:     v.Expire,
		ServerTime: float64(v.ServerTime.UnixMilli()) / 1000,
		Interval:   int32(v.Interval),
		Points:     raw,
	}, nil
}

// statusFromError maps service, store and invariant errors to gRPC status codes.
// Unclassified errors are logged and reported as Internal without detail.
func statusFromError(op string, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrShareNotFound),
		errors.Is(err, service.ErrGroupNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrNotAdoptable), errors.Is(err, expiry.ErrInvariant):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, service.ErrNotGroupMember):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, kv.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		log.Printf("sharing: %s: %v", op, err)
		return status.Error(codes.Unavailable, "storage unavailable")
	case errors.Is(err, idgen.ErrCollisionExhausted):
		log.Printf("sharing: %s: %v", op, err)
		return status.Error(codes.ResourceExhausted, "no free identifier, retry later")
	default:
		log.Printf("sharing: %s: %v", op, err)
		return status.Error(codes.Internal, "internal error")
	}
}
