// Package handler reports readiness over the standard gRPC health protocol and HTTP.
package handler

import (
	"context"
	"log"
	"time"

	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// pingTimeout bounds a single readiness probe.
const pingTimeout = 2 * time.Second

// Pinger checks a dependency, e.g. the key-value store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server implements grpc.health.v1.Health. Check reports SERVING only while the store answers pings.
type Server struct {
	healthpb.UnimplementedHealthServer
	pinger   Pinger
	services map[string]bool
}

// NewServer returns a health server for the named services. The empty name
// (overall health) is always known. If pinger is nil, Check skips the store ping.
func NewServer(pinger Pinger, services ...string) *Server {
	known := map[string]bool{"": true}
	for _, s := range services {
		known[s] = true
	}
	return &Server{pinger: pinger, services: known}
}

// Check pings the store and reports SERVING or NOT_SERVING. Unknown services get NotFound.
func (s *Server) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if !s.services[req.GetService()] {
		return nil, status.Errorf(codes.NotFound, "unknown service %q", req.GetService())
	}
	if err := s.ping(ctx); err != nil {
		log.Printf("health: store ping failed: %v", err)
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}

func (s *Server) ping(ctx context.Context) error {
	if s.pinger == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return s.pinger.Ping(ctx)
}
