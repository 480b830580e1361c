package server

import (
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	locationv1 "github.com/00aj99/Hauk/api/location/v1"
	healthhandler "github.com/00aj99/Hauk/internal/health/handler"
	"github.com/00aj99/Hauk/internal/server/interceptors"
	sharinghandler "github.com/00aj99/Hauk/internal/sharing/handler"
	"github.com/00aj99/Hauk/internal/telemetry"
)

// Deps holds the dependencies of the gRPC services.
type Deps struct {
	// Sharing backs LocationService. If nil, its RPCs return Unimplemented.
	Sharing sharinghandler.Sharing
	// HealthPinger is pinged by the health service (e.g. the key-value store). If nil, Check skips the ping.
	HealthPinger healthhandler.Pinger
	// Emitter receives one grpc_request event per RPC. If nil, no events are emitted.
	Emitter telemetry.EventEmitter
	// RequestTimeout bounds each RPC's store work. Zero leaves RPCs unbounded.
	RequestTimeout time.Duration
}

// quietMethods are neither logged nor emitted as telemetry.
var quietMethods = map[string]bool{
	healthpb.Health_Check_FullMethodName: true,
	healthpb.Health_Watch_FullMethodName: true,
}

// NewGRPCServer returns a server with the interceptor chain and OTel stats handler installed
// and every service registered.
func NewGRPCServer(deps Deps, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			interceptors.RequestIDUnary(),
			interceptors.DeadlineUnary(deps.RequestTimeout),
			interceptors.LoggingUnary(quietMethods),
			interceptors.TelemetryUnary(deps.Emitter, quietMethods),
		),
	}, opts...)
	s := grpc.NewServer(opts...)
	RegisterServices(s, deps)
	return s
}

// RegisterServices registers all gRPC services with the given server.
//
// Service → handler mapping:
//   - LocationService → internal/sharing/handler
//   - grpc.health.v1.Health → internal/health/handler
func RegisterServices(s grpc.ServiceRegistrar, deps Deps) {
	locationv1.RegisterLocationServiceServer(s, sharinghandler.NewServer(deps.Sharing))
	healthpb.RegisterHealthServer(s, healthhandler.NewServer(deps.HealthPinger, locationv1.LocationService_ServiceDesc.ServiceName))
}
