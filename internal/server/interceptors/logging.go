package interceptors

import (
	"context"
	"log"
	"net"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// LoggingUnary returns a unary server interceptor that logs one line per failed RPC.
// Successful calls are not logged; skipMethods are never logged (e.g. health checks).
func LoggingUnary(skipMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if err == nil || skipMethods[info.FullMethod] {
			return resp, err
		}
		code := status.Code(err)
		if code == codes.NotFound || code == codes.InvalidArgument {
			return resp, err
		}
		requestID, _ := GetRequestID(ctx)
		log.Printf("grpc: %s code=%s duration=%s client=%s request_id=%s: %v",
			info.FullMethod, code, time.Since(start).Round(time.Millisecond), ClientIP(ctx), requestID, status.Convert(err).Message())
		return resp, err
	}
}

// ClientIP returns the client IP from gRPC metadata (x-forwarded-for, x-real-ip) or peer, or "unknown".
func ClientIP(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get("x-forwarded-for"); len(vals) > 0 {
			first, _, _ := strings.Cut(vals[0], ",")
			if s := strings.TrimSpace(first); s != "" {
				return s
			}
		}
		if vals := md.Get("x-real-ip"); len(vals) > 0 {
			if s := strings.TrimSpace(vals[0]); s != "" {
				return s
			}
		}
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		if host, _, err := net.SplitHostPort(p.Addr.String()); err == nil {
			return host
		}
		return p.Addr.String()
	}
	return "unknown"
}
