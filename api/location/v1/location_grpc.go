package locationv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	LocationService_Create_FullMethodName       = "/hauk.location.v1.LocationService/Create"
	LocationService_PostLocation_FullMethodName = "/hauk.location.v1.LocationService/PostLocation"
	LocationService_Adopt_FullMethodName        = "/hauk.location.v1.LocationService/Adopt"
	LocationService_Stop_FullMethodName         = "/hauk.location.v1.LocationService/Stop"
	LocationService_Fetch_FullMethodName        = "/hauk.location.v1.LocationService/Fetch"
)

// LocationServiceClient is the client API for LocationService.
type LocationServiceClient interface {
	Create(ctx context.Context, in *CreateRequest, opts ...grpc.CallOption) (*CreateResponse, error)
	PostLocation(ctx context.Context, in *PostLocationRequest, opts ...grpc.CallOption) (*PostLocationResponse, error)
	Adopt(ctx context.Context, in *AdoptRequest, opts ...grpc.CallOption) (*AdoptResponse, error)
	Stop(ctx context.Context, in *StopRequest, opts ...grpc.CallOption) (*StopResponse, error)
	Fetch(ctx context.Context, in *FetchRequest, opts ...grpc.CallOption) (*FetchResponse, error)
}

type locationServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewLocationServiceClient returns a client that sends every call with the JSON content-subtype.
func NewLocationServiceClient(cc grpc.ClientConnInterface) LocationServiceClient {
	return &locationServiceClient{cc}
}

func (c *locationServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *locationServiceClient) Create(ctx context.Context, in *CreateRequest, opts ...grpc.CallOption) (*CreateResponse, error) {
	out := new(CreateResponse)
	if err := c.invoke(ctx, LocationService_Create_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *locationServiceClient) PostLocation(ctx context.Context, in *PostLocationRequest, opts ...grpc.CallOption) (*PostLocationResponse, error) {
	out := new(PostLocationResponse)
	if err := c.invoke(ctx, LocationService_PostLocation_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *locationServiceClient) Adopt(ctx context.Context, in *AdoptRequest, opts ...grpc.CallOption) (*AdoptResponse, error) {
	out := new(AdoptResponse)
	if err := c.invoke(ctx, LocationService_Adopt_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *locationServiceClient) Stop(ctx context.Context, in *StopRequest, opts ...grpc.CallOption) (*StopResponse, error) {
	out := new(StopResponse)
	if err := c.invoke(ctx, LocationService_Stop_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *locationServiceClient) Fetch(ctx context.Context, in *FetchRequest, opts ...grpc.CallOption) (*FetchResponse, error) {
	out := new(FetchResponse)
	if err := c.invoke(ctx, LocationService_Fetch_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// LocationServiceServer is the server API for LocationService.
// Implementations must embed UnimplementedLocationServiceServer for forward compatibility.
type LocationServiceServer interface {
	Create(context.Context, *CreateRequest) (*CreateResponse, error)
	PostLocation(context.Context, *PostLocationRequest) (*PostLocationResponse, error)
	Adopt(context.Context, *AdoptRequest) (*AdoptResponse, error)
	Stop(context.Context, *StopRequest) (*StopResponse, error)
	Fetch(context.Context, *FetchRequest) (*FetchResponse, error)
	mustEmbedUnimplementedLocationServiceServer()
}

// UnimplementedLocationServiceServer returns Unimplemented for every method.
type UnimplementedLocationServiceServer struct{}

func (UnimplementedLocationServiceServer) Create(context.Context, *CreateRequest) (*CreateResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Create not implemented")
}
func (UnimplementedLocationServiceServer) PostLocation(context.Context, *PostLocationRequest) (*PostLocationResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method PostLocation not implemented")
}
func (UnimplementedLocationServiceServer) Adopt(context.Context, *AdoptRequest) (*AdoptResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Adopt not implemented")
}
func (UnimplementedLocationServiceServer) Stop(context.Context, *StopRequest) (*StopResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Stop not implemented")
}
func (UnimplementedLocationServiceServer) Fetch(context.Context, *FetchRequest) (*FetchResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Fetch not implemented")
}
func (UnimplementedLocationServiceServer) mustEmbedUnimplementedLocationServiceServer() {}

// RegisterLocationServiceServer registers srv with s.
func RegisterLocationServiceServer(s grpc.ServiceRegistrar, srv LocationServiceServer) {
	s.RegisterService(&LocationService_ServiceDesc, srv)
}

// unaryHandler adapts a typed method to grpc.MethodHandler.
func unaryHandler[Req any, Resp any](fullMethod string, call func(LocationServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LocationServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(LocationServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// LocationService_ServiceDesc is the grpc.ServiceDesc for LocationService.
var LocationService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "hauk.location.v1.LocationService",
	HandlerType: (*LocationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Create",
			Handler:    unaryHandler(LocationService_Create_FullMethodName, LocationServiceServer.Create),
		},
		{
			MethodName: "PostLocation",
			Handler:    unaryHandler(LocationService_PostLocation_FullMethodName, LocationServiceServer.PostLocation),
		},
		{
			MethodName: "Adopt",
			Handler:    unaryHandler(LocationService_Adopt_FullMethodName, LocationServiceServer.Adopt),
		},
		{
			MethodName: "Stop",
			Handler:    unaryHandler(LocationService_Stop_FullMethodName, LocationServiceServer.Stop),
		},
		{
			MethodName: "Fetch",
			Handler:    unaryHandler(LocationService_Fetch_FullMethodName, LocationServiceServer.Fetch),
		},
	},
	Streams: []grpc.StreamDesc{},
}
