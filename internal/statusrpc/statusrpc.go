// Package statusrpc describes the cafe.v1.StatusService gRPC service.
//
// The service is small enough that its messages are the protobuf well-known
// types (Struct, Int64Value, StringValue, Empty), so the descriptor and the
// client stub are written by hand instead of generated from a .proto file.
package statusrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "cafe.v1.StatusService"

// Full method names, as seen by interceptors.
const (
	GetStatusMethod   = "/" + ServiceName + "/GetStatus"
	SetStatusMethod   = "/" + ServiceName + "/SetStatus"
	WatchStatusMethod = "/" + ServiceName + "/WatchStatus"
	HealthMethod      = "/" + ServiceName + "/Health"
)

// StatusServiceServer is the server API for cafe.v1.StatusService.
type StatusServiceServer interface {
	// GetStatus reads a status row. A zero id selects the server's default row.
	GetStatus(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	// SetStatus writes is_open on a status row; see SetStatusRequest.
	SetStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// WatchStatus streams one message per successful update of the row.
	WatchStatus(*wrapperspb.Int64Value, WatchStatusServer) error
	Health(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
}

// WatchStatusServer is the server side of a WatchStatus stream.
type WatchStatusServer interface {
	Send(*structpb.Struct) error
	grpc.ServerStream
}

type watchStatusServer struct {
	grpc.ServerStream
}

func (x *watchStatusServer) Send(m *structpb.Struct) error {
	return x.ServerStream.SendMsg(m)
}

// RegisterStatusServiceServer registers srv on s.
func RegisterStatusServiceServer(s grpc.ServiceRegistrar, srv StatusServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func getStatusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StatusServiceServer).GetStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetStatusMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StatusServiceServer).GetStatus(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

func setStatusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StatusServiceServer).SetStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SetStatusMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StatusServiceServer).SetStatus(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func healthHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StatusServiceServer).Health(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: HealthMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StatusServiceServer).Health(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func watchStatusHandler(srv any, stream grpc.ServerStream) error {
	in := new(wrapperspb.Int64Value)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(StatusServiceServer).WatchStatus(in, &watchStatusServer{stream})
}

// ServiceDesc is the grpc.ServiceDesc for cafe.v1.StatusService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StatusServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetStatus", Handler: getStatusHandler},
		{MethodName: "SetStatus", Handler: setStatusHandler},
		{MethodName: "Health", Handler: healthHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "WatchStatus", Handler: watchStatusHandler, ServerStreams: true},
	},
	Metadata: "cafe/v1/status.proto",
}

// StatusServiceClient is the client API for cafe.v1.StatusService.
type StatusServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewStatusServiceClient wraps a client connection.
func NewStatusServiceClient(cc grpc.ClientConnInterface) *StatusServiceClient {
	return &StatusServiceClient{cc: cc}
}

func (c *StatusServiceClient) GetStatus(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetStatusMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *StatusServiceClient) SetStatus(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, SetStatusMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *StatusServiceClient) Health(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, HealthMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// WatchStatusClient is the client side of a WatchStatus stream.
type WatchStatusClient interface {
	Recv() (*structpb.Struct, error)
	grpc.ClientStream
}

type watchStatusClient struct {
	grpc.ClientStream
}

func (x *watchStatusClient) Recv() (*structpb.Struct, error) {
	m := new(structpb.Struct)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// WatchStatus opens a server stream of status changes for row in.
func (c *StatusServiceClient) WatchStatus(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (WatchStatusClient, error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], WatchStatusMethod, opts...)
	if err != nil {
		return nil, err
	}
	x := &watchStatusClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
