package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/brewco/cafe/internal/events"
	"github.com/brewco/cafe/internal/model"
	"github.com/brewco/cafe/internal/presence"
	"github.com/brewco/cafe/internal/statusrpc"
)

// NewGRPCServer creates a gRPC server with standard interceptors,
// registers the StatusService and the standard health service, and returns
// the server ready to serve.
func NewGRPCServer(cafeServer *CafeServer, authToken string) *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor,
			LoggingInterceptor,
			AuthInterceptor(authToken),
		),
		grpc.ChainStreamInterceptor(
			RecoveryStreamInterceptor,
			LoggingStreamInterceptor,
			AuthStreamInterceptor(authToken),
		),
	)

	statusrpc.RegisterStatusServiceServer(srv, cafeServer)

	hs := health.NewServer()
	hs.SetServingStatus(statusrpc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	return srv
}

// grpcError maps domain errors onto gRPC status codes.
func grpcError(err error) error {
	var ie inputError
	switch {
	case errors.As(err, &ie):
		return status.Error(codes.InvalidArgument, ie.Error())
	case errors.Is(err, model.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Errorf(codes.Internal, "%v", err)
	}
}

func (s *CafeServer) statusStruct(st *model.ShopStatus) *structpb.Struct {
	out := statusrpc.StatusToStruct(st)
	out.Fields[statusrpc.FieldWithinHours] = structpb.NewBoolValue(s.schedule.OpenAt(time.Now()))
	return out
}

// GetStatus reads a status row.
func (s *CafeServer) GetStatus(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	st, err := s.getStatus(ctx, req.GetValue())
	if err != nil {
		return nil, grpcError(err)
	}
	return s.statusStruct(st), nil
}

// SetStatus writes is_open on a status row and publishes the change.
func (s *CafeServer) SetStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	args, err := statusrpc.ParseSetStatusRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	st, err := s.setStatus(ctx, setStatusInput{ID: args.ID, IsOpen: args.IsOpen, Actor: args.Actor})
	if err != nil {
		return nil, grpcError(err)
	}
	return s.statusStruct(st), nil
}

// WatchStatus streams every committed update of one status row until the
// client goes away. An empty header is sent once the stream is subscribed,
// so a client that waits for headers cannot miss an update.
func (s *CafeServer) WatchStatus(req *wrapperspb.Int64Value, stream statusrpc.WatchStatusServer) error {
	id, err := s.resolveStatusID(req.GetValue())
	if err != nil {
		return grpcError(err)
	}
	ctx := stream.Context()
	topics := []string{events.TopicStatusUpdated}

	client := s.hub.subscribe(topics)
	defer s.hub.unsubscribe(client)

	var remote string
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		remote = p.Addr.String()
	}
	watcher := s.Presence.Register(presence.TransportGRPC, remote, topics)
	defer s.Presence.Unregister(watcher)

	if err := stream.SendHeader(metadata.MD{}); err != nil {
		return err
	}

	keepalive := time.NewTicker(sseKeepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-keepalive.C:
			s.Presence.Touch(watcher)
		case evt, ok := <-client.ch:
			if !ok {
				return status.Error(codes.ResourceExhausted, "watcher fell behind; resubscribe")
			}
			var ev events.StatusUpdated
			if err := json.Unmarshal(evt.Data, &ev); err != nil || ev.Status == nil {
				slog.Warn("watch: undecodable status event", "event_id", evt.ID, "error", err)
				continue
			}
			if ev.Status.ID != id {
				continue
			}
			if err := stream.Send(statusrpc.StatusToStruct(ev.Status)); err != nil {
				return err
			}
			s.Presence.Delivered(watcher)
		}
	}
}

// Health returns the service health status.
func (s *CafeServer) Health(_ context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return wrapperspb.String("ok"), nil
}
