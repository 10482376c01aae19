package server

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/brewco/cafe/internal/model"
	"github.com/brewco/cafe/internal/statusrpc"
)

// startGRPC serves srv over an in-memory listener and returns a client.
func startGRPC(t *testing.T, srv *CafeServer, token string) (*statusrpc.StatusServiceClient, *grpc.ClientConn) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	gs := NewGRPCServer(srv, token)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return statusrpc.NewStatusServiceClient(conn), conn
}

// requireCode asserts that err is a gRPC error with the given status code.
func requireCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected gRPC error with code %v, got nil", code)
	}
	st, ok := status.FromError(err)
	if !ok {
		t.Fatalf("expected gRPC status error, got %v", err)
	}
	if st.Code() != code {
		t.Fatalf("expected code=%v, got %v", code, st.Code())
	}
}

func TestGRPC_GetAndSetStatus(t *testing.T) {
	srv, ms, _ := newTestServer()
	c, _ := startGRPC(t, srv, "")
	ctx := context.Background()

	out, err := c.GetStatus(ctx, wrapperspb.Int64(0))
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	st, err := statusrpc.StatusFromStruct(out)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.ID != 1 || !st.IsOpen {
		t.Fatalf("got %+v, want id=1 open", st)
	}
	if _, ok := out.Fields[statusrpc.FieldWithinHours]; !ok {
		t.Fatal("within_hours missing")
	}

	if _, err := c.SetStatus(ctx, statusrpc.SetStatusRequest(0, false, "owner")); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if got, _ := ms.GetStatus(ctx, 1); got.IsOpen {
		t.Fatal("row still open after SetStatus")
	}
	if ev := ms.lastEvent(); ev == nil || ev.Actor != "owner" {
		t.Fatalf("recorded event = %+v", ev)
	}
}

func TestGRPCErrorCodes(t *testing.T) {
	srv, _, _ := newTestServer()
	c, _ := startGRPC(t, srv, "")
	ctx := context.Background()

	_, err := c.GetStatus(ctx, wrapperspb.Int64(99))
	requireCode(t, err, codes.NotFound)

	_, err = c.GetStatus(ctx, wrapperspb.Int64(-1))
	requireCode(t, err, codes.InvalidArgument)

	_, err = c.SetStatus(ctx, statusrpc.SetStatusRequest(99, true, ""))
	requireCode(t, err, codes.NotFound)

	req := statusrpc.SetStatusRequest(0, true, "")
	delete(req.Fields, statusrpc.FieldIsOpen)
	_, err = c.SetStatus(ctx, req)
	requireCode(t, err, codes.InvalidArgument)
}

func TestGRPC_Health(t *testing.T) {
	srv, _, _ := newTestServer()
	c, conn := startGRPC(t, srv, "secret")

	out, err := c.Health(context.Background(), &emptypb.Empty{})
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if out.GetValue() != "ok" {
		t.Fatalf("Health = %q", out.GetValue())
	}

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(),
		&healthpb.HealthCheckRequest{Service: statusrpc.ServiceName})
	if err != nil {
		t.Fatalf("health check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("health status = %v", resp.GetStatus())
	}
}

func TestGRPC_AuthOnMutationsOnly(t *testing.T) {
	srv, _, _ := newTestServer()
	c, _ := startGRPC(t, srv, "secret")
	ctx := context.Background()

	if _, err := c.GetStatus(ctx, wrapperspb.Int64(0)); err != nil {
		t.Fatalf("GetStatus without token: %v", err)
	}
	_, err := c.SetStatus(ctx, statusrpc.SetStatusRequest(0, false, ""))
	requireCode(t, err, codes.Unauthenticated)

	authed := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer secret")
	if _, err := c.SetStatus(authed, statusrpc.SetStatusRequest(0, false, "")); err != nil {
		t.Fatalf("SetStatus with token: %v", err)
	}
}

func TestGRPC_WatchStatus(t *testing.T) {
	srv, ms, h := newTestServer()
	c, _ := startGRPC(t, srv, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream, err := c.WatchStatus(ctx, wrapperspb.Int64(0))
	if err != nil {
		t.Fatalf("WatchStatus: %v", err)
	}
	if _, err := stream.Header(); err != nil {
		t.Fatalf("Header: %v", err)
	}
	if srv.Presence.Count() != 1 {
		t.Fatalf("watchers = %d, want 1", srv.Presence.Count())
	}

	// Writes to another row must not reach this watcher.
	ms.provision(2, true)
	if _, err := srv.setStatus(ctx, setStatusInput{ID: 2, IsOpen: ptr(false)}); err != nil {
		t.Fatalf("setStatus row 2: %v", err)
	}
	for _, open := range []bool{false, true} {
		requireStatus(t, doJSON(t, h, "PUT", "/v1/status", map[string]any{"is_open": open}), 200)
	}

	for _, want := range []bool{false, true} {
		msg, err := stream.Recv()
		if err != nil {
			t.Fatalf("Recv: %v", err)
		}
		st, err := statusrpc.StatusFromStruct(msg)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if st.ID != model.ShopStatusRowID || st.IsOpen != want {
			t.Fatalf("got %+v, want id=1 is_open=%v", st, want)
		}
	}

	cancel()
	waitFor(t, func() bool { return srv.Presence.Count() == 0 && srv.hub.clientCount() == 0 })
}

func TestGRPC_WatchStatus_ServerStopEndsStream(t *testing.T) {
	srv, _, _ := newTestServer()
	lis := bufconn.Listen(1 << 20)
	gs := NewGRPCServer(srv, "")
	go func() { _ = gs.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	stream, err := statusrpc.NewStatusServiceClient(conn).WatchStatus(context.Background(), wrapperspb.Int64(0))
	if err != nil {
		t.Fatalf("WatchStatus: %v", err)
	}
	if _, err := stream.Header(); err != nil {
		t.Fatalf("Header: %v", err)
	}

	gs.Stop()
	done := make(chan error, 1)
	go func() {
		_, err := stream.Recv()
		done <- err
	}()
	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected stream error after server stop")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not end after server stop")
	}
}

func ptr[T any](v T) *T { return &v }
