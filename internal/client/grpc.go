package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/brewco/cafe/internal/model"
	"github.com/brewco/cafe/internal/shopstatus"
	"github.com/brewco/cafe/internal/statusrpc"
)

// GRPCClient implements StatusClient using the gRPC transport.
type GRPCClient struct {
	conn     *grpc.ClientConn
	rpc      *statusrpc.StatusServiceClient
	watchRow int64
	logger   *slog.Logger
}

// NewGRPCClient connects to the given gRPC address and returns a client.
// When token is non-empty it is sent as a bearer token on every call.
// Extra dial options are appended (tests pass a bufconn dialer).
func NewGRPCClient(addr, token string, opts ...grpc.DialOption) (*GRPCClient, error) {
	dial := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	if token != "" {
		dial = append(dial,
			grpc.WithChainUnaryInterceptor(bearerUnary(token)),
			grpc.WithChainStreamInterceptor(bearerStream(token)),
		)
	}
	conn, err := grpc.NewClient(addr, append(dial, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	return &GRPCClient{
		conn:   conn,
		rpc:    statusrpc.NewStatusServiceClient(conn),
		logger: slog.Default(),
	}, nil
}

// WithLogger sets the logger used by watch streams.
func (c *GRPCClient) WithLogger(l *slog.Logger) *GRPCClient {
	if l != nil {
		c.logger = l
	}
	return c
}

// WatchRow selects the status row Subscribe follows. Zero, the default, is
// the server's configured row.
func (c *GRPCClient) WatchRow(id int64) *GRPCClient {
	c.watchRow = id
	return c
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func (c *GRPCClient) Read(ctx context.Context, id int64) (*model.ShopStatus, error) {
	resp, err := c.rpc.GetStatus(ctx, wrapperspb.Int64(id))
	if err != nil {
		return nil, rpcError(err)
	}
	return statusrpc.StatusFromStruct(resp)
}

func (c *GRPCClient) Update(ctx context.Context, id int64, isOpen bool) error {
	_, err := c.SetStatus(ctx, id, isOpen, "")
	return err
}

// SetStatus writes is_open and returns the updated row.
func (c *GRPCClient) SetStatus(ctx context.Context, id int64, isOpen bool, actor string) (*model.ShopStatus, error) {
	resp, err := c.rpc.SetStatus(ctx, statusrpc.SetStatusRequest(id, isOpen, actor))
	if err != nil {
		return nil, rpcError(err)
	}
	return statusrpc.StatusFromStruct(resp)
}

func (c *GRPCClient) Health(ctx context.Context) (string, error) {
	resp, err := c.rpc.Health(ctx, &emptypb.Empty{})
	if err != nil {
		return "", rpcError(err)
	}
	return resp.GetValue(), nil
}

// Subscribe opens a WatchStatus stream. WatchStatus only carries updates,
// so INSERT and DELETE filters are rejected. It returns once the server has
// registered the watch.
func (c *GRPCClient) Subscribe(ctx context.Context, table string, filter model.EventFilter) (shopstatus.Subscription, error) {
	if err := shopstatus.ValidateFeed(table, filter); err != nil {
		return nil, fmt.Errorf("grpc subscribe: %w", err)
	}
	if filter != model.EventUpdate && filter != model.EventAll {
		return nil, fmt.Errorf("grpc subscribe: filter %q not supported by WatchStatus", filter)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	stream, err := c.rpc.WatchStatus(streamCtx, wrapperspb.Int64(c.watchRow))
	if err != nil {
		cancel()
		return nil, rpcError(err)
	}
	if _, err := stream.Header(); err != nil {
		cancel()
		return nil, rpcError(err)
	}

	s := &grpcSubscription{
		events: make(chan model.ChangeEvent, 16),
		cancel: cancel,
		done:   make(chan struct{}),
		logger: c.logger,
	}
	go s.run(streamCtx, stream)
	return s, nil
}

type grpcSubscription struct {
	events chan model.ChangeEvent
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

func (s *grpcSubscription) Events() <-chan model.ChangeEvent { return s.events }

func (s *grpcSubscription) Close() error {
	s.once.Do(s.cancel)
	<-s.done
	return nil
}

func (s *grpcSubscription) run(ctx context.Context, stream statusrpc.WatchStatusClient) {
	defer close(s.done)
	defer close(s.events)

	for {
		msg, err := stream.Recv()
		if err != nil {
			if !errors.Is(err, io.EOF) && status.Code(err) != codes.Canceled {
				s.logger.Debug("grpc watch: stream ended", "error", err)
			}
			return
		}
		st, err := statusrpc.StatusFromStruct(msg)
		if err != nil {
			s.logger.Warn("grpc watch: undecodable status", "error", err)
			continue
		}
		select {
		case s.events <- model.ChangeEvent{ID: st.ID, IsOpen: st.IsOpen, UpdatedAt: st.UpdatedAt}:
		case <-ctx.Done():
			return
		}
	}
}

// rpcError wraps NotFound so callers can test with errors.Is(err, model.ErrNotFound).
func rpcError(err error) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%s: %w", status.Convert(err).Message(), model.ErrNotFound)
	}
	return err
}

func withBearer(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
}

func bearerUnary(token string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		return invoker(withBearer(ctx, token), method, req, reply, cc, opts...)
	}
}

func bearerStream(token string) grpc.StreamClientInterceptor {
	return func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
		return streamer(withBearer(ctx, token), desc, cc, method, opts...)
	}
}
