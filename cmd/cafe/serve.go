package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/brewco/cafe/internal/config"
	"github.com/brewco/cafe/internal/events"
	"github.com/brewco/cafe/internal/presence"
	"github.com/brewco/cafe/internal/server"
	"github.com/brewco/cafe/internal/store/postgres"
	cafesync "github.com/brewco/cafe/internal/sync"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the cafe HTTP and gRPC server",
	GroupID: "system",
	Args:    cobra.NoArgs,
	// serve is the server; it needs no client connection.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		slog.SetDefault(logger)

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		store, err := postgres.New(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("error closing store", "err", err)
			}
		}()

		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("events disabled (CAFE_NATS_URL not set)")
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("error closing publisher", "err", err)
			}
		}()

		cafeServer := server.NewCafeServer(store, publisher,
			server.WithStatusRowID(cfg.StatusRowID),
			server.WithHeroRowID(cfg.HeroRowID),
			server.WithSchedule(cfg.Schedule()),
		)
		cafeServer.Presence.StartReaper(&presence.ReaperConfig{
			OnDead: func(id, transport string) {
				logger.Warn("evicted stale watcher", "id", id, "transport", transport)
			},
		})
		defer cafeServer.Presence.Stop()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		g, gctx := errgroup.WithContext(ctx)

		grpcServer := server.NewGRPCServer(cafeServer, cfg.AuthToken)
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return err
		}
		g.Go(func() error {
			logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
			return grpcServer.Serve(lis)
		})
		g.Go(func() error {
			<-gctx.Done()
			stopGRPC(grpcServer)
			logger.Info("gRPC server stopped")
			return nil
		})

		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           cafeServer.NewHTTPHandler(cfg.AuthToken),
			ReadHeaderTimeout: 10 * time.Second,
			// Event streams end with the server context.
			BaseContext: func(net.Listener) context.Context { return gctx },
		}
		g.Go(func() error {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("HTTP server shutdown error", "err", err)
			}
			logger.Info("HTTP server stopped")
			return nil
		})

		if cfg.NATSURL != "" {
			bus, err := events.NewNATSSubscriber(cfg.NATSURL)
			if err != nil {
				logger.Error("failed to create relay subscriber", "err", err)
			} else {
				g.Go(func() error {
					defer bus.Close()
					return cafeServer.RunRelay(gctx, bus)
				})
			}
		}

		if scheduler := newSyncScheduler(gctx, cfg, store, logger); scheduler != nil {
			scheduler.Start()
			logger.Info("sync scheduler started", "interval", cfg.SyncInterval)
			g.Go(func() error {
				<-gctx.Done()
				scheduler.Stop()
				logger.Info("sync scheduler stopped")
				return nil
			})
		}

		logger.Info("cafe server started",
			"grpc_addr", cfg.GRPCAddr,
			"http_addr", cfg.HTTPAddr,
			"status_row", cfg.StatusRowID,
			"hours", cfg.Schedule().String(),
			"instance", cafeServer.InstanceID(),
		)

		err = g.Wait()
		logger.Info("shutdown complete")
		return err
	},
}

// stopGRPC drains in-flight calls, then cuts open watch streams that
// outlive the shutdown timeout.
func stopGRPC(s *grpc.Server) {
	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		s.Stop()
	}
}

func newSyncScheduler(ctx context.Context, cfg *config.Config, src cafesync.Source, logger *slog.Logger) *cafesync.Scheduler {
	if cfg.SyncInterval <= 0 {
		return nil
	}
	var dests []cafesync.Destination

	if cfg.SyncS3Bucket != "" {
		s3Dest, err := cafesync.NewS3Destination(ctx, cfg.SyncS3Bucket, cfg.SyncS3Key, cfg.SyncS3Region, cfg.SyncS3Endpoint)
		if err != nil {
			logger.Error("failed to create S3 sync destination", "err", err)
		} else {
			dests = append(dests, s3Dest)
			logger.Info("sync S3 destination enabled", "bucket", cfg.SyncS3Bucket, "key", cfg.SyncS3Key)
		}
	}

	if cfg.SyncGitRepo != "" {
		dests = append(dests, cafesync.NewGitDestination(cfg.SyncGitRepo, cfg.SyncGitFile, cfg.SyncGitBranch))
		logger.Info("sync git destination enabled", "repo", cfg.SyncGitRepo, "file", cfg.SyncGitFile)
	}

	if len(dests) == 0 {
		return nil
	}
	rows := cafesync.Rows{StatusRowID: cfg.StatusRowID, HeroRowID: cfg.HeroRowID}
	return cafesync.NewScheduler(src, rows, dests, cfg.SyncInterval, logger)
}
