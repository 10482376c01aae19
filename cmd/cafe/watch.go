package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/brewco/cafe/internal/events"
	"github.com/brewco/cafe/internal/model"
	"github.com/brewco/cafe/internal/shopstatus"
	"github.com/brewco/cafe/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Follow the shop status live",
	GroupID: "status",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		via, _ := cmd.Flags().GetString("via")
		natsURL, _ := cmd.Flags().GetString("nats")
		noReconnect, _ := cmd.Flags().GetBool("no-reconnect")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts := []shopstatus.Option{
			shopstatus.WithRowID(rowID),
			shopstatus.WithLogger(cliLogger()),
			shopstatus.WithOnChange(stateLine(cmd.OutOrStdout())),
		}
		if noReconnect {
			opts = append(opts, shopstatus.WithoutReconnect())
		}

		if via == "" {
			via = "sse"
			if transport == "grpc" {
				via = "grpc"
			}
		}
		switch via {
		case "sse":
			return watchFeed(ctx, shopstatus.NewSubscriber(statusClient, apiClient, opts...), nil)
		case "grpc":
			if transport != "grpc" {
				return fmt.Errorf("--via grpc needs --transport grpc")
			}
			return watchFeed(ctx, shopstatus.NewSubscriber(statusClient, statusClient, opts...), nil)
		case "nats":
			return watchNATS(ctx, natsURL, opts)
		default:
			return fmt.Errorf("unknown feed %q (must be sse, grpc or nats)", via)
		}
	},
}

// watchFeed mounts s until ctx is done. Each signal on remount re-reads the
// row by mounting again.
func watchFeed(ctx context.Context, s *shopstatus.Subscriber, remount <-chan struct{}) error {
	if err := s.Mount(ctx); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			s.Unmount()
			return nil
		case <-remount:
			s.Unmount()
			if err := s.Mount(ctx); err != nil {
				return err
			}
		}
	}
}

// watchNATS follows the bus directly. Events published while the connection
// was down are lost, so a reconnect triggers a fresh read.
func watchNATS(ctx context.Context, natsURL string, opts []shopstatus.Option) error {
	if natsURL == "" {
		return fmt.Errorf("--via nats needs --nats or CAFE_NATS_URL")
	}
	logger := cliLogger()
	reconnectCh := make(chan struct{}, 1)

	bus, err := events.NewNATSSubscriber(natsURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats: disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Warn("nats: reconnected")
			select {
			case reconnectCh <- struct{}{}:
			default:
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer bus.Close()

	s := shopstatus.NewSubscriber(statusClient, shopstatus.NewEventFeed(bus), opts...)
	return watchFeed(ctx, s, reconnectCh)
}

// stateLine prints one line per display state transition.
func stateLine(w io.Writer) func(model.DisplayState) {
	return func(d model.DisplayState) {
		now := time.Now()
		if jsonOutput {
			_ = printJSON(w, map[string]any{
				"time":  now.Format(time.RFC3339),
				"state": d.String(),
			})
			return
		}
		fmt.Fprintf(w, "%s  %s\n", ui.RenderMuted(now.Format("15:04:05")), ui.RenderState(d))
	}
}

func defaultNATSURL() string {
	if s := os.Getenv("CAFE_NATS_URL"); s != "" {
		return s
	}
	return currentRemote().NATSURL
}

func init() {
	watchCmd.Flags().String("via", "", "change feed: sse, grpc or nats (default follows --transport)")
	watchCmd.Flags().String("nats", defaultNATSURL(), "NATS URL for --via nats")
	watchCmd.Flags().Bool("no-reconnect", false, "stay stale after the stream drops instead of retrying")
}
