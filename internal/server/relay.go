package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/brewco/cafe/internal/events"
)

// RunRelay forwards events published on the bus by other server instances
// into the local hub, so SSE and gRPC watchers connected here see writes
// made anywhere. Events carrying this server's own origin tag were already
// broadcast locally and are skipped. It blocks until ctx is cancelled.
func (s *CafeServer) RunRelay(ctx context.Context, bus events.Subscriber) error {
	var (
		cancels []func()
		wg      sync.WaitGroup
	)
	defer func() {
		for _, cancel := range cancels {
			cancel()
		}
	}()

	for _, topic := range events.Topics {
		ch, cancel, err := bus.Subscribe(topic)
		if err != nil {
			return fmt.Errorf("relay subscribe %s: %w", topic, err)
		}
		cancels = append(cancels, cancel)

		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case data, ok := <-ch:
					if !ok {
						slog.Warn("relay: bus subscription closed", "topic", topic)
						return
					}
					s.relay(topic, data)
				}
			}
		}()
	}
	slog.Info("relay started", "instance", s.instanceID, "topics", len(events.Topics))

	<-ctx.Done()
	wg.Wait()
	return nil
}

func (s *CafeServer) relay(topic string, data []byte) {
	if origin := events.OriginOf(data); origin == s.instanceID {
		return
	}
	s.hub.broadcast(topic, data)
}
