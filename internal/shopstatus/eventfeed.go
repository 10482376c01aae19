package shopstatus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/brewco/cafe/internal/events"
	"github.com/brewco/cafe/internal/model"
)

// EventFeed is a ChangeFeed over the event bus. Each Subscribe opens its own
// bus subscription.
type EventFeed struct {
	bus    events.Subscriber
	logger *slog.Logger
}

var _ ChangeFeed = (*EventFeed)(nil)

// NewEventFeed wraps a bus subscriber (normally an *events.NATSSubscriber).
func NewEventFeed(bus events.Subscriber) *EventFeed {
	return &EventFeed{bus: bus, logger: slog.Default()}
}

// Subscribe follows the topic for (table, filter). Only the status table is
// decodable into ChangeEvents. The stream ends when ctx is done or Close is called.
func (f *EventFeed) Subscribe(ctx context.Context, table string, filter model.EventFilter) (Subscription, error) {
	if err := ValidateFeed(table, filter); err != nil {
		return nil, fmt.Errorf("event feed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	topic := events.TopicFor(table, filter)
	raw, cancel, err := f.bus.Subscribe(topic)
	if err != nil {
		return nil, fmt.Errorf("event feed: %w", err)
	}

	s := &eventSubscription{
		events: make(chan model.ChangeEvent, 16),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.run(ctx, raw, cancel, f.logger)
	return s, nil
}

// ValidateFeed checks that (table, filter) names a stream of status changes,
// the only table whose events decode into ChangeEvents.
func ValidateFeed(table string, filter model.EventFilter) error {
	if table != model.TableStatus {
		return fmt.Errorf("unsupported table %q", table)
	}
	if !filter.IsValid() {
		return fmt.Errorf("invalid filter %q", filter)
	}
	return nil
}

type eventSubscription struct {
	events chan model.ChangeEvent
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
}

func (s *eventSubscription) Events() <-chan model.ChangeEvent { return s.events }

func (s *eventSubscription) Close() error {
	s.once.Do(func() { close(s.stop) })
	<-s.done
	return nil
}

func (s *eventSubscription) run(ctx context.Context, raw <-chan []byte, cancel func(), logger *slog.Logger) {
	defer close(s.done)
	defer close(s.events)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case data, ok := <-raw:
			if !ok {
				return
			}
			ce, err := events.ChangeEventOf(data)
			if err != nil {
				logger.Warn("event feed: undecodable status event", "error", err)
				continue
			}
			select {
			case s.events <- ce:
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			}
		}
	}
}
