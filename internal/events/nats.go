package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
)

// subscriberBuffer bounds the per-subscription queue between the NATS
// client goroutine and the consumer. Messages beyond it are dropped.
const subscriberBuffer = 128

// connect dials url as a named client that keeps reconnecting forever.
// Caller options come last so they can override the defaults.
func connect(url, name string, opts []nats.Option) (*nats.Conn, error) {
	defaults := []nats.Option{
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}
	nc, err := nats.Connect(url, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return nc, nil
}

// NATSPublisher publishes JSON-encoded events to NATS subjects.
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher connects to the bus at url (normally CAFE_NATS_URL).
func NewNATSPublisher(url string, opts ...nats.Option) (*NATSPublisher, error) {
	nc, err := connect(url, "cafe-publisher", opts)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: nc}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, topic string, event any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	if err := p.conn.Publish(topic, data); err != nil {
		return fmt.Errorf("publishing %s: %w", topic, err)
	}
	return nil
}

// closeFlushTimeout bounds how long Close waits for buffered events.
const closeFlushTimeout = 2 * time.Second

// Close flushes events still buffered in the client, then disconnects.
func (p *NATSPublisher) Close() error {
	defer p.conn.Close()
	if !p.conn.IsConnected() {
		return nil
	}
	if err := p.conn.FlushTimeout(closeFlushTimeout); err != nil {
		return fmt.Errorf("flushing publisher: %w", err)
	}
	return nil
}

// NATSSubscriber subscribes to events from NATS subjects. Subscriptions
// survive reconnects; messages published while disconnected are lost.
type NATSSubscriber struct {
	conn *nats.Conn
}

// NewNATSSubscriber connects to the bus at url. Extra options (disconnect
// and reconnect handlers, say) are applied after the defaults.
func NewNATSSubscriber(url string, opts ...nats.Option) (*NATSSubscriber, error) {
	nc, err := connect(url, "cafe-subscriber", opts)
	if err != nil {
		return nil, err
	}
	return &NATSSubscriber{conn: nc}, nil
}

// Connected reports whether the underlying connection is currently up.
func (s *NATSSubscriber) Connected() bool { return s.conn.IsConnected() }

// natsStream forwards one subscription's payloads to a channel.
type natsStream struct {
	topic   string
	ch      chan []byte
	mu      sync.Mutex
	closed  bool
	dropped atomic.Int64
}

func (st *natsStream) deliver(msg *nats.Msg) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed {
		return
	}
	select {
	case st.ch <- msg.Data:
	default:
		if n := st.dropped.Add(1); n == 1 || n%100 == 0 {
			slog.Warn("events: consumer too slow, dropping messages", "topic", st.topic, "dropped", n)
		}
	}
}

// shut stops delivery and closes the channel. Queued payloads are discarded.
func (st *natsStream) shut() {
	st.mu.Lock()
	st.closed = true
	st.mu.Unlock()
	for {
		select {
		case <-st.ch:
		default:
			close(st.ch)
			return
		}
	}
}

// Subscribe returns a channel of raw payloads for topic, which may use NATS
// wildcards such as TopicAll. The subscription is registered on the server
// before Subscribe returns. The cancel function unsubscribes and closes the
// channel; it is safe to call more than once.
func (s *NATSSubscriber) Subscribe(topic string) (<-chan []byte, func(), error) {
	st := &natsStream{topic: topic, ch: make(chan []byte, subscriberBuffer)}

	sub, err := s.conn.Subscribe(topic, st.deliver)
	if err != nil {
		return nil, nil, fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	if err := s.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, nil, fmt.Errorf("flushing subscription: %w", err)
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			_ = sub.Unsubscribe()
			st.shut()
		})
	}
	return st.ch, cancel, nil
}

func (s *NATSSubscriber) Close() error {
	s.conn.Close()
	return nil
}
