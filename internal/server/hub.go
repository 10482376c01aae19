package server

import (
	"log/slog"
	"strings"
	"sync"
)

const (
	// hubRingBufferSize is how many recent events stay available for
	// Last-Event-ID replay.
	hubRingBufferSize = 1000

	// hubClientBuffer is the per-client queue depth. A client that falls
	// this far behind is evicted.
	hubClientBuffer = 64
)

// hubEvent is one committed change as broadcast to watchers.
type hubEvent struct {
	ID    uint64 // sequence number, starting at 1
	Topic string
	Data  []byte // JSON payload
}

// replayRing keeps the most recent events in ID order. IDs are contiguous,
// so the slot for an ID is computed rather than searched for.
type replayRing struct {
	buf    [hubRingBufferSize]*hubEvent
	newest uint64 // ID of the last pushed event, 0 when empty
}

func (r *replayRing) push(evt *hubEvent) {
	r.buf[evt.ID%hubRingBufferSize] = evt
	r.newest = evt.ID
}

// after returns the retained events with ID > lastID, oldest first.
func (r *replayRing) after(lastID uint64) []*hubEvent {
	if lastID >= r.newest {
		return nil
	}
	oldest := uint64(1)
	if r.newest > hubRingBufferSize {
		oldest = r.newest - hubRingBufferSize + 1
	}
	from := max(lastID+1, oldest)
	out := make([]*hubEvent, 0, r.newest-from+1)
	for id := from; id <= r.newest; id++ {
		out = append(out, r.buf[id%hubRingBufferSize])
	}
	return out
}

// eventHub fans committed events out to SSE streams and gRPC watchers of
// this instance. Delivery to a client never blocks the writer: a client
// whose queue is full is evicted and its channel closed, so the consumer
// ends its stream and the remote side reconnects and re-reads.
type eventHub struct {
	mu      sync.Mutex
	seq     uint64
	ring    replayRing
	clients map[*hubClient]struct{}
}

// hubClient is one attached consumer. ch is closed when the client is
// unsubscribed or evicted.
type hubClient struct {
	topics []string // patterns; empty means every topic
	ch     chan *hubEvent
}

func newEventHub() *eventHub {
	return &eventHub{clients: make(map[*hubClient]struct{})}
}

// broadcast numbers the event and queues it for every matching client.
// Numbering and queueing happen under one lock, so every client sees
// events in the same order they were written to the ring.
func (h *eventHub) broadcast(topic string, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	evt := &hubEvent{ID: h.seq, Topic: topic, Data: payload}
	h.ring.push(evt)

	for c := range h.clients {
		if !c.matchesTopic(topic) {
			continue
		}
		select {
		case c.ch <- evt:
		default:
			slog.Warn("event hub: watcher too slow, evicting",
				"topic", topic, "event_id", evt.ID, "queued", len(c.ch))
			h.removeLocked(c)
		}
	}
}

func (h *eventHub) removeLocked(c *hubClient) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.ch)
	}
}

func (h *eventHub) subscribe(topics []string) *hubClient {
	c := &hubClient{topics: topics, ch: make(chan *hubEvent, hubClientBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *eventHub) unsubscribe(c *hubClient) {
	h.mu.Lock()
	h.removeLocked(c)
	h.mu.Unlock()
}

func (h *eventHub) clientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// eventsSince returns retained events with ID > lastID. Anything older than
// the ring is gone.
func (h *eventHub) eventsSince(lastID uint64) []*hubEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ring.after(lastID)
}

func (c *hubClient) matchesTopic(topic string) bool {
	if len(c.topics) == 0 {
		return true
	}
	for _, p := range c.topics {
		if matchTopicPattern(p, topic) {
			return true
		}
	}
	return false
}

// matchTopicPattern matches a dot-separated topic against a NATS-style
// pattern: "*" is exactly one segment, a trailing ">" is one or more.
func matchTopicPattern(pattern, topic string) bool {
	for {
		p, pRest, pMore := strings.Cut(pattern, ".")
		if p == ">" {
			return topic != ""
		}
		t, tRest, tMore := strings.Cut(topic, ".")
		if topic == "" || (p != "*" && p != t) {
			return false
		}
		if !pMore || !tMore {
			return pMore == tMore
		}
		pattern, topic = pRest, tRest
	}
}

// parseTopics splits the comma-separated topics query value.
func parseTopics(q string) []string {
	var topics []string
	for _, t := range strings.Split(q, ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	return topics
}
