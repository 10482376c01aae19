package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/brewco/cafe/internal/presence"
)

// sseKeepaliveInterval is also the presence touch interval for gRPC watches.
const sseKeepaliveInterval = 15 * time.Second

// sseStream writes server-sent events and keeps the watcher's presence
// entry current.
type sseStream struct {
	w        http.ResponseWriter
	flush    http.Flusher
	presence *presence.Tracker
	watcher  string
	lastSent uint64
}

// send writes evt unless an event with the same or a later ID already went
// out. Replayed and live events can overlap right after a reconnect.
func (st *sseStream) send(evt *hubEvent) error {
	if evt.ID <= st.lastSent {
		return nil
	}
	if _, err := fmt.Fprintf(st.w, "id:%d\nevent:%s\ndata:%s\n\n", evt.ID, evt.Topic, evt.Data); err != nil {
		return err
	}
	st.lastSent = evt.ID
	st.presence.Delivered(st.watcher)
	return nil
}

func (st *sseStream) keepalive() error {
	if _, err := fmt.Fprint(st.w, ":keepalive\n\n"); err != nil {
		return err
	}
	st.flush.Flush()
	st.presence.Touch(st.watcher)
	return nil
}

// handleEventStream serves GET /v1/events/stream. The optional topics query
// filters by pattern; Last-Event-ID replays what a reconnecting client
// missed, as far back as the hub's ring reaches.
func (s *CafeServer) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	topics := parseTopics(r.URL.Query().Get("topics"))

	// Subscribe before the headers go out so nothing written after the
	// client sees 200 can be missed.
	client := s.hub.subscribe(topics)
	defer s.hub.unsubscribe(client)
	st := &sseStream{
		w:        w,
		flush:    flusher,
		presence: s.Presence,
		watcher:  s.Presence.Register(presence.TransportSSE, r.RemoteAddr, topics),
	}
	defer s.Presence.Unregister(st.watcher)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	if lastID, err := strconv.ParseUint(r.Header.Get("Last-Event-ID"), 10, 64); err == nil {
		for _, evt := range s.hub.eventsSince(lastID) {
			if !client.matchesTopic(evt.Topic) {
				continue
			}
			if err := st.send(evt); err != nil {
				return
			}
		}
		st.lastSent = max(st.lastSent, lastID)
		flusher.Flush()
	}

	ticker := time.NewTicker(sseKeepaliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case evt, ok := <-client.ch:
			if !ok {
				// Evicted; the client reconnects with Last-Event-ID.
				return
			}
			if err := st.send(evt); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if err := st.keepalive(); err != nil {
				return
			}
		}
	}
}
