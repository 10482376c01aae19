// Package presence tracks live change-feed connections.
//
// Every SSE stream and gRPC status watch registers here for its lifetime, so
// the server can report how many viewers are connected (GET /v1/watchers)
// and so tests can check that closed viewers leave nothing behind. A
// background reaper evicts entries whose transport stopped touching them.
package presence

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/brewco/cafe/internal/idgen"
)

// Transport names.
const (
	TransportSSE  = "sse"
	TransportGRPC = "grpc"
)

// Entry is a snapshot of one live connection.
type Entry struct {
	ID            string    `json:"id"`
	Transport     string    `json:"transport"`
	Remote        string    `json:"remote,omitempty"`
	Topics        []string  `json:"topics,omitempty"`
	ConnectedAt   time.Time `json:"connected_at"`
	LastSeen      time.Time `json:"last_seen"`
	Delivered     int64     `json:"delivered"`
	IdleSecs      float64   `json:"idle_secs"`
	ConnectedSecs float64   `json:"connected_secs"`
}

// ReaperConfig configures the background stale-connection reaper.
type ReaperConfig struct {
	// DeadThreshold is how long an entry may go untouched before eviction.
	// Default: 2 minutes (several keepalive intervals).
	DeadThreshold time.Duration

	// SweepInterval is how often the reaper scans. Default: 30 seconds.
	SweepInterval time.Duration

	// OnDead is called for each evicted entry, outside the lock.
	OnDead func(id, transport string)
}

// Tracker is the registry of live connections.
type Tracker struct {
	mu      sync.RWMutex
	entries map[string]*entryState

	reaperStop chan struct{}
	reaperDone chan struct{}
}

type entryState struct {
	transport   string
	remote      string
	topics      []string
	connectedAt time.Time
	lastSeen    time.Time
	delivered   int64
}

// New creates an empty tracker.
func New() *Tracker {
	return &Tracker{entries: make(map[string]*entryState)}
}

// Register records a new live connection and returns its id.
func (t *Tracker) Register(transport, remote string, topics []string) string {
	id := idgen.MustNew(idgen.PrefixWatcher)
	now := time.Now()

	t.mu.Lock()
	t.entries[id] = &entryState{
		transport:   transport,
		remote:      remote,
		topics:      append([]string(nil), topics...),
		connectedAt: now,
		lastSeen:    now,
	}
	t.mu.Unlock()

	slog.Debug("presence: watcher connected", "id", id, "transport", transport, "remote", remote)
	return id
}

// Delivered counts one event sent to the connection and marks it alive.
func (t *Tracker) Delivered(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.entries[id]; ok {
		st.delivered++
		st.lastSeen = time.Now()
	}
}

// Touch marks the connection alive without counting a delivery (keepalives).
func (t *Tracker) Touch(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.entries[id]; ok {
		st.lastSeen = time.Now()
	}
}

// Unregister removes a connection. Unknown ids are ignored.
func (t *Tracker) Unregister(id string) {
	t.mu.Lock()
	_, ok := t.entries[id]
	delete(t.entries, id)
	t.mu.Unlock()
	if ok {
		slog.Debug("presence: watcher disconnected", "id", id)
	}
}

// Count returns the number of live connections.
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// List returns a snapshot of live connections, most recently connected first.
// transport filters by transport name; "" lists all.
func (t *Tracker) List(transport string) []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	now := time.Now()
	entries := make([]Entry, 0, len(t.entries))
	for id, st := range t.entries {
		if transport != "" && st.transport != transport {
			continue
		}
		entries = append(entries, Entry{
			ID:            id,
			Transport:     st.transport,
			Remote:        st.remote,
			Topics:        append([]string(nil), st.topics...),
			ConnectedAt:   st.connectedAt,
			LastSeen:      st.lastSeen,
			Delivered:     st.delivered,
			IdleSecs:      now.Sub(st.lastSeen).Seconds(),
			ConnectedSecs: now.Sub(st.connectedAt).Seconds(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ConnectedAt.Equal(entries[j].ConnectedAt) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].ConnectedAt.After(entries[j].ConnectedAt)
	})
	return entries
}

// StartReaper launches a background goroutine that evicts stale entries.
// Call Stop to shut it down.
func (t *Tracker) StartReaper(cfg *ReaperConfig) {
	if cfg == nil {
		cfg = &ReaperConfig{}
	}
	if cfg.DeadThreshold == 0 {
		cfg.DeadThreshold = 2 * time.Minute
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = 30 * time.Second
	}

	t.reaperStop = make(chan struct{})
	t.reaperDone = make(chan struct{})

	go t.reapLoop(cfg)
	slog.Info("presence: reaper started",
		"dead_threshold", cfg.DeadThreshold,
		"sweep_interval", cfg.SweepInterval)
}

// Stop shuts down the reaper goroutine.
func (t *Tracker) Stop() {
	if t.reaperStop != nil {
		close(t.reaperStop)
		<-t.reaperDone
		t.reaperStop = nil
		t.reaperDone = nil
	}
}

func (t *Tracker) reapLoop(cfg *ReaperConfig) {
	defer close(t.reaperDone)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.reaperStop:
			return
		case <-ticker.C:
			t.sweep(cfg, time.Now())
		}
	}
}

func (t *Tracker) sweep(cfg *ReaperConfig, now time.Time) {
	type dead struct{ id, transport string }
	var evicted []dead

	t.mu.Lock()
	for id, st := range t.entries {
		if now.Sub(st.lastSeen) > cfg.DeadThreshold {
			delete(t.entries, id)
			evicted = append(evicted, dead{id, st.transport})
		}
	}
	t.mu.Unlock()

	for _, d := range evicted {
		slog.Warn("presence: reaper evicted stale watcher",
			"id", d.id,
			"transport", d.transport,
			"threshold", cfg.DeadThreshold)
		if cfg.OnDead != nil {
			cfg.OnDead(d.id, d.transport)
		}
	}
}
