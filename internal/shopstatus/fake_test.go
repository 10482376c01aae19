package shopstatus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/brewco/cafe/internal/model"
)

var errNetwork = errors.New("network unreachable")

// fakeBackend is an in-memory StatusStore and ChangeFeed. Every successful
// Update is broadcast to all open subscriptions, including the writer's.
type fakeBackend struct {
	mu        sync.Mutex
	rows      map[int64]bool
	subs      map[*fakeSub]struct{}
	readGate  chan struct{}
	readErr   error
	updateErr error
	// subscribeFails makes the next n Subscribe calls fail.
	subscribeFails int

	reads, updates, subscribes int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		rows: map[int64]bool{},
		subs: map[*fakeSub]struct{}{},
	}
}

func (b *fakeBackend) provision(id int64, isOpen bool) *fakeBackend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rows[id] = isOpen
	return b
}

// setSilently changes a row without emitting a change event.
func (b *fakeBackend) setSilently(id int64, isOpen bool) {
	b.provision(id, isOpen)
}

func (b *fakeBackend) row(id int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rows[id]
}

func (b *fakeBackend) Read(ctx context.Context, id int64) (*model.ShopStatus, error) {
	b.mu.Lock()
	gate := b.readGate
	b.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.reads++
	if b.readErr != nil {
		return nil, b.readErr
	}
	v, ok := b.rows[id]
	if !ok {
		return nil, fmt.Errorf("status %d: %w", id, model.ErrNotFound)
	}
	return &model.ShopStatus{ID: id, IsOpen: v}, nil
}

func (b *fakeBackend) Update(ctx context.Context, id int64, isOpen bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updates++
	if b.updateErr != nil {
		return b.updateErr
	}
	if _, ok := b.rows[id]; !ok {
		return fmt.Errorf("status %d: %w", id, model.ErrNotFound)
	}
	b.rows[id] = isOpen
	b.broadcastLocked(model.ChangeEvent{ID: id, IsOpen: isOpen, UpdatedAt: time.Now()})
	return nil
}

// emit delivers an event without touching the rows.
func (b *fakeBackend) emit(ev model.ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.broadcastLocked(ev)
}

func (b *fakeBackend) broadcastLocked(ev model.ChangeEvent) {
	for s := range b.subs {
		s.ch <- ev
	}
}

func (b *fakeBackend) Subscribe(ctx context.Context, table string, filter model.EventFilter) (Subscription, error) {
	if table != model.TableStatus || filter != model.EventUpdate {
		return nil, fmt.Errorf("unexpected subscription %s/%s", table, filter)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribes++
	if b.subscribeFails > 0 {
		b.subscribeFails--
		return nil, errNetwork
	}
	s := &fakeSub{b: b, ch: make(chan model.ChangeEvent, 64)}
	b.subs[s] = struct{}{}
	return s, nil
}

// dropAll ends every open stream as a network failure would.
func (b *fakeBackend) dropAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for s := range b.subs {
		delete(b.subs, s)
		close(s.ch)
	}
}

func (b *fakeBackend) live() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *fakeBackend) counts() (reads, updates, subscribes int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reads, b.updates, b.subscribes
}

type fakeSub struct {
	b  *fakeBackend
	ch chan model.ChangeEvent
}

func (s *fakeSub) Events() <-chan model.ChangeEvent { return s.ch }

func (s *fakeSub) Close() error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	if _, ok := s.b.subs[s]; ok {
		delete(s.b.subs, s)
		close(s.ch)
	}
	return nil
}

// recorder collects onChange transitions.
type recorder struct {
	mu     sync.Mutex
	states []model.DisplayState
}

func (r *recorder) record(s model.DisplayState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) snapshot() []model.DisplayState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.DisplayState(nil), r.states...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastReconnect() Option {
	return WithReconnect(Backoff{Base: time.Millisecond, Max: 5 * time.Millisecond, Factor: 2})
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func waitState(t *testing.T, s interface{ State() model.DisplayState }, want model.DisplayState) {
	t.Helper()
	waitFor(t, "state "+want.String(), func() bool { return s.State() == want })
}

// mountT mounts s and unmounts it at test cleanup.
func mountT(t *testing.T, s *Subscriber) {
	t.Helper()
	if err := s.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	t.Cleanup(s.Unmount)
}
