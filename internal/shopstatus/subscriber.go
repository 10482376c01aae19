package shopstatus

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/brewco/cafe/internal/idgen"
	"github.com/brewco/cafe/internal/model"
)

// Subscriber is a live status widget.
//
//	Unknown --read--> Open | Closed
//	Open    --event(false)--> Closed
//	Closed  --event(true)--> Open
//	any     --Unmount--> released
//
// Each Subscriber holds its own stream; two Subscribers never share one.
type Subscriber struct {
	store StatusStore
	feed  ChangeFeed
	opts  options
	id    string

	notifyMu sync.Mutex // held across a transition and its onChange call
	mu       sync.Mutex
	state    model.DisplayState
	applied  uint64    // change events applied in the current mount
	newest   time.Time // latest row timestamp applied in the current mount
	cur      *mount
}

// mount is one Mount..Unmount lifetime.
type mount struct {
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSubscriber returns an unmounted Subscriber.
func NewSubscriber(store StatusStore, feed ChangeFeed, opts ...Option) *Subscriber {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return &Subscriber{
		store: store,
		feed:  feed,
		opts:  o,
		id:    idgen.MustNew(idgen.PrefixSubscriber),
	}
}

// ID identifies this subscriber in logs.
func (s *Subscriber) ID() string { return s.id }

// State returns the current display state.
func (s *Subscriber) State() model.DisplayState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Mounted reports whether the subscriber is between Mount and Unmount.
func (s *Subscriber) Mounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur != nil
}

// Mount resets the state to Unknown, starts the initial read, and opens the
// change stream concurrently. It returns once the first subscribe attempt
// has finished; the read may still be in flight. Failures are logged, not
// returned. Cancelling ctx ends the mount's work but Unmount must still be
// called to release it.
func (s *Subscriber) Mount(ctx context.Context) error {
	s.notifyMu.Lock()
	s.mu.Lock()
	if s.cur != nil {
		s.mu.Unlock()
		s.notifyMu.Unlock()
		return ErrAlreadyMounted
	}
	runCtx, cancel := context.WithCancel(ctx)
	m := &mount{cancel: cancel}
	s.cur = m
	s.applied = 0
	s.newest = time.Time{}
	changed := s.state != model.Unknown
	s.state = model.Unknown
	s.mu.Unlock()
	if changed {
		s.notify(model.Unknown)
	}
	s.notifyMu.Unlock()

	m.wg.Add(2)
	go func() {
		defer m.wg.Done()
		s.load(runCtx, m, 0)
	}()

	sub, err := s.subscribe(runCtx)
	if err != nil && runCtx.Err() == nil {
		s.opts.logger.Warn("status subscribe failed", "subscriber", s.id, "error", err)
	}
	go func() {
		defer m.wg.Done()
		s.watch(runCtx, m, sub)
	}()
	return nil
}

// Unmount cancels the mount, closes the change stream, and waits until every
// goroutine started by Mount has returned. It is a no-op when not mounted.
func (s *Subscriber) Unmount() {
	s.mu.Lock()
	m := s.cur
	s.cur = nil
	s.mu.Unlock()
	if m == nil {
		return
	}
	m.cancel()
	m.wg.Wait()
	s.opts.logger.Debug("status subscriber unmounted", "subscriber", s.id)
}

func (s *Subscriber) subscribe(ctx context.Context) (Subscription, error) {
	sub, err := s.feed.Subscribe(ctx, model.TableStatus, model.EventUpdate)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		_ = sub.Close()
		return nil, ctx.Err()
	}
	return sub, nil
}

// load reads the row and applies it unless a change event has been applied
// since the read was issued (the event is newer).
func (s *Subscriber) load(ctx context.Context, m *mount, since uint64) {
	st, err := s.store.Read(ctx, s.opts.rowID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, model.ErrNotFound) {
			s.opts.logger.Warn("status row not provisioned", "subscriber", s.id, "row_id", s.opts.rowID)
			return
		}
		s.opts.logger.Warn("status read failed", "subscriber", s.id, "row_id", s.opts.rowID, "error", err)
		return
	}

	s.apply(m, model.DisplayStateFor(st.IsOpen), st.UpdatedAt, false, since)
}

// watch drains the stream and, when reconnect is enabled, re-opens it after
// a drop. It closes whatever stream it holds before returning.
func (s *Subscriber) watch(ctx context.Context, m *mount, sub Subscription) {
	attempt := 0
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		if sub != nil {
			s.drain(ctx, m, sub)
			_ = sub.Close()
			sub = nil
			if ctx.Err() != nil {
				return
			}
			s.opts.logger.Warn("status stream dropped", "subscriber", s.id, "reconnect", s.opts.backoff != nil)
		}
		if s.opts.backoff == nil || ctx.Err() != nil {
			return
		}

		timer.Reset(s.opts.backoff.Delay(attempt))
		attempt++
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		next, err := s.subscribe(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.opts.logger.Warn("status resubscribe failed",
				"subscriber", s.id, "attempt", attempt, "error", err)
			continue
		}
		sub = next
		attempt = 0
		s.opts.logger.Info("status stream reconnected", "subscriber", s.id)

		// Events published while disconnected are gone; catch up with a read.
		since := s.appliedCount()
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			s.load(ctx, m, since)
		}()
	}
}

func (s *Subscriber) drain(ctx context.Context, m *mount, sub Subscription) {
	events := sub.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.ID != s.opts.rowID {
				continue
			}
			s.apply(m, model.DisplayStateFor(ev.IsOpen), ev.UpdatedAt, true, 0)
		}
	}
}

func (s *Subscriber) appliedCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applied
}

// apply sets the display state if m is still the current mount. Anything
// stamped older than what was already applied is dropped; a zero stamp is
// never stale. Events otherwise apply and bump the applied count; a read
// applies only if no event has been applied since it was issued (since is
// the count captured at that time).
func (s *Subscriber) apply(m *mount, next model.DisplayState, at time.Time, event bool, since uint64) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.cur != m {
		s.mu.Unlock()
		return
	}
	if at.Before(s.newest) && !at.IsZero() {
		s.mu.Unlock()
		s.opts.logger.Debug("out-of-order status discarded", "subscriber", s.id, "event", event, "at", at)
		return
	}
	if event {
		s.applied++
	} else if s.applied != since {
		s.mu.Unlock()
		s.opts.logger.Debug("stale status read discarded", "subscriber", s.id)
		return
	}
	if at.After(s.newest) {
		s.newest = at
	}
	changed := s.state != next
	s.state = next
	s.mu.Unlock()

	if changed {
		s.notify(next)
	}
}

func (s *Subscriber) notify(next model.DisplayState) {
	s.opts.logger.Debug("status display changed", "subscriber", s.id, "state", next.String())
	if s.opts.onChange != nil {
		s.opts.onChange(next)
	}
}
