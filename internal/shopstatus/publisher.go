package shopstatus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/brewco/cafe/internal/model"
)

// Publisher is the admin-side switch. It keeps its own display state and
// flips it optimistically before the write is confirmed.
type Publisher struct {
	store StatusStore
	opts  options

	notifyMu sync.Mutex // held across a transition and its onChange call
	mu       sync.Mutex
	state    model.DisplayState
	newest   time.Time // latest row timestamp seen by Load or Apply
}

// NewPublisher returns a Publisher in the Unknown state. Call Load before Toggle.
func NewPublisher(store StatusStore, opts ...Option) *Publisher {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return &Publisher{store: store, opts: o}
}

// State returns the current display state.
func (p *Publisher) State() model.DisplayState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// RowID returns the status row this publisher writes.
func (p *Publisher) RowID() int64 { return p.opts.rowID }

// Load reads the row and replaces the display state. On error the state is
// left as it was.
func (p *Publisher) Load(ctx context.Context) error {
	st, err := p.store.Read(ctx, p.opts.rowID)
	if err != nil {
		return fmt.Errorf("load status %d: %w", p.opts.rowID, err)
	}
	p.transition(func(model.DisplayState) (model.DisplayState, bool) {
		return model.DisplayStateFor(st.IsOpen), p.advance(st.UpdatedAt)
	})
	return nil
}

// Apply replaces the display state from a change event for this row. An
// event older than one already seen is ignored.
func (p *Publisher) Apply(ev model.ChangeEvent) {
	if ev.ID != p.opts.rowID {
		return
	}
	p.transition(func(model.DisplayState) (model.DisplayState, bool) {
		return model.DisplayStateFor(ev.IsOpen), p.advance(ev.UpdatedAt)
	})
}

// advance records at as the newest timestamp and reports whether it is not
// older than the previous one. Called with p.mu held.
func (p *Publisher) advance(at time.Time) bool {
	if at.IsZero() {
		return true
	}
	if at.Before(p.newest) {
		p.opts.logger.Debug("out-of-order status ignored", "row_id", p.opts.rowID, "at", at)
		return false
	}
	p.newest = at
	return true
}

// Toggle flips the display state immediately and issues exactly one write of
// the new value. Write failures are logged, never returned. Toggle before
// the first successful Load does nothing.
func (p *Publisher) Toggle(ctx context.Context) {
	var prev model.DisplayState
	ok := p.transition(func(cur model.DisplayState) (model.DisplayState, bool) {
		prev = cur
		if !cur.Known() {
			return cur, false
		}
		return model.DisplayStateFor(cur != model.Open), true
	})
	if !ok {
		p.opts.logger.Warn("toggle ignored: status not loaded", "row_id", p.opts.rowID)
		return
	}
	next := prev != model.Open

	if err := p.store.Update(ctx, p.opts.rowID, next); err != nil {
		p.opts.logger.Warn("status write failed",
			"row_id", p.opts.rowID, "is_open", next, "rollback", p.opts.rollback, "error", err)
		if p.opts.rollback {
			p.transition(func(cur model.DisplayState) (model.DisplayState, bool) {
				// Only undo our own flip; a later toggle or event owns the state otherwise.
				return prev, cur == model.DisplayStateFor(next)
			})
		}
		return
	}
	p.opts.logger.Debug("status written", "row_id", p.opts.rowID, "is_open", next)
}

// transition applies fn to the current state under the lock. fn returns the
// new state and whether to take it. onChange fires only on an actual change.
// It reports whether fn accepted the transition.
func (p *Publisher) transition(fn func(cur model.DisplayState) (model.DisplayState, bool)) bool {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	next, ok := fn(p.state)
	changed := ok && next != p.state
	if ok {
		p.state = next
	}
	p.mu.Unlock()

	if changed && p.opts.onChange != nil {
		p.opts.onChange(next)
	}
	return ok
}
