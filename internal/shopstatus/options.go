package shopstatus

import (
	"log/slog"

	"github.com/brewco/cafe/internal/model"
)

type options struct {
	rowID    int64
	logger   *slog.Logger
	onChange func(model.DisplayState)
	rollback bool
	backoff  *Backoff
}

func defaultOptions() options {
	b := DefaultBackoff()
	return options{
		rowID:   model.ShopStatusRowID,
		logger:  slog.Default(),
		backoff: &b,
	}
}

// Option configures a Publisher or Subscriber.
type Option func(*options)

// WithRowID addresses a status row other than model.ShopStatusRowID.
func WithRowID(id int64) Option {
	return func(o *options) { o.rowID = id }
}

// WithLogger sets the logger for swallowed failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithOnChange registers a callback invoked after every display state
// transition. Calls are serialized and happen in transition order. The
// callback may call State but must not call Unmount.
func WithOnChange(fn func(model.DisplayState)) Option {
	return func(o *options) { o.onChange = fn }
}

// WithRollback makes a Publisher restore its previous display state when a
// write fails. Off by default: a failed write leaves the optimistic state in
// place until the next change event or Load. Ignored by Subscriber.
func WithRollback(enabled bool) Option {
	return func(o *options) { o.rollback = enabled }
}

// WithReconnect sets the schedule a Subscriber uses to re-open a dropped
// change stream. Ignored by Publisher.
func WithReconnect(b Backoff) Option {
	return func(o *options) { o.backoff = &b }
}

// WithoutReconnect leaves a Subscriber stale after its stream drops, until
// it is remounted.
func WithoutReconnect() Option {
	return func(o *options) { o.backoff = nil }
}
