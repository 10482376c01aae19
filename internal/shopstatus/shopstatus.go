// Package shopstatus propagates the café's open/closed switch from the admin
// surface to every live viewer.
//
// A Publisher flips the switch through a StatusStore. Each Subscriber reads
// the current value once on Mount and, concurrently, follows a ChangeFeed
// stream of update events for the status table. Subscribers own their state
// and their stream; nothing is shared between instances.
package shopstatus

import (
	"context"
	"errors"

	"github.com/brewco/cafe/internal/model"
)

// ErrAlreadyMounted is returned by Subscriber.Mount on a mounted subscriber.
var ErrAlreadyMounted = errors.New("subscriber already mounted")

// StatusStore is the point read/write surface of the backend.
type StatusStore interface {
	// Read returns the status row. A missing row yields an error wrapping
	// model.ErrNotFound.
	Read(ctx context.Context, id int64) (*model.ShopStatus, error)
	// Update sets is_open on an existing row. It never creates the row.
	Update(ctx context.Context, id int64, isOpen bool) error
}

// ChangeFeed opens long-lived change streams.
type ChangeFeed interface {
	Subscribe(ctx context.Context, table string, filter model.EventFilter) (Subscription, error)
}

// Subscription is one live change stream.
//
// Events is closed when the stream drops or after Close. Close is idempotent
// and returns only once the underlying connection has been released.
type Subscription interface {
	Events() <-chan model.ChangeEvent
	Close() error
}
