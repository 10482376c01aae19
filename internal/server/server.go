package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/brewco/cafe/internal/events"
	"github.com/brewco/cafe/internal/hours"
	"github.com/brewco/cafe/internal/idgen"
	"github.com/brewco/cafe/internal/model"
	"github.com/brewco/cafe/internal/presence"
	"github.com/brewco/cafe/internal/store"
)

// CafeServer serves the café data API over HTTP and gRPC. It implements
// statusrpc.StatusServiceServer.
type CafeServer struct {
	store     store.Store
	publisher events.Publisher
	hub       *eventHub
	Presence  *presence.Tracker

	// writeMu orders commit, publish and broadcast of one mutation against
	// the next, so watchers see events in commit order.
	writeMu sync.Mutex

	schedule    *hours.Schedule
	instanceID  string
	statusRowID int64
	heroRowID   int64
}

// Option configures a CafeServer.
type Option func(*CafeServer)

// WithStatusRowID selects the status row served by GET/PUT /v1/status.
func WithStatusRowID(id int64) Option {
	return func(s *CafeServer) { s.statusRowID = id }
}

// WithHeroRowID selects the hero banner row.
func WithHeroRowID(id int64) Option {
	return func(s *CafeServer) { s.heroRowID = id }
}

// WithSchedule sets the opening hours reported as within_hours.
func WithSchedule(sch *hours.Schedule) Option {
	return func(s *CafeServer) {
		if sch != nil {
			s.schedule = sch
		}
	}
}

// WithInstanceID overrides the generated origin tag stamped on events.
func WithInstanceID(id string) Option {
	return func(s *CafeServer) {
		if id != "" {
			s.instanceID = id
		}
	}
}

// NewCafeServer returns a new CafeServer backed by the given store and publisher.
func NewCafeServer(s store.Store, p events.Publisher, opts ...Option) *CafeServer {
	cs := &CafeServer{
		store:       s,
		publisher:   p,
		hub:         newEventHub(),
		Presence:    presence.New(),
		schedule:    hours.Default(),
		instanceID:  idgen.MustNew(idgen.PrefixInstance),
		statusRowID: model.ShopStatusRowID,
		heroRowID:   model.HeroRowID,
	}
	for _, opt := range opts {
		opt(cs)
	}
	return cs
}

// InstanceID is the origin tag this server stamps on the events it publishes.
func (s *CafeServer) InstanceID() string { return s.instanceID }

func (s *CafeServer) meta() events.Meta {
	return events.Meta{Origin: s.instanceID}
}

// pendingEvent is an event produced inside a mutation, recorded in the same
// transaction and published once it commits.
type pendingEvent struct {
	topic string
	rowID int64
	actor string
	event any
}

// recordAndPublish runs mutate in a transaction together with the insert of
// the event it returns. After commit the event goes to NATS and the local
// hub; those two steps are best-effort and only logged on failure. Mutations
// are serialized end to end on this instance.
func (s *CafeServer) recordAndPublish(ctx context.Context, mutate func(tx store.Store) (*pendingEvent, error)) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var (
		pe      *pendingEvent
		payload []byte
	)
	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		var err error
		if pe, err = mutate(tx); err != nil {
			return err
		}
		if payload, err = json.Marshal(pe.event); err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}
		if err := tx.RecordEvent(ctx, &model.Event{
			Topic:   pe.topic,
			RowID:   pe.rowID,
			Actor:   pe.actor,
			Payload: payload,
		}); err != nil {
			return fmt.Errorf("record event: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.publisher.Publish(ctx, pe.topic, json.RawMessage(payload)); err != nil {
		slog.Warn("failed to publish event", "topic", pe.topic, "row_id", pe.rowID, "error", err)
	}
	s.hub.broadcast(pe.topic, payload)
	return nil
}

// inputError indicates invalid user input.
// Transport layers map this to 400 / InvalidArgument.
type inputError string

func (e inputError) Error() string { return string(e) }

// validationInput converts a model validation failure into an inputError.
func validationInput(err error) error {
	if err == nil {
		return nil
	}
	return inputError(err.Error())
}
