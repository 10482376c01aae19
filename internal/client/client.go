// Package client talks to a running cafe server.
//
// Both transports satisfy StatusClient, so either can back a
// shopstatus.Publisher or shopstatus.Subscriber: the HTTP client follows
// changes over server-sent events, the gRPC client over WatchStatus.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/brewco/cafe/internal/model"
	"github.com/brewco/cafe/internal/shopstatus"
)

// StatusClient is the surface the CLI needs for the open/closed switch.
type StatusClient interface {
	shopstatus.StatusStore
	shopstatus.ChangeFeed

	Health(ctx context.Context) (string, error)
	Close() error
}

var (
	_ StatusClient = (*HTTPClient)(nil)
	_ StatusClient = (*GRPCClient)(nil)
)

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Unwrap lets errors.Is(err, model.ErrNotFound) see through a 404.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return model.ErrNotFound
	}
	return nil
}

// IsNotFound reports whether err means the addressed row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, model.ErrNotFound)
}
