package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/brewco/cafe/internal/events"
	"github.com/brewco/cafe/internal/model"
	"github.com/brewco/cafe/internal/shopstatus"
)

// Subscribe opens a server-sent event stream for (table, filter). It returns
// once the server has accepted the stream, so no committed change after the
// call returns can be missed.
func (c *HTTPClient) Subscribe(ctx context.Context, table string, filter model.EventFilter) (shopstatus.Subscription, error) {
	if err := shopstatus.ValidateFeed(table, filter); err != nil {
		return nil, fmt.Errorf("sse subscribe: %w", err)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	path := "/v1/events/stream?topics=" + url.QueryEscape(events.TopicFor(table, filter))
	req, err := c.newRequest(streamCtx, http.MethodGet, path, nil)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	// Streams outlive any client-wide timeout.
	hc := *c.httpClient
	hc.Timeout = 0
	resp, err := hc.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("sse subscribe: %w", err)
	}
	if resp.StatusCode >= 400 {
		err := readAPIError(resp)
		resp.Body.Close()
		cancel()
		return nil, err
	}

	s := &sseSubscription{
		events: make(chan model.ChangeEvent, 16),
		cancel: cancel,
		body:   resp.Body,
		done:   make(chan struct{}),
		logger: c.logger,
	}
	go s.run(streamCtx)
	return s, nil
}

type sseSubscription struct {
	events chan model.ChangeEvent
	cancel context.CancelFunc
	body   io.ReadCloser
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

func (s *sseSubscription) Events() <-chan model.ChangeEvent { return s.events }

func (s *sseSubscription) Close() error {
	s.once.Do(func() {
		s.cancel()
		_ = s.body.Close()
	})
	<-s.done
	return nil
}

func (s *sseSubscription) run(ctx context.Context) {
	defer close(s.done)
	defer close(s.events)
	defer s.body.Close()

	scanner := bufio.NewScanner(s.body)
	var event, data string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimPrefix(line, "data:")
		case line == "":
			if event == events.TopicStatusUpdated && data != "" {
				ce, err := events.ChangeEventOf([]byte(data))
				if err != nil {
					s.logger.Warn("sse: undecodable status event", "error", err)
				} else {
					select {
					case s.events <- ce:
					case <-ctx.Done():
						return
					}
				}
			}
			event, data = "", ""
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		s.logger.Debug("sse: stream ended", "error", err)
	}
}
