// Package sync backs the shop's content up as a JSONL snapshot to S3 or a
// git repository on a fixed interval.
package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Destination receives each exported snapshot. Write may be called from
// several goroutines, one per destination, but never concurrently on the
// same destination.
type Destination interface {
	Write(ctx context.Context, data []byte) error
}

// Scheduler runs periodic snapshot exports to one or more destinations.
type Scheduler struct {
	source       Source
	rows         Rows
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running sync.Mutex // held for the length of one SyncNow
}

// NewScheduler creates a scheduler that exports from src to the given
// destinations at the specified interval.
func NewScheduler(src Source, rows Rows, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		source:       src,
		rows:         rows,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
	}
}

// Start runs one sync right away, then one per interval until Stop.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for the current sync (if any) to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	s.syncOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.syncOnce(ctx)
		}
	}
}

func (s *Scheduler) syncOnce(ctx context.Context) {
	if err := s.SyncNow(ctx); err != nil {
		s.logger.Error("sync failed", "err", err)
	}
}

// SyncNow exports one snapshot and writes it to every destination
// concurrently. A failing destination does not stop the others; their errors
// are joined. Overlapping calls are serialized.
func (s *Scheduler) SyncNow(ctx context.Context) error {
	s.running.Lock()
	defer s.running.Unlock()

	var buf bytes.Buffer
	if err := ExportJSONL(ctx, s.source, s.rows, &buf); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	data := buf.Bytes()

	errs := make([]error, len(s.destinations))
	var g errgroup.Group
	for i, dest := range s.destinations {
		g.Go(func() error {
			if err := dest.Write(ctx, data); err != nil {
				s.logger.Error("sync destination write failed", "destination", i, "err", err)
				errs[i] = fmt.Errorf("destination %d: %w", i, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	err := errors.Join(errs...)
	failed := 0
	for _, e := range errs {
		if e != nil {
			failed++
		}
	}
	s.logger.Info("sync completed", "destinations", len(s.destinations), "failed", failed, "bytes", len(data))
	return err
}
