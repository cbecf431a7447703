// Showfinder - Card Show Discovery and Geo-Radius Query Backend
// Copyright 2026 Card Show Finder
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cardshowfinder/showfinder

package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cardshowfinder/showfinder/internal/logging"
)

// Recorder buffers audit events and writes them to the store off the
// request path. A full buffer drops the event with a warning rather than
// stalling the quota endpoint.
type Recorder struct {
	store     Store
	eventChan chan *Event
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewRecorder creates a recorder and starts its writer goroutine.
func NewRecorder(store Store, bufferSize int) *Recorder {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	r := &Recorder{
		store:     store,
		eventChan: make(chan *Event, bufferSize),
		stopChan:  make(chan struct{}),
	}
	r.wg.Add(1)
	go r.writeLoop()
	return r
}

func (r *Recorder) writeLoop() {
	defer r.wg.Done()
	for {
		select {
		case <-r.stopChan:
			// Drain what is already buffered before exiting.
			for {
				select {
				case event := <-r.eventChan:
					r.write(event)
				default:
					return
				}
			}
		case event := <-r.eventChan:
			r.write(event)
		}
	}
}

func (r *Recorder) write(event *Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.store.Save(ctx, event); err != nil {
		logging.Error().Err(err).Str("event_id", event.ID).Msg("Failed to save audit event")
	}
}

// RecordConsumption records one quota consumption attempt. The request ID
// is taken from the context so the event can be correlated with the access
// log line.
func (r *Recorder) RecordConsumption(ctx context.Context, organizerID, kind string, outcome Outcome, remaining int) {
	event := &Event{
		ID:          uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		OrganizerID: organizerID,
		Kind:        kind,
		Outcome:     outcome,
		Remaining:   remaining,
		RequestID:   logging.RequestID(ctx),
	}

	select {
	case r.eventChan <- event:
	default:
		logging.Warn().Str("organizer_id", organizerID).Msg("Audit buffer full, dropping event")
	}
}

// StartCleanup purges events older than the retention period on the given
// interval, until the context is canceled.
func (r *Recorder) StartCleanup(ctx context.Context, interval, retention time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				deleted, err := r.store.Delete(ctx, time.Now().Add(-retention))
				if err != nil {
					logging.Error().Err(err).Msg("Audit cleanup failed")
				} else if deleted > 0 {
					logging.Info().Int64("count", deleted).Msg("Purged old audit events")
				}
			}
		}
	}()
}

// Close stops the writer after draining buffered events.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		close(r.stopChan)
	})
	r.wg.Wait()
	return nil
}
