package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/cugino/restaurant-auth/internal/core/domain"
	"github.com/cugino/restaurant-auth/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	recordTimeout  = 5 * time.Second
)

// Dispatcher routes drained domain events to a fixed set of workers using
// consistent hashing on the entity id, guaranteeing per-user event
// ordering in the audit trail. Recording is best-effort: failures are
// logged and the event is dropped, never surfaced to the request.
type Dispatcher struct {
	workers []chan domain.Event
	sink    ports.EventSink
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sink ports.EventSink, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.Event, numWorkers),
		sink:    sink,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Event, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Publish enqueues events preserving per-user ordering. Non-blocking up to
// channelBuffer capacity per worker; beyond that the publishing request
// waits, which in practice means the audit store is down.
func (d *Dispatcher) Publish(events []domain.Event) {
	for _, e := range events {
		d.workers[d.shardIndex(e.EntityID)] <- e
	}
}

// shardIndex maps an entity id deterministically to a worker index.
func (d *Dispatcher) shardIndex(entityID int64) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strconv.FormatInt(entityID, 10)))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			recordCtx, cancel := context.WithTimeout(ctx, recordTimeout)
			err := d.sink.Record(recordCtx, event)
			cancel()
			if err != nil {
				d.log.Error().Err(err).
					Int64("entity_id", event.EntityID).
					Str("event_type", string(event.Type)).
					Int("worker_id", id).
					Msg("audit event recording failed")
			}
		}
	}
}
