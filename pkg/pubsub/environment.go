package pubsub

import (
	"fmt"

	"github.com/rzbill/pubsubd/internal/metrics"
	"github.com/rzbill/pubsubd/internal/queue"
)

// Environment factories Publisher and Subscriber handles over a single
// initialized queue directory. All facades it produces share one
// underlying Queue handle: Pebble holds an exclusive lock per directory per
// process, so a second independently-opened handle on the same dir would
// fail to open rather than coexist.
type Environment struct {
	dir     string
	queue   *queue.Queue
	metrics *metrics.Collector
}

// Open opens the queue directory at dir and returns an Environment ready to
// factory Publisher and Subscriber facades. dir must already be initialized
// (see internal/control.Control.Init). Every Put/Pop/Vacuum and storage
// commit this Environment drives is observed by a dedicated Prometheus
// registry, retrievable via Metrics.
func Open(dir string) (*Environment, error) {
	collector := metrics.New("pubsubd")
	q, err := queue.Open(dir,
		queue.WithMetrics(collector),
		queue.WithStorageMetricsHook(collector),
	)
	if err != nil {
		return nil, fmt.Errorf("pubsub: open environment: %w", err)
	}
	return &Environment{dir: dir, queue: q, metrics: collector}, nil
}

// Metrics returns the Prometheus collector backing this Environment's
// queue, for callers that want to export or print it (see
// metrics.Collector.WriteText). This library has no network transport of
// its own, so scraping is the caller's responsibility.
func (e *Environment) Metrics() *metrics.Collector {
	return e.metrics
}

// Close releases the underlying queue handle.
func (e *Environment) Close() error {
	return e.queue.Close()
}

// NewPublisher returns a Publisher over this Environment's queue. autosync
// selects whether every Send forces a WAL sync (true) or defers durability
// to the store's own schedule (false); it is decided per send, not fixed at
// Environment-open time, so multiple publishers with different autosync
// settings can share one Environment.
func (e *Environment) NewPublisher(autosync bool) *Publisher {
	return &Publisher{queue: e.queue, autosync: autosync}
}

// NewSubscriber returns a Subscriber bound to subscriber id, which must
// already be registered.
func (e *Environment) NewSubscriber(id string) *Subscriber {
	return &Subscriber{id: id, queue: e.queue}
}
