package metrics

import (
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Collector implements internal/storage/kvs.MetricsHook and
// internal/queue.Metrics against a dedicated Prometheus registry, so a
// process embedding this library can expose /metrics without colliding
// with the default global registry.
type Collector struct {
	registry *prometheus.Registry

	commitLatency *prometheus.HistogramVec
	commitKeys    *prometheus.HistogramVec

	putMessages prometheus.Counter
	popTotal    prometheus.Counter

	danglingPruned prometheus.Counter
	hwmPruned      prometheus.Counter
}

// New builds a Collector with its own registry. Only the collector's own
// counters and histograms are registered; the Go runtime/process
// collectors are not.
func New(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		commitLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "commit_seconds",
			Help:      "Transaction commit latency by kind (read/write).",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"kind"}),

		commitKeys: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "commit_keys",
			Help:      "Number of keys touched per committed transaction.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"kind"}),

		putMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "put_messages_total",
			Help:      "Total messages accepted by Put/PutMany.",
		}),

		popTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "pop_total",
			Help:      "Total successful Pop calls.",
		}),

		danglingPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "dangling_pruned_total",
			Help:      "Total messages removed by prune_dangling.",
		}),

		hwmPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "hwm_pruned_total",
			Help:      "Total messages removed by prune_half.",
		}),
	}

	c.registry.MustRegister(
		c.commitLatency, c.commitKeys,
		c.putMessages, c.popTotal,
		c.danglingPruned, c.hwmPruned,
	)
	return c
}

// Registry returns the collector's dedicated registry for exposition via
// promhttp.HandlerFor.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// WriteText gathers the registry and writes it to w in Prometheus's text
// exposition format. This library is host-local only (no network
// transport), so this is how a CLI or embedding process reads the counters
// without standing up an HTTP endpoint.
func (c *Collector) WriteText(w io.Writer) error {
	families, err := c.registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

// ObserveCommit implements internal/storage/kvs.MetricsHook.
func (c *Collector) ObserveCommit(kind string, elapsed time.Duration, keys int) {
	c.commitLatency.WithLabelValues(kind).Observe(elapsed.Seconds())
	c.commitKeys.WithLabelValues(kind).Observe(float64(keys))
}

// ObservePut implements internal/queue.Metrics.
func (c *Collector) ObservePut(messages int) {
	c.putMessages.Add(float64(messages))
}

// ObservePop implements internal/queue.Metrics.
func (c *Collector) ObservePop() {
	c.popTotal.Inc()
}

// ObserveVacuum implements internal/queue.Metrics.
func (c *Collector) ObserveVacuum(danglingDeleted, hwmDeleted int) {
	c.danglingPruned.Add(float64(danglingDeleted))
	c.hwmPruned.Add(float64(hwmDeleted))
}
