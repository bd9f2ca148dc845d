// Package metrics wires Prometheus collectors into the two observer seams
// exposed by the storage and queue layers: kvs.MetricsHook (commit-level)
// and queue.Metrics (operation-level). A Collector satisfies both, so a
// single instance can be passed to queue.WithMetrics and
// queue.WithStorageMetricsHook.
package metrics
