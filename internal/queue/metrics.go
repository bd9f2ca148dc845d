package queue

// Metrics observes engine-level events. Optional; a nil Metrics is treated
// as noopMetrics so callers that don't care about observability pay
// nothing for it. internal/metrics provides a Prometheus-backed
// implementation.
type Metrics interface {
	ObservePut(messages int)
	ObservePop()
	ObserveVacuum(danglingDeleted, hwmDeleted int)
}

type noopMetrics struct{}

func (noopMetrics) ObservePut(int)         {}
func (noopMetrics) ObservePop()            {}
func (noopMetrics) ObserveVacuum(int, int) {}
