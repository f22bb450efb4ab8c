package sitegate

import "sync/atomic"

// MetricID indexes one engine counter.
type MetricID uint16

const (
	// MetricDecisionAllowed counts positive policy decisions.
	MetricDecisionAllowed MetricID = iota
	// MetricDecisionDenied counts negative policy decisions.
	MetricDecisionDenied
	// MetricEvaluationError counts fatal evaluation failures.
	MetricEvaluationError
	// MetricProjectNotFound counts lookups of missing projects.
	MetricProjectNotFound
	// MetricResolveFailure counts failed credential resolutions.
	MetricResolveFailure
	// MetricSignIn counts successful sign-ins.
	MetricSignIn
	// MetricSignOut counts sign-outs.
	MetricSignOut
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds the engine counters. Safe for concurrent use; a nil or
// disabled Metrics is a no-op.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// NewMetrics returns Metrics honoring cfg.Enabled.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc increments one counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// Snapshot copies every counter.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricIDCount)}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = m.Value(id)
	}
	return snap
}
