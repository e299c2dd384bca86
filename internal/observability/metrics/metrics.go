package metrics

import "github.com/prometheus/client_golang/prometheus"

// EngineMetrics exposes counters/histograms for conflict detection and
// resolution flows.
type EngineMetrics struct {
	conflictsDetected *prometheus.CounterVec
	autoResolutions   *prometheus.CounterVec
	pairsDropped      prometheus.Counter
	batchDuration     *prometheus.HistogramVec
}

func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	m := &EngineMetrics{
		conflictsDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "callsift",
			Subsystem: "conflict",
			Name:      "detected_total",
			Help:      "Total conflicts detected by type and strategy",
		}, []string{"conflict_type", "strategy"}),
		autoResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "callsift",
			Subsystem: "conflict",
			Name:      "auto_resolutions_total",
			Help:      "Total automatic resolution attempts",
		}, []string{"status"}),
		pairsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "callsift",
			Subsystem: "conflict",
			Name:      "pairs_dropped_total",
			Help:      "Candidate pairs dropped for hydration or data errors",
		}),
		batchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "callsift",
			Subsystem: "conflict",
			Name:      "batch_duration_seconds",
			Help:      "Latency of a full detection pass",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.conflictsDetected, m.autoResolutions, m.pairsDropped, m.batchDuration)
	return m
}

func (m *EngineMetrics) ObserveConflict(conflictType, strategy string) {
	if m == nil {
		return
	}
	m.conflictsDetected.WithLabelValues(conflictType, strategy).Inc()
}

func (m *EngineMetrics) ObserveAutoResolution(status string) {
	if m == nil {
		return
	}
	m.autoResolutions.WithLabelValues(status).Inc()
}

func (m *EngineMetrics) ObserveDroppedPair() {
	if m == nil {
		return
	}
	m.pairsDropped.Inc()
}

func (m *EngineMetrics) ObserveBatchDuration(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.batchDuration.WithLabelValues(outcome).Observe(seconds)
}
