package depgraph

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the collectors a session reports to. A nil *metrics records
// nothing.
type metrics struct {
	transferTotal     *prometheus.CounterVec
	localCacheTotal   *prometheus.CounterVec
	sessionCacheHits  *prometheus.CounterVec
	collectErrorTotal prometheus.Counter
	collectDuration   prometheus.Histogram
	resolveDuration   prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	if reg == nil {
		return nil, nil
	}
	m := &metrics{
		transferTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "depgraph_transfer_attempts_total",
				Help: "Number of remote fetch attempts by repository and outcome.",
			},
			[]string{"repository", "outcome"},
		),
		localCacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "depgraph_local_repository_lookups_total",
				Help: "Number of local repository lookups by result (hit, stale, miss).",
			},
			[]string{"result"},
		),
		sessionCacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "depgraph_session_cache_hits_total",
				Help: "Number of metadata and descriptor reads served from the session cache.",
			},
			[]string{"cache"},
		),
		collectErrorTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "depgraph_collection_errors_total",
				Help: "Number of dependencies that could not be collected.",
			},
		),
		collectDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "depgraph_collect_duration_seconds",
				Help:    "Time taken to collect a dependency tree.",
				Buckets: prometheus.DefBuckets,
			},
		),
		resolveDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "depgraph_resolve_duration_seconds",
				Help:    "Time taken to resolve a single artifact.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	var err error
	m.transferTotal = register(reg, m.transferTotal, &err)
	m.localCacheTotal = register(reg, m.localCacheTotal, &err)
	m.sessionCacheHits = register(reg, m.sessionCacheHits, &err)
	m.collectErrorTotal = register(reg, m.collectErrorTotal, &err)
	m.collectDuration = register(reg, m.collectDuration, &err)
	m.resolveDuration = register(reg, m.resolveDuration, &err)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// register registers c, reusing the collector already registered under the
// same descriptor so that several sessions can share one registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C, errp *error) C {
	if *errp != nil {
		return c
	}
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		*errp = err
	}
	return c
}

func (m *metrics) transfer(repoID, outcome string) {
	if m != nil {
		m.transferTotal.WithLabelValues(repoID, outcome).Inc()
	}
}

func (m *metrics) localLookup(result string) {
	if m != nil {
		m.localCacheTotal.WithLabelValues(result).Inc()
	}
}

func (m *metrics) cacheHit(cache string) {
	if m != nil {
		m.sessionCacheHits.WithLabelValues(cache).Inc()
	}
}

func (m *metrics) collectionErrors(n int) {
	if m != nil && n > 0 {
		m.collectErrorTotal.Add(float64(n))
	}
}

func (m *metrics) observeCollect(start time.Time) {
	if m != nil {
		m.collectDuration.Observe(time.Since(start).Seconds())
	}
}

func (m *metrics) observeResolve(start time.Time) {
	if m != nil {
		m.resolveDuration.Observe(time.Since(start).Seconds())
	}
}
