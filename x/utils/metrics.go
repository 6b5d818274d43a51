package utils

import (
	"time"

	weave "github.com/iov-one/grantd"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is a decorator that counts processed transactions and measures how
// long they took, labeled by message path and result.
type Metrics struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ weave.Decorator = Metrics{}

// NewMetrics creates a Metrics decorator. Collectors are registered with
// given registerer. This function panics if registration fails, so it
// must be called only once per registerer.
func NewMetrics(reg prometheus.Registerer) Metrics {
	m := Metrics{
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grantd",
			Subsystem: "tx",
			Name:      "processed_total",
			Help:      "Number of processed transactions.",
		}, []string{"phase", "path", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "grantd",
			Subsystem: "tx",
			Name:      "duration_seconds",
			Help:      "Transaction processing time.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"phase", "path"}),
	}
	reg.MustRegister(m.total, m.duration)
	return m
}

// Check measures the check call.
func (m Metrics) Check(ctx weave.Context, store weave.KVStore, tx weave.Tx, next weave.Checker) (*weave.CheckResult, error) {
	start := time.Now()
	res, err := next.Check(ctx, store, tx)
	m.observe("check", tx, start, err)
	return res, err
}

// Deliver measures the deliver call.
func (m Metrics) Deliver(ctx weave.Context, store weave.KVStore, tx weave.Tx, next weave.Deliverer) (*weave.DeliverResult, error) {
	start := time.Now()
	res, err := next.Deliver(ctx, store, tx)
	m.observe("deliver", tx, start, err)
	return res, err
}

func (m Metrics) observe(phase string, tx weave.Tx, start time.Time, err error) {
	path := msgPath(tx)
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.total.WithLabelValues(phase, path, result).Inc()
	m.duration.WithLabelValues(phase, path).Observe(time.Since(start).Seconds())
}
