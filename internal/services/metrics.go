package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// flushTotal counts flush attempts by result ("ok" or "error").
	flushTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cheshire_flush_total",
			Help: "Total number of environment flushes to the store.",
		},
		[]string{"result"},
	)

	flushDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cheshire_flush_duration_seconds",
			Help:    "Duration of environment flushes in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)

	cachedUsers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cheshire_cached_users",
			Help: "Number of users held by the environment cache.",
		},
	)

	cachedTriggers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cheshire_cached_triggers",
			Help: "Number of live (non-erased) triggers held by the environment cache.",
		},
	)
)

func init() {
	prometheus.MustRegister(flushTotal, flushDuration, cachedUsers, cachedTriggers)
}
