package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	SourceMemory  = "memory"
	SourceShared  = "shared"
	SourceNetwork = "network"
)

// Metrics tracks the facet and result queries. A nil *Metrics is a no-op.
type Metrics struct {
	QueryLookups  *prometheus.CounterVec
	QueryFailures *prometheus.CounterVec
	StaleDiscards *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		QueryLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "facetsync_query_lookups_total",
				Help: "Query lookups by kind and the layer that served them",
			},
			[]string{"kind", "source"},
		),
		QueryFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "facetsync_query_failures_total",
				Help: "Failed remote queries by kind",
			},
			[]string{"kind"},
		),
		StaleDiscards: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "facetsync_stale_responses_total",
				Help: "Responses dropped because their key was no longer active",
			},
			[]string{"kind"},
		),
		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "facetsync_fetch_duration_seconds",
				Help:    "Latency of remote catalog requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.QueryLookups, m.QueryFailures, m.StaleDiscards, m.FetchDuration)
	}
	return m
}

func (m *Metrics) Lookup(kind, source string) {
	if m == nil {
		return
	}
	m.QueryLookups.WithLabelValues(kind, source).Inc()
}

func (m *Metrics) Failure(kind string) {
	if m == nil {
		return
	}
	m.QueryFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) StaleDiscard(kind string) {
	if m == nil {
		return
	}
	m.StaleDiscards.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveFetch(kind string, started time.Time) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
}
