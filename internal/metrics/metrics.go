// Package metrics exposes Prometheus counters for record mutations, logins
// and searches, plus store gauges sampled at scrape time.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

const namespace = "inventory"

// Login results.
const (
	LoginAdmin   = "admin"
	LoginUser    = "user"
	LoginInvalid = "invalid"
)

// Search outcomes.
const (
	SearchHit     = "hit"
	SearchEmpty   = "empty"
	SearchInvalid = "invalid"
)

// Metrics owns a private registry so tests can build as many as they need.
// A nil *Metrics records nothing.
type Metrics struct {
	registry  *prometheus.Registry
	mutations *prometheus.CounterVec
	logins    *prometheus.CounterVec
	searches  *prometheus.CounterVec
}

func New() *Metrics {
	startTime := time.Now()

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_mutations_total",
			Help:      "Committed record mutations by table and action.",
		}, []string{"table", "action"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by resolved role.",
		}, []string{"result"}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Searches by table and outcome.",
		}, []string{"table", "outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Time since server start in seconds.",
		}, func() float64 { return time.Since(startTime).Seconds() }),
		m.mutations,
		m.logins,
		m.searches,
	)
	return m
}

// WatchDB registers connection pool stats and a row count gauge per table.
func (m *Metrics) WatchDB(db *gorm.DB, tables ...string) error {
	if m == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if err := m.registry.Register(collectors.NewDBStatsCollector(sqlDB, namespace)); err != nil {
		return err
	}

	for _, table := range tables {
		table := table
		gauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "table_rows",
			Help:        "Number of rows per table.",
			ConstLabels: prometheus.Labels{"table": table},
		}, func() float64 {
			var n int64
			if err := db.Table(table).Count(&n).Error; err != nil {
				return -1
			}
			return float64(n)
		})
		if err := m.registry.Register(gauge); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) RecordMutation(table, action string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(table, action).Inc()
}

func (m *Metrics) RecordLogin(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordSearch(table, outcome string) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(table, outcome).Inc()
}

// Registry is exposed for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
