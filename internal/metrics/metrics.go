package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	ResponderCallsTotal   *prometheus.CounterVec
	ResponderCallDuration *prometheus.HistogramVec

	LinkLookupsTotal   *prometheus.CounterVec
	LinkLookupDuration *prometheus.HistogramVec

	HistoryWritesTotal   *prometheus.CounterVec
	StaleDeliveriesTotal prometheus.Counter

	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	RateLimitHitsTotal *prometheus.CounterVec
}

// New регистрирует метрики в глобальном registry
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer - для тестов, чтобы не было повторной регистрации
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ikar_requests_total",
				Help: "Total number of search requests processed",
			},
			[]string{"type", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ikar_request_duration_seconds",
				Help:    "Search request duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"type"},
		),
		RequestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "ikar_requests_in_flight",
				Help: "Number of searches currently being composed",
			},
		),

		ResponderCallsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ikar_responder_calls_total",
				Help: "Total number of responder calls",
			},
			[]string{"responder", "status"},
		),
		ResponderCallDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ikar_responder_call_duration_seconds",
				Help:    "Responder call duration in seconds",
				Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"responder"},
		),

		LinkLookupsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ikar_link_lookups_total",
				Help: "Total number of link lookups",
			},
			[]string{"provider", "status"},
		),
		LinkLookupDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ikar_link_lookup_duration_seconds",
				Help:    "Link lookup duration in seconds",
				Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{"provider"},
		),

		HistoryWritesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ikar_history_writes_total",
				Help: "Total number of history writes",
			},
			[]string{"status"},
		),
		StaleDeliveriesTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "ikar_stale_deliveries_total",
				Help: "Search results discarded because a newer search was submitted",
			},
		),

		CacheHitsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "ikar_cache_hits_total",
				Help: "Total number of link cache hits",
			},
		),
		CacheMissesTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "ikar_cache_misses_total",
				Help: "Total number of link cache misses",
			},
		),

		RateLimitHitsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ikar_rate_limit_hits_total",
				Help: "Total number of rate limit hits",
			},
			[]string{"shell"},
		),
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordRequest(reqType, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(reqType, status).Inc()
	m.RequestDuration.WithLabelValues(reqType).Observe(duration.Seconds())
}

func (m *Metrics) RecordResponderCall(responder, status string, duration time.Duration) {
	m.ResponderCallsTotal.WithLabelValues(responder, status).Inc()
	m.ResponderCallDuration.WithLabelValues(responder).Observe(duration.Seconds())
}

func (m *Metrics) RecordLinkLookup(provider, status string, duration time.Duration) {
	m.LinkLookupsTotal.WithLabelValues(provider, status).Inc()
	m.LinkLookupDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

func (m *Metrics) RecordHistoryWrite(status string) {
	m.HistoryWritesTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordStaleDelivery() {
	m.StaleDeliveriesTotal.Inc()
}

func (m *Metrics) RecordCacheHit() {
	m.CacheHitsTotal.Inc()
}

func (m *Metrics) RecordCacheMiss() {
	m.CacheMissesTotal.Inc()
}

func (m *Metrics) RecordRateLimitHit(shell string) {
	m.RateLimitHitsTotal.WithLabelValues(shell).Inc()
}

func (m *Metrics) IncRequestsInFlight() {
	m.RequestsInFlight.Inc()
}

func (m *Metrics) DecRequestsInFlight() {
	m.RequestsInFlight.Dec()
}
