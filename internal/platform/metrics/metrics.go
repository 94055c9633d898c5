package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the application. A nil *Metrics
// is valid and records nothing, which keeps unit tests free of global
// registry collisions.
type Metrics struct {
	CreditorsCreated    prometheus.Counter
	Uploads             *prometheus.CounterVec
	CertificatesFetched prometheus.Counter
	RegistryDuration    prometheus.Histogram
	RequestDuration     *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		CreditorsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mercatorio_creditors_created_total",
			Help: "Total number of creditors created",
		}),
		Uploads: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mercatorio_uploads_total",
			Help: "Uploads processed by the ingestion pipeline, by kind and outcome",
		}, []string{"kind", "outcome"}),
		CertificatesFetched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mercatorio_certificates_fetched_total",
			Help: "Certificates inserted by automatic registry fetches",
		}),
		RegistryDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "mercatorio_registry_query_duration_seconds",
			Help:    "Duration of external registry queries",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mercatorio_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"route", "status"}),
	}
}

// IncrementCreditorsCreated records a successful creditor creation.
func (m *Metrics) IncrementCreditorsCreated() {
	if m == nil {
		return
	}
	m.CreditorsCreated.Inc()
}

// ObserveUpload records one ingestion attempt for the given kind
// ("document" or "certificate") and outcome ("ok", "rejected", "error").
func (m *Metrics) ObserveUpload(kind, outcome string) {
	if m == nil {
		return
	}
	m.Uploads.WithLabelValues(kind, outcome).Inc()
}

// AddCertificatesFetched records certificates inserted by an automatic fetch.
func (m *Metrics) AddCertificatesFetched(n int) {
	if m == nil {
		return
	}
	m.CertificatesFetched.Add(float64(n))
}

// ObserveRegistryQuery records the duration of one registry round trip.
// Call with time.Now() captured at the start of the query.
func (m *Metrics) ObserveRegistryQuery(start time.Time) {
	if m == nil {
		return
	}
	m.RegistryDuration.Observe(time.Since(start).Seconds())
}

// ObserveRequest records HTTP request latency for a route/status pair.
func (m *Metrics) ObserveRequest(route, status string, start time.Time) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route, status).Observe(time.Since(start).Seconds())
}
