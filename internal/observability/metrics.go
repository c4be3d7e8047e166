package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the gateway.
type Metrics struct {
	SessionActive   prometheus.Gauge
	SessionEvents   *prometheus.CounterVec
	ProviderErrors  *prometheus.CounterVec
	KeepAliveTicks  *prometheus.CounterVec
	Renewals        *prometheus.CounterVec
	AttachAttempts  *prometheus.CounterVec
	PromptLatency   prometheus.Histogram
	NegotiationTime prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		SessionActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_active",
			Help:      "Whether an avatar session is currently active (0 or 1).",
		}),
		SessionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session lifecycle events by type.",
		}, []string{"event"}),
		ProviderErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Provider errors by operation and code.",
		}, []string{"operation", "code"}),
		KeepAliveTicks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keepalive_ticks_total",
			Help:      "Keep-alive ticks by outcome.",
		}, []string{"outcome"}),
		Renewals: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_renewals_total",
			Help:      "Automatic session renewals by outcome.",
		}, []string{"outcome"}),
		AttachAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_attach_attempts_total",
			Help:      "Stream attach attempts by source and outcome.",
		}, []string{"source", "outcome"}),
		PromptLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prompt_roundtrip_ms",
			Help:      "Backend completion round trip in milliseconds.",
			Buckets:   []float64{200, 500, 1000, 2000, 4000, 8000, 15000},
		}),
		NegotiationTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "negotiation_ms",
			Help:      "Manual SDP/ICE negotiation duration in milliseconds.",
			Buckets:   []float64{500, 1000, 2000, 5000, 10000, 15000, 20000},
		}),
	}
}

func (m *Metrics) ObservePromptLatency(d time.Duration) {
	m.PromptLatency.Observe(float64(d.Milliseconds()))
}

func (m *Metrics) ObserveNegotiationTime(d time.Duration) {
	m.NegotiationTime.Observe(float64(d.Milliseconds()))
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
