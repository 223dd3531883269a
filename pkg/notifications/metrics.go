package notifications

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics observes dispatch outcomes.
type Metrics interface {
	ChannelDelivered(ch Channel, outcome ChannelOutcome, d time.Duration)
	Dispatched(status DeliveryStatus)
}

// NoopMetrics discards observations.
type NoopMetrics struct{}

func (NoopMetrics) ChannelDelivered(Channel, ChannelOutcome, time.Duration) {}
func (NoopMetrics) Dispatched(DeliveryStatus)                               {}

// PrometheusMetrics exports dispatch counters and channel latency.
type PrometheusMetrics struct {
	deliveries *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	dispatches *prometheus.CounterVec
}

// NewPrometheusMetrics registers the collectors with reg. A nil reg uses
// the default registerer.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &PrometheusMetrics{
		deliveries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "notifykit_channel_deliveries_total",
			Help: "Channel delivery attempts by channel and outcome.",
		}, []string{"channel", "outcome"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "notifykit_channel_delivery_duration_seconds",
			Help:    "Channel delivery latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"channel"}),
		dispatches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "notifykit_dispatches_total",
			Help: "Completed dispatch calls by resulting delivery status.",
		}, []string{"status"}),
	}
}

func (m *PrometheusMetrics) ChannelDelivered(ch Channel, outcome ChannelOutcome, d time.Duration) {
	m.deliveries.WithLabelValues(string(ch), string(outcome)).Inc()
	m.latency.WithLabelValues(string(ch)).Observe(d.Seconds())
}

func (m *PrometheusMetrics) Dispatched(status DeliveryStatus) {
	m.dispatches.WithLabelValues(string(status)).Inc()
}
