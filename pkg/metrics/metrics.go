package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the application collectors outside the HTTP layer
type Metrics struct {
	NotificationsRecorded *prometheus.CounterVec
	RecordFailures        prometheus.Counter
	ChannelSends          *prometheus.CounterVec
	ChannelLatency        *prometheus.HistogramVec
	ReportsCompiled       *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. Tests pass a
// fresh prometheus.NewRegistry().
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		NotificationsRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "recorded_total",
			Help:      "Notification records written, by triggering event",
		}, []string{"event"}),
		RecordFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "record_failures_total",
			Help:      "Notification records that could not be written",
		}),
		ChannelSends: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "channel_sends_total",
			Help:      "Channel send attempts, by channel and outcome",
		}, []string{"channel", "outcome"}),
		ChannelLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "channel_send_duration_seconds",
			Help:      "Duration of channel send attempts",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"channel"}),
		ReportsCompiled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reports",
			Name:      "compiled_total",
			Help:      "Reports compiled, by report type and trigger",
		}, []string{"report_type", "trigger"}),
	}
}

// Noop returns collectors registered nowhere.
func Noop() *Metrics {
	return NewMetrics(prometheus.NewRegistry(), "noop")
}
