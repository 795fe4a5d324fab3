package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the service. Collectors are
// registered on the default registry, so /metrics can be served with the
// stock promhttp handler.
type Metrics struct {
	RequestCounter   *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	ValidationsTotal *prometheus.CounterVec
	ValidationErrors *prometheus.CounterVec
	PolicyMatches    *prometheus.CounterVec
	CampaignMessages *prometheus.CounterVec
	WSClients        prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		RequestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "whatsapp_crm",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "whatsapp_crm",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		ValidationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "whatsapp_crm",
				Subsystem: "template",
				Name:      "validations_total",
				Help:      "Template validations by result",
			},
			[]string{"result"},
		),
		ValidationErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "whatsapp_crm",
				Subsystem: "template",
				Name:      "validation_errors_total",
				Help:      "Validation errors by code",
			},
			[]string{"code"},
		),
		PolicyMatches: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "whatsapp_crm",
				Subsystem: "policy",
				Name:      "matches_total",
				Help:      "Policy rule matches by list",
			},
			[]string{"list"},
		),
		CampaignMessages: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "whatsapp_crm",
				Subsystem: "campaign",
				Name:      "messages_total",
				Help:      "Campaign messages by delivery status",
			},
			[]string{"status"},
		),
		WSClients: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "whatsapp_crm",
				Subsystem: "ws",
				Name:      "clients",
				Help:      "Connected websocket clients",
			},
		),
	}
}

// GinMiddleware records request counts and latency per route. The route
// template (c.FullPath) is used instead of the raw URL to keep label
// cardinality bounded.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.RequestCounter.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
