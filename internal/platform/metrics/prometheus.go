package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "identity_sync"

// Webhook outcomes recorded on WebhookEvents.
const (
	OutcomeProcessed = "processed"
	OutcomeIgnored   = "ignored"
	OutcomeRejected  = "rejected"
	OutcomeInvalid   = "invalid"
	OutcomeFailed    = "failed"
)

// Prom holds the service's Prometheus collectors. A nil *Prom records nothing.
type Prom struct {
	gatherer prometheus.Gatherer

	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec

	// Webhooks
	WebhookEvents *prometheus.CounterVec

	// Role sync
	RoleSyncResults *prometheus.CounterVec
	RoleSyncPending prometheus.Gauge
}

// NewDefault registers the collectors on the process-wide default registry.
func NewDefault() *Prom {
	return New(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

func New(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Prom {
	p := &Prom{
		gatherer: gatherer,
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		WebhookEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "webhook",
				Name:      "events_total",
				Help:      "Webhook deliveries by event type and outcome.",
			},
			[]string{"event_type", "outcome"},
		),
		RoleSyncResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "role_sync",
				Name:      "pushes_total",
				Help:      "Role pushes to the identity provider by trigger and result.",
			},
			[]string{"trigger", "result"}, // trigger=webhook|retry, result=ok|failed
		),
		RoleSyncPending: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "role_sync",
				Name:      "pending",
				Help:      "Role pushes waiting for a retry, as of the last retry run.",
			},
		),
	}
	reg.MustRegister(p.RequestsTotal, p.RequestsDuration, p.InFlight, p.WebhookEvents, p.RoleSyncResults, p.RoleSyncPending)

	return p
}

func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if p == nil {
			ctx.Next()
			return
		}
		start := time.Now()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}

		method := ctx.Request.Method
		p.InFlight.WithLabelValues(method, route).Inc()
		defer p.InFlight.WithLabelValues(method, route).Dec()
		ctx.Next()

		status := strconv.Itoa(ctx.Writer.Status())
		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prom) Handler() gin.HandlerFunc {
	gatherer := prometheus.DefaultGatherer
	if p != nil && p.gatherer != nil {
		gatherer = p.gatherer
	}
	return gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}

func (p *Prom) ObserveWebhook(eventType, outcome string) {
	if p == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	p.WebhookEvents.WithLabelValues(eventType, outcome).Inc()
}

func (p *Prom) ObserveRoleSync(trigger string, err error) {
	if p == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "failed"
	}
	p.RoleSyncResults.WithLabelValues(trigger, result).Inc()
}

func (p *Prom) SetRoleSyncPending(n int64) {
	if p == nil {
		return
	}
	p.RoleSyncPending.Set(float64(n))
}
