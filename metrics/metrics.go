// Package metrics exposes Prometheus counters for subscription checks,
// webhook ingestion and outbound provider calls.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the interface the services report to
type Recorder interface {
	RecordSubscriptionCheck(source string, hasSubscription bool)
	RecordWebhookEvent(status string)
	RecordProviderCall(provider, operation, outcome string)
}

// Collector is the Prometheus implementation of Recorder
type Collector struct {
	subscriptionChecks *prometheus.CounterVec
	webhookEvents      *prometheus.CounterVec
	providerCalls      *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		subscriptionChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aprovia_subscription_checks_total",
			Help: "Subscription checks by deciding source and result",
		}, []string{"source", "has_subscription"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aprovia_webhook_events_total",
			Help: "Payment webhook deliveries by resulting status",
		}, []string{"status"}),
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aprovia_provider_calls_total",
			Help: "Outbound calls to third-party providers by operation and outcome",
		}, []string{"provider", "operation", "outcome"}),
	}

	reg.MustRegister(c.subscriptionChecks, c.webhookEvents, c.providerCalls)
	return c
}

// RecordSubscriptionCheck counts one check-subscription answer
func (c *Collector) RecordSubscriptionCheck(source string, hasSubscription bool) {
	if source == "" {
		source = "none"
	}
	result := "false"
	if hasSubscription {
		result = "true"
	}
	c.subscriptionChecks.WithLabelValues(source, result).Inc()
}

// RecordWebhookEvent counts one webhook delivery
func (c *Collector) RecordWebhookEvent(status string) {
	c.webhookEvents.WithLabelValues(status).Inc()
}

// RecordProviderCall counts one outbound provider call
func (c *Collector) RecordProviderCall(provider, operation, outcome string) {
	c.providerCalls.WithLabelValues(provider, operation, outcome).Inc()
}

// Handler serves the metrics registered on gatherer
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

type nopRecorder struct{}

func (nopRecorder) RecordSubscriptionCheck(string, bool)      {}
func (nopRecorder) RecordWebhookEvent(string)                 {}
func (nopRecorder) RecordProviderCall(string, string, string) {}

var recorder Recorder = nopRecorder{}

// Get returns the process recorder; a no-op until Set is called
func Get() Recorder {
	return recorder
}

// Set installs the process recorder
func Set(r Recorder) {
	if r == nil {
		r = nopRecorder{}
	}
	recorder = r
}
