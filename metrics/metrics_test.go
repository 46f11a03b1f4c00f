package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSubscriptionCheck("local", true)
	c.RecordSubscriptionCheck("local", true)
	c.RecordSubscriptionCheck("", false)
	c.RecordWebhookEvent("active")
	c.RecordProviderCall("cakto", "list_subscriptions", "error")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.subscriptionChecks.WithLabelValues("local", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.subscriptionChecks.WithLabelValues("none", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.webhookEvents.WithLabelValues("active")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.providerCalls.WithLabelValues("cakto", "list_subscriptions", "error")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordWebhookEvent("cancelled")

	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `aprovia_webhook_events_total{status="cancelled"} 1`)
}

func TestGetDefaultsToNoop(t *testing.T) {
	Set(nil)
	assert.NotPanics(t, func() {
		Get().RecordWebhookEvent("active")
		Get().RecordSubscriptionCheck("admin", true)
		Get().RecordProviderCall("ai", "chat", "ok")
	})
}
