package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/metrics"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/models"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/utils"
	"go.uber.org/zap"
)

// SignatureHeader carries the HMAC-SHA256 of the raw webhook body
const SignatureHeader = "X-Cakto-Signature"

// Webhook result statuses
const (
	WebhookStatusIgnored = "ignored"
	WebhookStatusError   = "error"
)

// WebhookResult is acknowledged to the provider with HTTP 200
type WebhookResult struct {
	Received bool   `json:"received"`
	Status   string `json:"status"`
	Email    string `json:"email,omitempty"`
	Event    string `json:"event,omitempty"`
	Warning  string `json:"warning,omitempty"`
	Error    string `json:"error,omitempty"`
}

// WebhookIngestor applies Cakto events to the local subscription store
type WebhookIngestor struct {
	secret  string
	store   *SubscriptionStore
	logger  *zap.Logger
	metrics metrics.Recorder
}

// NewWebhookIngestor creates an ingestor. An empty secret disables signature checks.
func NewWebhookIngestor(secret string, store *SubscriptionStore, logger *zap.Logger, recorder metrics.Recorder) *WebhookIngestor {
	return &WebhookIngestor{
		secret:  secret,
		store:   store,
		logger:  logger,
		metrics: recorder,
	}
}

// VerifySignature checks the header against the body. Accepted forms are "<hex>" and "sha256=<hex>".
func (w *WebhookIngestor) VerifySignature(body []byte, header string) error {
	if w.secret == "" {
		w.logger.Warn("CAKTO_WEBHOOK_SECRET not set; accepting unsigned webhook")
		return nil
	}

	sig := strings.TrimSpace(header)
	if len(sig) > 7 && strings.EqualFold(sig[:7], "sha256=") {
		sig = sig[7:]
	}
	provided, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil || len(provided) == 0 {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(w.secret))
	mac.Write(body)
	if !hmac.Equal(provided, mac.Sum(nil)) {
		return ErrInvalidSignature
	}
	return nil
}

// Ingest parses a verified delivery and applies it. It never fails; problems are
// reported in the result so the provider stops retrying.
func (w *WebhookIngestor) Ingest(ctx context.Context, body []byte) WebhookResult {
	result := w.ingest(ctx, body)
	w.metrics.RecordWebhookEvent(result.Status)
	return result
}

func (w *WebhookIngestor) ingest(ctx context.Context, body []byte) WebhookResult {
	var root map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&root); err != nil {
		w.logger.Warn("Webhook body is not a JSON object", zap.Error(err))
		return WebhookResult{Received: true, Status: WebhookStatusIgnored, Warning: "invalid JSON payload"}
	}

	event := firstString(root, "event", "type", "action")
	payload, ok := root["data"].(map[string]interface{})
	if !ok {
		payload = root
	}

	rawEmail := firstNonEmpty(
		nestedString(payload, "customer", "email"),
		stringField(payload, "customer_email"),
		stringField(payload, "email"),
		nestedString(payload, "buyer", "email"),
		nestedString(root, "customer", "email"),
		stringField(root, "email"),
	)
	if rawEmail == "" {
		w.logger.Info("Webhook without customer email", zap.String("event", event))
		return WebhookResult{Received: true, Status: WebhookStatusIgnored, Event: event, Warning: "no customer email in payload"}
	}

	email := utils.NormalizeEmail(rawEmail)
	if !utils.IsValidEmail(email) {
		w.logger.Info("Webhook with invalid customer email", zap.String("event", event))
		return WebhookResult{Received: true, Status: WebhookStatusIgnored, Event: event, Warning: "invalid customer email"}
	}

	status := firstNonEmpty(stringField(payload, "status"), stringField(root, "status"))
	action := ClassifyEvent(event, status)
	result := WebhookResult{Received: true, Email: email, Event: event}

	switch action {
	case ActionActivate:
		params := ActivateParams{
			Email:               email,
			UserID:              w.store.UserIDForEmail(ctx, email),
			CaktoSubscriptionID: subscriptionIDFrom(payload),
			CaktoOrderID:        orderIDFrom(payload),
			ExpiresAt: parseProviderTime(firstNonEmpty(
				stringField(payload, "next_payment_date"),
				nestedString(payload, "subscription", "next_payment_date"),
				stringField(payload, "expires_at"),
			)),
		}
		sub, created, err := w.store.Activate(ctx, params)
		if err != nil {
			w.logger.Error("Failed to apply activation", zap.String("email", email), zap.String("event", event), zap.Error(err))
			result.Status = WebhookStatusError
			result.Error = err.Error()
			return result
		}
		w.logger.Info("Subscription activated from webhook",
			zap.String("email", email),
			zap.String("event", event),
			zap.Uint("subscription_id", sub.ID),
			zap.Bool("created", created),
		)
		result.Status = models.SubscriptionActive

	case ActionCancel:
		rows, err := w.store.Cancel(ctx, email)
		if err != nil {
			w.logger.Error("Failed to apply cancellation", zap.String("email", email), zap.String("event", event), zap.Error(err))
			result.Status = WebhookStatusError
			result.Error = err.Error()
			return result
		}
		w.logger.Info("Subscription cancelled from webhook", zap.String("email", email), zap.String("event", event), zap.Int64("rows", rows))
		result.Status = models.SubscriptionCancelled

	case ActionIgnore:
		w.logger.Debug("Ignoring webhook event", zap.String("event", event), zap.String("status", status))
		result.Status = models.SubscriptionPending

	default:
		w.logger.Warn("Unknown webhook event", zap.String("event", event), zap.String("status", status), zap.String("email", email))
		result.Status = models.SubscriptionPending
	}

	return result
}

func subscriptionIDFrom(payload map[string]interface{}) string {
	return firstNonEmpty(
		stringField(payload, "subscription_id"),
		nestedString(payload, "subscription", "id"),
		stringField(payload, "subscription"),
		stringField(payload, "id"),
	)
}

func orderIDFrom(payload map[string]interface{}) string {
	return firstNonEmpty(
		stringField(payload, "order_id"),
		nestedString(payload, "order", "id"),
		stringField(payload, "refId"),
	)
}

// stringField reads a string or number field; anything else is ""
func stringField(m map[string]interface{}, key string) string {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	}
	return ""
}

func nestedString(m map[string]interface{}, object, key string) string {
	inner, ok := m[object].(map[string]interface{})
	if !ok {
		return ""
	}
	return stringField(inner, key)
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v := stringField(m, k); v != "" {
			return v
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
