package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/config"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/metrics"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	// tokenRefreshMargin is how much validity a cached token must have left to be reused
	tokenRefreshMargin = 60 * time.Second
	// defaultTokenTTL caps tokens whose response carried no expires_in
	defaultTokenTTL = 10 * time.Minute
)

// FlexibleID accepts both JSON strings and numbers
type FlexibleID string

// UnmarshalJSON implements json.Unmarshaler
func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	switch {
	case raw == "null":
		*id = ""
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexibleID(s)
	default:
		*id = FlexibleID(raw)
	}
	return nil
}

// CaktoCustomer is the buyer attached to a subscription or order
type CaktoCustomer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CaktoSubscription is a recurring plan at the provider
type CaktoSubscription struct {
	ID              FlexibleID    `json:"id"`
	Status          string        `json:"status"`
	Customer        CaktoCustomer `json:"customer"`
	CustomerEmail   string        `json:"customer_email"`
	NextPaymentDate string        `json:"next_payment_date"`
	ExpiresAt       string        `json:"expires_at"`
	CreatedAt       string        `json:"created_at"`
}

// Email returns the subscriber's email from whichever field the provider filled
func (s CaktoSubscription) Email() string {
	if s.Customer.Email != "" {
		return s.Customer.Email
	}
	return s.CustomerEmail
}

// PeriodEnd returns when the current billing period ends, if the provider says
func (s CaktoSubscription) PeriodEnd() *time.Time {
	if t := parseProviderTime(s.NextPaymentDate); t != nil {
		return t
	}
	return parseProviderTime(s.ExpiresAt)
}

// CaktoOrder is a single charge at the provider
type CaktoOrder struct {
	ID             FlexibleID    `json:"id"`
	Status         string        `json:"status"`
	Customer       CaktoCustomer `json:"customer"`
	CustomerEmail  string        `json:"customer_email"`
	SubscriptionID FlexibleID    `json:"subscription_id"`
	PaidAt         string        `json:"paid_at"`
}

// Email returns the buyer's email from whichever field the provider filled
func (o CaktoOrder) Email() string {
	if o.Customer.Email != "" {
		return o.Customer.Email
	}
	return o.CustomerEmail
}

// ListQuery filters provider list endpoints; zero values are omitted
type ListQuery struct {
	CustomerEmail string
	Status        string
	Limit         int
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	if q.CustomerEmail != "" {
		v.Set("customer_email", q.CustomerEmail)
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// PaymentProvider is the subset of the Cakto public API the application uses
type PaymentProvider interface {
	AccessToken(ctx context.Context) (string, error)
	ListSubscriptions(ctx context.Context, query ListQuery) ([]CaktoSubscription, error)
	ListOrders(ctx context.Context, query ListQuery) ([]CaktoOrder, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
}

// CaktoClient calls the Cakto public API with a cached client-credentials token
type CaktoClient struct {
	baseURL    string
	tokens     *tokenCache
	httpClient *http.Client
	logger     *zap.Logger
	metrics    metrics.Recorder
}

var caktoClientInstance PaymentProvider

// InitCaktoClient initializes the payment provider client from configuration
func InitCaktoClient(cfg *config.Config, logger *zap.Logger) PaymentProvider {
	if !cfg.HasCaktoCredentials() {
		logger.Warn("Cakto credentials not configured; provider lookups are disabled")
		caktoClientInstance = unconfiguredProvider{}
		return caktoClientInstance
	}
	caktoClientInstance = NewCaktoClient(cfg, &http.Client{Timeout: 10 * time.Second}, logger, metrics.Get())
	return caktoClientInstance
}

// GetCaktoClient returns the initialized payment provider client
func GetCaktoClient() PaymentProvider {
	if caktoClientInstance == nil {
		return unconfiguredProvider{}
	}
	return caktoClientInstance
}

// SetCaktoClient sets the payment provider client (primarily for testing)
func SetCaktoClient(p PaymentProvider) {
	caktoClientInstance = p
}

// tokenCache holds one client-credentials token and fetches a new one with the
// caller's context once less than tokenRefreshMargin of validity is left.
type tokenCache struct {
	cfg        *clientcredentials.Config
	httpClient *http.Client
	now        func() time.Time

	mu    sync.Mutex
	token *oauth2.Token
}

// Token returns the cached token or fetches a fresh one
func (tc *tokenCache) Token(ctx context.Context) (*oauth2.Token, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	now := tc.now()
	if tc.token != nil && tc.token.Expiry.After(now.Add(tokenRefreshMargin)) {
		return tc.token, nil
	}

	token, err := tc.cfg.Token(context.WithValue(ctx, oauth2.HTTPClient, tc.httpClient))
	if err != nil {
		return nil, err
	}
	if token.Expiry.IsZero() {
		token.Expiry = now.Add(defaultTokenTTL)
	}
	tc.token = token
	return token, nil
}

// NewCaktoClient builds a client; httpClient carries both token and API requests
func NewCaktoClient(cfg *config.Config, httpClient *http.Client, logger *zap.Logger, recorder metrics.Recorder) *CaktoClient {
	baseURL := strings.TrimSuffix(cfg.CaktoAPIURL, "/")

	authStyle := oauth2.AuthStyleInParams
	if cfg.CaktoAuthStyle == "header" {
		authStyle = oauth2.AuthStyleInHeader
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.CaktoClientID,
		ClientSecret: cfg.CaktoClientSecret,
		TokenURL:     baseURL + "/public_api/token/",
		AuthStyle:    authStyle,
	}

	return &CaktoClient{
		baseURL:    baseURL,
		tokens:     &tokenCache{cfg: cc, httpClient: httpClient, now: time.Now},
		httpClient: httpClient,
		logger:     logger,
		metrics:    recorder,
	}
}

// AccessToken returns a bearer token with more than a minute of validity left
func (c *CaktoClient) AccessToken(ctx context.Context) (string, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		c.metrics.RecordProviderCall("cakto", "token", "error")
		return "", fmt.Errorf("%w: token: %v", ErrProviderUnavailable, err)
	}
	c.metrics.RecordProviderCall("cakto", "token", "ok")
	return token.AccessToken, nil
}

// ListSubscriptions lists subscriptions matching the query
func (c *CaktoClient) ListSubscriptions(ctx context.Context, query ListQuery) ([]CaktoSubscription, error) {
	body, err := c.do(ctx, "list_subscriptions", http.MethodGet, "/public_api/subscriptions/", query.values(), nil)
	if err != nil {
		return nil, err
	}
	var subs []CaktoSubscription
	if err := decodeList(body, &subs); err != nil {
		return nil, fmt.Errorf("failed to decode subscriptions: %w", err)
	}
	return subs, nil
}

// ListOrders lists orders matching the query
func (c *CaktoClient) ListOrders(ctx context.Context, query ListQuery) ([]CaktoOrder, error) {
	body, err := c.do(ctx, "list_orders", http.MethodGet, "/public_api/orders/", query.values(), nil)
	if err != nil {
		return nil, err
	}
	var orders []CaktoOrder
	if err := decodeList(body, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}

// CancelSubscription cancels a subscription at the provider
func (c *CaktoClient) CancelSubscription(ctx context.Context, subscriptionID string) error {
	if subscriptionID == "" {
		return fmt.Errorf("%w: empty subscription id", ErrProviderUnavailable)
	}
	path := "/public_api/subscriptions/" + url.PathEscape(subscriptionID) + "/cancel/"
	_, err := c.do(ctx, "cancel_subscription", http.MethodPost, path, nil, map[string]string{})
	return err
}

func (c *CaktoClient) do(ctx context.Context, op, method, path string, query url.Values, payload interface{}) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		c.metrics.RecordProviderCall("cakto", op, "error")
		return nil, fmt.Errorf("%w: %s: token: %v", ErrProviderUnavailable, op, err)
	}
	token.SetAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordProviderCall("cakto", op, "error")
		return nil, fmt.Errorf("%w: %s: %v", ErrProviderUnavailable, op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		c.metrics.RecordProviderCall("cakto", op, "error")
		return nil, fmt.Errorf("%w: %s: reading body: %v", ErrProviderUnavailable, op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.RecordProviderCall("cakto", op, "error")
		c.logger.Warn("Cakto request failed",
			zap.String("operation", op),
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(string(body), 512)),
		)
		return nil, fmt.Errorf("%w: %s returned %d", ErrProviderUnavailable, op, resp.StatusCode)
	}

	c.metrics.RecordProviderCall("cakto", op, "ok")
	return body, nil
}

// decodeList accepts a bare array or a {results: [...]} / {data: [...]} envelope
func decodeList(body []byte, out interface{}) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}
	if trimmed[0] == '[' {
		return json.Unmarshal(trimmed, out)
	}

	var envelope struct {
		Results json.RawMessage `json:"results"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return err
	}
	switch {
	case len(envelope.Results) > 0 && string(envelope.Results) != "null":
		return json.Unmarshal(envelope.Results, out)
	case len(envelope.Data) > 0 && string(envelope.Data) != "null":
		return json.Unmarshal(envelope.Data, out)
	}
	return nil
}

var providerTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseProviderTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range providerTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

type unconfiguredProvider struct{}

func (unconfiguredProvider) AccessToken(context.Context) (string, error) {
	return "", ErrProviderNotConfigured
}

func (unconfiguredProvider) ListSubscriptions(context.Context, ListQuery) ([]CaktoSubscription, error) {
	return nil, ErrProviderNotConfigured
}

func (unconfiguredProvider) ListOrders(context.Context, ListQuery) ([]CaktoOrder, error) {
	return nil, ErrProviderNotConfigured
}

func (unconfiguredProvider) CancelSubscription(context.Context, string) error {
	return ErrProviderNotConfigured
}
