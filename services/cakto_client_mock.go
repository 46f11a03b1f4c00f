package services

import (
	"context"
	"strings"
	"sync"
)

// MockPaymentProvider is an in-memory PaymentProvider for testing
type MockPaymentProvider struct {
	Token         string
	Subscriptions []CaktoSubscription
	Orders        []CaktoOrder

	// Err, when set, is returned by every call
	Err error
	// SubscriptionsErr and OrdersErr fail only the matching list call
	SubscriptionsErr error
	OrdersErr        error
	CancelErr        error

	mu        sync.Mutex
	calls     []string
	cancelled []string
}

// NewMockPaymentProvider creates a mock with a fixed access token
func NewMockPaymentProvider() *MockPaymentProvider {
	return &MockPaymentProvider{Token: "mock-cakto-token"}
}

// SetAsMockForTesting sets this mock as the global payment provider for testing
func (m *MockPaymentProvider) SetAsMockForTesting() {
	SetCaktoClient(m)
}

func (m *MockPaymentProvider) record(call string) {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()
}

// AccessToken returns the configured token
func (m *MockPaymentProvider) AccessToken(ctx context.Context) (string, error) {
	m.record("token")
	if m.Err != nil {
		return "", m.Err
	}
	return m.Token, nil
}

// ListSubscriptions filters the configured subscriptions by email and status
func (m *MockPaymentProvider) ListSubscriptions(ctx context.Context, query ListQuery) ([]CaktoSubscription, error) {
	m.record("list_subscriptions")
	if m.Err != nil {
		return nil, m.Err
	}
	if m.SubscriptionsErr != nil {
		return nil, m.SubscriptionsErr
	}

	var out []CaktoSubscription
	for _, s := range m.Subscriptions {
		if query.CustomerEmail != "" && !strings.EqualFold(s.Email(), query.CustomerEmail) {
			continue
		}
		if query.Status != "" && !strings.EqualFold(s.Status, query.Status) {
			continue
		}
		out = append(out, s)
		if query.Limit > 0 && len(out) == query.Limit {
			break
		}
	}
	return out, nil
}

// ListOrders filters the configured orders by email and status
func (m *MockPaymentProvider) ListOrders(ctx context.Context, query ListQuery) ([]CaktoOrder, error) {
	m.record("list_orders")
	if m.Err != nil {
		return nil, m.Err
	}
	if m.OrdersErr != nil {
		return nil, m.OrdersErr
	}

	var out []CaktoOrder
	for _, o := range m.Orders {
		if query.CustomerEmail != "" && !strings.EqualFold(o.Email(), query.CustomerEmail) {
			continue
		}
		if query.Status != "" && !strings.EqualFold(o.Status, query.Status) {
			continue
		}
		out = append(out, o)
		if query.Limit > 0 && len(out) == query.Limit {
			break
		}
	}
	return out, nil
}

// CancelSubscription records the cancelled id
func (m *MockPaymentProvider) CancelSubscription(ctx context.Context, subscriptionID string) error {
	m.record("cancel_subscription")
	if m.Err != nil {
		return m.Err
	}
	if m.CancelErr != nil {
		return m.CancelErr
	}
	m.mu.Lock()
	m.cancelled = append(m.cancelled, subscriptionID)
	m.mu.Unlock()
	return nil
}

// Calls returns the operations invoked so far (for testing assertions)
func (m *MockPaymentProvider) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Cancelled returns the subscription ids passed to CancelSubscription
func (m *MockPaymentProvider) Cancelled() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.cancelled...)
}
