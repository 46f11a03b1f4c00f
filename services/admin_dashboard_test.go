package services

import (
	"context"
	"testing"

	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAdminDashboard_JoinsByEmail(t *testing.T) {
	db := testutil.NewTestDB(t)
	testutil.CreateUser(t, db, "ana@test.com", "auth0|ana", false)
	testutil.CreateUser(t, db, "bia@test.com", "auth0|bia", false)

	provider := NewMockPaymentProvider()
	provider.Subscriptions = []CaktoSubscription{
		{ID: "sub_1", Status: "active", Customer: CaktoCustomer{Email: "ANA@test.com"}, NextPaymentDate: "2026-11-01"},
		{ID: "sub_2", Status: "active", CustomerEmail: "stranger@test.com"},
	}

	dashboard, err := NewAdminDashboard(db, provider, zap.NewNop()).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, dashboard.TotalUsers)
	assert.Equal(t, 2, dashboard.TotalSubscriptions)

	byEmail := map[string]DashboardUser{}
	for _, u := range dashboard.Users {
		byEmail[u.Email] = u
	}
	ana := byEmail["ana@test.com"]
	assert.True(t, ana.HasSubscription)
	assert.Equal(t, "sub_1", ana.SubscriptionID)
	require.NotNil(t, ana.NextPayment)
	assert.Equal(t, "2026-11-01", ana.NextPayment.Format("2006-01-02"))
	assert.False(t, byEmail["bia@test.com"].HasSubscription)
}

func TestAdminDashboard_ProviderFailureDegrades(t *testing.T) {
	db := testutil.NewTestDB(t)
	testutil.CreateUser(t, db, "ana@test.com", "auth0|ana", false)

	provider := NewMockPaymentProvider()
	provider.Err = ErrProviderUnavailable

	dashboard, err := NewAdminDashboard(db, provider, zap.NewNop()).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, dashboard.TotalUsers)
	assert.Equal(t, 0, dashboard.TotalSubscriptions)
	assert.False(t, dashboard.Users[0].HasSubscription)
}

func TestAdminDashboard_EmptyUserListIsNotNil(t *testing.T) {
	dashboard, err := NewAdminDashboard(testutil.NewTestDB(t), NewMockPaymentProvider(), zap.NewNop()).Build(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, dashboard.Users)
	assert.Empty(t, dashboard.Users)
}
