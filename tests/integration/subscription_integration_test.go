package integration

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/config"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/controllers"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/middleware"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/models"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/services"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

const webhookSecret = "whsec_integration"

// SubscriptionIntegrationTestSuite drives webhooks, reconciliation and the admin view through one router
type SubscriptionIntegrationTestSuite struct {
	suite.Suite
	router   *gin.Engine
	db       *gorm.DB
	provider *services.MockPaymentProvider
}

// SetupTest gives every test a fresh database and provider
func (suite *SubscriptionIntegrationTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	config.SetConfig(&config.Config{
		GoEnv:              "test",
		Auth0Domain:        "test.auth0.com",
		CaktoWebhookSecret: webhookSecret,
		RateLimitPerMinute: 30,
	})
	suite.db = testutil.NewTestDB(suite.T())
	config.SetDB(suite.db)

	suite.provider = services.NewMockPaymentProvider()
	suite.provider.SetAsMockForTesting()

	testutil.CreateUser(suite.T(), suite.db, "admin@test.com", "auth0|admin", true)
	testutil.CreateUser(suite.T(), suite.db, "ana@test.com", "auth0|ana", false)

	tokens := testutil.StaticTokenValidator{"admin-token": "auth0|admin", "ana-token": "auth0|ana"}
	requireAuth := middleware.EnsureValidToken(tokens)

	suite.router = gin.New()
	v1 := suite.router.Group("/api/v1")
	v1.POST("/check-subscription", middleware.OptionalToken(tokens), controllers.CheckSubscription)
	v1.POST("/cancel-subscription", requireAuth, controllers.CancelSubscription)
	v1.POST("/cakto-webhook", controllers.CaktoWebhook)
	v1.GET("/admin-dashboard", requireAuth, middleware.RequireAdmin(controllers.AdminChecker{}), controllers.AdminDashboard)
}

// TearDownTest resets the globals
func (suite *SubscriptionIntegrationTestSuite) TearDownTest() {
	config.SetDB(nil)
	config.SetConfig(nil)
	services.SetCaktoClient(nil)
}

func (suite *SubscriptionIntegrationTestSuite) post(path, token string, body []byte, headers map[string]string) (int, map[string]interface{}) {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	var response map[string]interface{}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	return w.Code, response
}

func (suite *SubscriptionIntegrationTestSuite) deliver(body string) (int, map[string]interface{}) {
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write([]byte(body))
	return suite.post("/api/v1/cakto-webhook", "", []byte(body), map[string]string{
		services.SignatureHeader: "sha256=" + hex.EncodeToString(mac.Sum(nil)),
	})
}

func (suite *SubscriptionIntegrationTestSuite) countSubscriptions(email, status string) int64 {
	var count int64
	suite.db.Model(&models.Subscription{}).Where("user_email = ? AND status = ?", email, status).Count(&count)
	return count
}

// TestWebhookThenCheck covers purchase, renewal and refund for a known user
func (suite *SubscriptionIntegrationTestSuite) TestWebhookThenCheck() {
	code, response := suite.deliver(`{"event":"purchase_approved","data":{"customer":{"email":"ana@test.com"},"id":"sub_1"}}`)
	suite.Equal(http.StatusOK, code)
	suite.Equal(true, response["received"])
	suite.Equal("active", response["status"])
	suite.Equal("ana@test.com", response["email"])

	code, response = suite.post("/api/v1/check-subscription", "ana-token", nil, nil)
	suite.Equal(http.StatusOK, code)
	suite.Equal(true, response["hasSubscription"])
	suite.Equal("local", response["source"])
	suite.Empty(suite.provider.Calls(), "a local hit never reaches the provider")

	code, _ = suite.deliver(`{"event":"subscription_renewed","data":{"customer":{"email":"ANA@test.com"},"id":"sub_1","next_payment_date":"2031-01-01T00:00:00Z"}}`)
	suite.Equal(http.StatusOK, code)
	suite.Equal(int64(1), suite.countSubscriptions("ana@test.com", models.SubscriptionActive), "renewal updates in place")

	code, response = suite.post("/api/v1/check-subscription", "ana-token", nil, nil)
	suite.Equal(http.StatusOK, code)
	suite.Equal("2031-01-01T00:00:00Z", response["subscriptionEnd"])

	code, response = suite.deliver(`{"event":"refund","data":{"customer":{"email":"ana@test.com"}}}`)
	suite.Equal(http.StatusOK, code)
	suite.Equal("cancelled", response["status"])

	code, response = suite.post("/api/v1/check-subscription", "ana-token", nil, nil)
	suite.Equal(http.StatusOK, code)
	suite.Equal(false, response["hasSubscription"])
}

// TestWebhookBeforeSignup links the subscription once the user exists
func (suite *SubscriptionIntegrationTestSuite) TestWebhookBeforeSignup() {
	code, _ := suite.deliver(`{"event":"purchase_approved","data":{"customer":{"email":"bia@test.com"}}}`)
	suite.Equal(http.StatusOK, code)

	var sub models.Subscription
	suite.Require().NoError(suite.db.Where("user_email = ?", "bia@test.com").First(&sub).Error)
	suite.Nil(sub.UserID, "no user yet")

	bia := testutil.CreateUser(suite.T(), suite.db, "bia@test.com", "auth0|bia", false)
	identity := services.NewIdentityService(suite.db, nil, config.GetLogger())
	_, err := identity.Resolve(suite.T().Context(), "auth0|bia", "")
	suite.Require().NoError(err)

	suite.Require().NoError(suite.db.First(&sub, sub.ID).Error)
	suite.Require().NotNil(sub.UserID)
	suite.Equal(bia.ID, *sub.UserID)
}

// TestProviderFallbackIsCached checks the second check answers from the local store
func (suite *SubscriptionIntegrationTestSuite) TestProviderFallbackIsCached() {
	suite.provider.Orders = []services.CaktoOrder{{ID: "ord_7", Status: "paid", CustomerEmail: "ana@test.com"}}

	code, response := suite.post("/api/v1/check-subscription", "ana-token", nil, nil)
	suite.Equal(http.StatusOK, code)
	suite.Equal(true, response["hasSubscription"])
	suite.Equal("cakto", response["source"])
	suite.NotNil(response["subscriptionEnd"], "orders grant the default period")

	callsAfterFirst := len(suite.provider.Calls())

	code, response = suite.post("/api/v1/check-subscription", "ana-token", nil, nil)
	suite.Equal(http.StatusOK, code)
	suite.Equal("local", response["source"])
	suite.Len(suite.provider.Calls(), callsAfterFirst)
}

// TestAdminOverride grants admins access without any subscription
func (suite *SubscriptionIntegrationTestSuite) TestAdminOverride() {
	code, response := suite.post("/api/v1/check-subscription", "admin-token", nil, nil)
	suite.Equal(http.StatusOK, code)
	suite.Equal(true, response["hasSubscription"])
	suite.Equal("admin", response["source"])
	suite.Nil(response["subscriptionEnd"])
	suite.Zero(suite.countSubscriptions("admin@test.com", models.SubscriptionActive))
}

// TestForgedWebhookDoesNotMutate rejects bad signatures before any write
func (suite *SubscriptionIntegrationTestSuite) TestForgedWebhookDoesNotMutate() {
	code, response := suite.post("/api/v1/cakto-webhook", "",
		[]byte(`{"event":"purchase_approved","data":{"customer":{"email":"ana@test.com"}}}`),
		map[string]string{services.SignatureHeader: "deadbeef"})

	suite.Equal(http.StatusUnauthorized, code)
	suite.Equal(false, response["received"])
	suite.Zero(suite.countSubscriptions("ana@test.com", models.SubscriptionActive))
}

// TestCancelRoundTrip cancels at the provider and locally
func (suite *SubscriptionIntegrationTestSuite) TestCancelRoundTrip() {
	suite.deliver(`{"event":"subscription_created","data":{"customer":{"email":"ana@test.com"},"id":"sub_55"}}`)

	code, response := suite.post("/api/v1/cancel-subscription", "ana-token", nil, nil)
	suite.Equal(http.StatusOK, code)
	suite.Equal(true, response["success"])
	suite.Equal([]string{"sub_55"}, suite.provider.Cancelled())

	suite.Equal(int64(1), suite.countSubscriptions("ana@test.com", models.SubscriptionCancelled))
}

// TestAdminDashboardListsEveryUser shows provider subscriptions next to local users
func (suite *SubscriptionIntegrationTestSuite) TestAdminDashboardListsEveryUser() {
	suite.provider.Subscriptions = []services.CaktoSubscription{{ID: "sub_1", Status: "active", CustomerEmail: "ana@test.com"}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin-dashboard", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Require().Equal(http.StatusOK, w.Code)
	var dashboard services.Dashboard
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &dashboard))
	suite.Equal(2, dashboard.TotalUsers)
	suite.Equal(1, dashboard.TotalSubscriptions)

	subscribed := 0
	for _, u := range dashboard.Users {
		if u.HasSubscription {
			subscribed++
			assert.Equal(suite.T(), "ana@test.com", u.Email)
		}
	}
	suite.Equal(1, subscribed)
}

func TestSubscriptionIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(SubscriptionIntegrationTestSuite))
}
