package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/config"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/services"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/tests/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupControllerTest installs a fresh database, config and provider mock as the globals
func setupControllerTest(t *testing.T) (*gorm.DB, *services.MockPaymentProvider) {
	t.Helper()

	db := testutil.NewTestDB(t)
	config.SetDB(db)
	config.SetConfig(&config.Config{
		GoEnv:              "test",
		Auth0Domain:        "test.auth0.com",
		CaktoCheckoutURL:   "https://pay.cakto.com.br",
		RateLimitPerMinute: 30,
	})

	provider := services.NewMockPaymentProvider()
	provider.SetAsMockForTesting()

	t.Cleanup(func() {
		config.SetDB(nil)
		config.SetConfig(nil)
		services.SetCaktoClient(nil)
		services.SetIdentityManager(nil)
		services.SetAIGateway(nil)
		services.SetObjectStorage(nil)
	})
	return db, provider
}

// failCounts makes every COUNT query against table fail, as a dropped connection would
func failCounts(t *testing.T, db *gorm.DB, table string) {
	t.Helper()

	err := db.Callback().Query().Before("gorm:query").Register("test:fail_count_"+table, func(tx *gorm.DB) {
		if _, isCount := tx.Statement.Dest.(*int64); isCount && tx.Statement.Table == table {
			_ = tx.AddError(errors.New("connection reset by peer"))
		}
	})
	require.NoError(t, err)
}

// setupMockAuth0Server simulates Auth0's /userinfo endpoint, keyed by access token
func setupMockAuth0Server(t *testing.T, userInfo map[string]*services.Auth0UserInfo) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/userinfo" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		authHeader := r.Header.Get("Authorization")
		if len(authHeader) < 7 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		info, ok := userInfo[authHeader[7:]]
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(info)
	}))
	t.Cleanup(srv.Close)

	cfg := *config.GetConfig()
	cfg.Auth0Domain = srv.URL
	config.SetConfig(&cfg)
}

func performRequest(router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), "body: %s", w.Body.String())
	return response
}

func errorCode(response map[string]interface{}) string {
	errObj, ok := response["error"].(map[string]interface{})
	if !ok {
		return ""
	}
	return fmt.Sprint(errObj["code"])
}

// authedRouter returns a router whose requests carry the given Auth0 subject
func authedRouter(subject string) *gin.Engine {
	router := testutil.NewTestRouter()
	router.Use(testutil.MockAuthMiddleware(subject, "token-"+subject))
	return router
}

// recordingIdentityManager captures Management API calls
type recordingIdentityManager struct {
	updates []services.Auth0UserUpdate
	subject string
	err     error
}

func (m *recordingIdentityManager) CreateUser(ctx context.Context, email, name, password string) (*services.Auth0User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &services.Auth0User{UserID: "auth0|provisioned", Email: email, Name: name}, nil
}

func (m *recordingIdentityManager) UpdateUser(ctx context.Context, auth0ID string, update services.Auth0UserUpdate) error {
	if m.err != nil {
		return m.err
	}
	m.subject = auth0ID
	m.updates = append(m.updates, update)
	return nil
}
