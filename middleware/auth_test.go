package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// fakeValidator accepts tokens present in its map and rejects everything else
type fakeValidator struct {
	subjects map[string]string
}

func (f fakeValidator) ValidateToken(ctx context.Context, token string) (interface{}, error) {
	subject, ok := f.subjects[token]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{Subject: subject},
		CustomClaims:     &CustomClaims{},
	}, nil
}

func newAuthRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/test", mw, func(c *gin.Context) {
		userID, _ := GetUserID(c)
		token, _ := GetAccessToken(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "token": token})
	})
	return router
}

func TestEnsureValidToken(t *testing.T) {
	router := newAuthRouter(EnsureValidToken(fakeValidator{subjects: map[string]string{"good": "auth0|123"}}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid token", "Bearer good", http.StatusOK, `"user_id":"auth0|123"`},
		{"invalid token", "Bearer bad", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"missing token", "", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"malformed header", "Token good", http.StatusUnauthorized, "INVALID_TOKEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestEnsureValidTokenStoresAccessToken(t *testing.T) {
	router := newAuthRouter(EnsureValidToken(fakeValidator{subjects: map[string]string{"good": "auth0|123"}}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"token":"good"`)
}

func TestOptionalToken(t *testing.T) {
	router := newAuthRouter(OptionalToken(fakeValidator{subjects: map[string]string{"good": "auth0|123"}}))

	tests := []struct {
		name     string
		header   string
		wantUser string
	}{
		{"valid token sets identity", "Bearer good", "auth0|123"},
		{"invalid token passes anonymously", "Bearer bad", ""},
		{"no token passes anonymously", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), `"user_id":"`+tt.wantUser+`"`)
		})
	}
}

func TestGetUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		setupFunc func(*gin.Context)
		wantID    string
		wantErr   bool
	}{
		{
			name: "successfully extracts user ID",
			setupFunc: func(c *gin.Context) {
				c.Set("user_id", "auth0|123456")
			},
			wantID: "auth0|123456",
		},
		{
			name:      "user ID not found in context",
			setupFunc: func(c *gin.Context) {},
			wantErr:   true,
		},
		{
			name: "user ID is not a string",
			setupFunc: func(c *gin.Context) {
				c.Set("user_id", 12345)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			tt.setupFunc(c)

			gotID, err := GetUserID(c)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, gotID)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantID, gotID)
			}
		})
	}
}

func TestGetClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, err := GetClaims(c)
	assert.Error(t, err, "claims not found in context")

	c.Set("validated_claims", "invalid")
	_, err = GetClaims(c)
	assert.Error(t, err, "claims are not the expected type")

	c.Set("validated_claims", &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{Subject: "auth0|123456"},
	})
	claims, err := GetClaims(c)
	assert.NoError(t, err)
	assert.Equal(t, "auth0|123456", claims.RegisteredClaims.Subject)
}

func TestAuthError(t *testing.T) {
	err := &AuthError{Code: "TEST_ERROR", Message: "This is a test error"}
	assert.Equal(t, "This is a test error", err.Error())
}
