package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Auth0User is the subset of a Management API user we use
type Auth0User struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// Auth0UserUpdate holds the fields a user may change about themselves; empty fields are left alone
type Auth0UserUpdate struct {
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
	Name     string `json:"name,omitempty"`
}

// IdentityManager creates and mutates accounts at the Identity Provider
type IdentityManager interface {
	CreateUser(ctx context.Context, email, name, password string) (*Auth0User, error)
	UpdateUser(ctx context.Context, auth0ID string, update Auth0UserUpdate) error
}

// Auth0Management talks to the Auth0 Management API with a machine-to-machine token
type Auth0Management struct {
	baseURL    string
	connection string
	httpClient *http.Client
}

var identityManagerInstance IdentityManager

// InitIdentityManager initializes the Management API client from configuration
func InitIdentityManager(cfg *config.Config) IdentityManager {
	if !cfg.HasAuth0Management() {
		identityManagerInstance = unconfiguredIdentityManager{}
		return identityManagerInstance
	}
	identityManagerInstance = NewAuth0Management(cfg, &http.Client{Timeout: 10 * time.Second})
	return identityManagerInstance
}

// GetIdentityManager returns the initialized Management API client
func GetIdentityManager() IdentityManager {
	if identityManagerInstance == nil {
		return unconfiguredIdentityManager{}
	}
	return identityManagerInstance
}

// SetIdentityManager sets the Management API client (primarily for testing)
func SetIdentityManager(m IdentityManager) {
	identityManagerInstance = m
}

// NewAuth0Management builds a Management API client; httpClient is used for both token and API calls
func NewAuth0Management(cfg *config.Config, httpClient *http.Client) *Auth0Management {
	base := auth0BaseURL(cfg.Auth0Domain)
	cc := &clientcredentials.Config{
		ClientID:       cfg.Auth0M2MClientID,
		ClientSecret:   cfg.Auth0M2MClientSecret,
		TokenURL:       base + "/oauth/token",
		EndpointParams: url.Values{"audience": {base + "/api/v2/"}},
		AuthStyle:      oauth2.AuthStyleInParams,
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
	client := oauth2.NewClient(ctx, cc.TokenSource(ctx))
	client.Timeout = httpClient.Timeout

	return &Auth0Management{
		baseURL:    base,
		connection: cfg.Auth0DBConnection,
		httpClient: client,
	}
}

// CreateUser registers a database-connection user
func (m *Auth0Management) CreateUser(ctx context.Context, email, name, password string) (*Auth0User, error) {
	payload := map[string]interface{}{
		"connection":     m.connection,
		"email":          email,
		"password":       password,
		"email_verified": true,
	}
	if name != "" {
		payload["name"] = name
	}

	var user Auth0User
	status, err := m.do(ctx, http.MethodPost, "/api/v2/users", payload, &user)
	if status == http.StatusConflict {
		return nil, fmt.Errorf("%w: %s", ErrUserAlreadyExists, email)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser patches a user; Auth0 rejects email and password in the same call, so they go separately
func (m *Auth0Management) UpdateUser(ctx context.Context, auth0ID string, update Auth0UserUpdate) error {
	path := "/api/v2/users/" + url.PathEscape(auth0ID)

	if update.Password != "" {
		if _, err := m.do(ctx, http.MethodPatch, path, map[string]string{
			"password":   update.Password,
			"connection": m.connection,
		}, nil); err != nil {
			return err
		}
	}

	rest := map[string]string{}
	if update.Email != "" {
		rest["email"] = update.Email
	}
	if update.Name != "" {
		rest["name"] = update.Name
	}
	if len(rest) == 0 {
		return nil
	}
	_, err := m.do(ctx, http.MethodPatch, path, rest, nil)
	return err
}

func (m *Auth0Management) do(ctx context.Context, method, path string, body interface{}, out interface{}) (int, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, m.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %s: %v", ErrIdentityUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, fmt.Errorf("%w: %s %s returned %d: %s", ErrIdentityUnavailable, method, path, resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

type unconfiguredIdentityManager struct{}

func (unconfiguredIdentityManager) CreateUser(context.Context, string, string, string) (*Auth0User, error) {
	return nil, ErrIdentityNotConfigured
}

func (unconfiguredIdentityManager) UpdateUser(context.Context, string, Auth0UserUpdate) error {
	return ErrIdentityNotConfigured
}
