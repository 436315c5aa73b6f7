package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the school authentication service.
// It provides access to unauthenticated operations and can create authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new auth service client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Register creates a new account and returns a session for it.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*Session, *User, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/register", req, "")
	if err != nil {
		return nil, nil, err
	}

	var out AuthResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, nil, err
	}

	return c.NewSession(out.AccessToken, out.RefreshToken), &out.User, nil
}

// Login authenticates with email and password.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*Session, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/login", LoginRequest{Email: email, Password: password}, "")
	if err != nil {
		return nil, err
	}

	var out AuthResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}

	return c.NewSession(out.AccessToken, out.RefreshToken), nil
}

// Refresh exchanges a refresh token for a new token pair.
func (c *SDKClient) Refresh(ctx context.Context, refreshToken string) (*TokenPairResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/refresh", RefreshRequest{RefreshToken: refreshToken}, "")
	if err != nil {
		return nil, err
	}

	var out TokenPairResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}

	return &out, nil
}

// NewSession wraps an existing token pair, e.g. one obtained through the
// OIDC callback.
func (c *SDKClient) NewSession(accessToken, refreshToken string) *Session {
	return newSession(c, accessToken, refreshToken)
}
