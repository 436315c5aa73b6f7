package authsdk

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/aussiebroadwan/schoolauth/pkg/jwtx"
)

// refreshSkew is how long before exp a session refreshes its access token.
const refreshSkew = 30 * time.Second

// Session represents an authenticated session with automatic token refresh.
type Session struct {
	client *SDKClient

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

func newSession(client *SDKClient, accessToken, refreshToken string) *Session {
	s := &Session{client: client}
	s.setTokens(accessToken, refreshToken)
	return s
}

// setTokens must be called with mu held for writing, or before the session
// is shared.
func (s *Session) setTokens(accessToken, refreshToken string) {
	s.accessToken = accessToken
	s.refreshToken = refreshToken

	// The client cannot verify the signature; exp is only a refresh hint.
	if exp, ok := jwtx.ExpiryUnverified(accessToken); ok {
		s.expiresAt = exp.Add(-refreshSkew)
	} else {
		s.expiresAt = time.Time{}
	}
}

// getValidToken returns a valid access token, automatically refreshing if expired.
func (s *Session) getValidToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if s.expiresAt.IsZero() || time.Now().Before(s.expiresAt) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have refreshed.
	if time.Now().Before(s.expiresAt) {
		return s.accessToken, nil
	}

	if s.refreshToken == "" {
		return "", fmt.Errorf("access token expired and no refresh token available")
	}

	pair, err := s.client.Refresh(ctx, s.refreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}

	s.setTokens(pair.AccessToken, pair.RefreshToken)
	return s.accessToken, nil
}

// do performs an authenticated request and decodes the response.
func (s *Session) do(ctx context.Context, method, path string, payload, target any, expectedStatus int) error {
	token, err := s.getValidToken(ctx)
	if err != nil {
		return err
	}

	resp, err := s.client.doRequest(ctx, method, path, payload, token)
	if err != nil {
		return err
	}

	return decodeJSON(resp, target, expectedStatus)
}

// Refresh forces a token refresh regardless of expiry.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pair, err := s.client.Refresh(ctx, s.refreshToken)
	if err != nil {
		return err
	}
	s.setTokens(pair.AccessToken, pair.RefreshToken)
	return nil
}

// Me returns the authenticated user, re-read from the server's store.
func (s *Session) Me(ctx context.Context) (*User, error) {
	var out UserResponse
	if err := s.do(ctx, http.MethodGet, "/auth/me", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Logout revokes the access token and the session's refresh token.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.RLock()
	access, refresh := s.accessToken, s.refreshToken
	s.mu.RUnlock()

	resp, err := s.client.doRequest(ctx, http.MethodPost, "/auth/logout", LogoutRequest{RefreshToken: refresh}, access)
	if err != nil {
		return err
	}

	var out MessageResponse
	return decodeJSON(resp, &out, http.StatusOK)
}

// AccessToken returns the current access token without checking expiration.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}
