package authsdk

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/schoolauth/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

// fakeAuth serves just enough of the API for session tests.
type fakeAuth struct {
	issuer    *jwtx.HS256Issuer
	refreshes atomic.Int32
	lastAuth  atomic.Value // string
}

func (f *fakeAuth) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var req RefreshRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if _, err := f.issuer.VerifyRefresh(req.RefreshToken); err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		f.refreshes.Add(1)
		writeJSON(w, http.StatusOK, TokenPairResponse{
			AccessToken:  f.mint(t, jwtx.KindAccess, time.Hour),
			RefreshToken: req.RefreshToken,
		})
	})

	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		f.lastAuth.Store(r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, UserResponse{User: User{ID: "u1", Email: "pupil@school.com", Role: "STUDENT"}})
	})

	mux.HandleFunc("GET /admin/tokens/stats", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusForbidden, "Access denied. Required role: ADMIN. Your role: STUDENT")
	})

	return mux
}

func (f *fakeAuth) mint(t *testing.T, kind jwtx.Kind, ttl time.Duration) string {
	t.Helper()
	iss := jwtx.NewHS256Issuer("sdk-test", jwtx.IssuerConfig{AccessTTL: ttl, RefreshTTL: ttl})
	tok, err := iss.Issue(jwtx.Principal{ID: "u1", Email: "pupil@school.com", Role: "STUDENT"}, kind)
	require.NoError(t, err)
	return tok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIError{StatusCode: status, Message: msg, Timestamp: time.Now().UTC().Format(time.RFC3339)})
}

func newFake(t *testing.T) (*fakeAuth, *SDKClient) {
	t.Helper()
	f := &fakeAuth{issuer: jwtx.NewHS256Issuer("sdk-test", jwtx.IssuerConfig{})}
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return f, NewSDKClient(srv.URL + "/")
}

func TestSessionUsesFreshToken(t *testing.T) {
	t.Parallel()
	f, client := newFake(t)

	access := f.mint(t, jwtx.KindAccess, time.Hour)
	session := client.NewSession(access, f.mint(t, jwtx.KindRefresh, time.Hour))

	u, err := session.Me(t.Context())
	require.NoError(t, err)
	require.Equal(t, "u1", u.ID)
	require.Equal(t, "Bearer "+access, f.lastAuth.Load())
	require.Zero(t, f.refreshes.Load())
}

func TestSessionRefreshesNearExpiry(t *testing.T) {
	t.Parallel()
	f, client := newFake(t)

	// Inside the refresh skew, so the session treats it as expired.
	stale := f.mint(t, jwtx.KindAccess, 10*time.Second)
	session := client.NewSession(stale, f.mint(t, jwtx.KindRefresh, time.Hour))

	_, err := session.Me(t.Context())
	require.NoError(t, err)
	require.EqualValues(t, 1, f.refreshes.Load())
	require.NotEqual(t, stale, session.AccessToken())
	require.Equal(t, "Bearer "+session.AccessToken(), f.lastAuth.Load())

	// The new token is good for an hour; no second refresh.
	_, err = session.Me(t.Context())
	require.NoError(t, err)
	require.EqualValues(t, 1, f.refreshes.Load())
}

func TestSessionWithoutRefreshToken(t *testing.T) {
	t.Parallel()
	f, client := newFake(t)

	session := client.NewSession(f.mint(t, jwtx.KindAccess, 10*time.Second), "")
	_, err := session.Me(t.Context())
	require.ErrorContains(t, err, "no refresh token")
}

func TestAPIErrorDecoding(t *testing.T) {
	t.Parallel()
	f, client := newFake(t)

	session := client.NewSession(f.mint(t, jwtx.KindAccess, time.Hour), "")
	_, err := session.TokenStats(t.Context())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.True(t, apiErr.IsForbidden())
	require.False(t, apiErr.IsUnauthorized())
	require.Contains(t, apiErr.Message, "Required role: ADMIN")
	require.Equal(t, "403: "+apiErr.Message, apiErr.Error())
}

func TestRefreshFailure(t *testing.T) {
	t.Parallel()
	_, client := newFake(t)

	_, err := client.Refresh(t.Context(), "garbage")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.True(t, apiErr.IsUnauthorized())
}

func TestParseErrorResponseFallback(t *testing.T) {
	t.Parallel()

	resp := &http.Response{StatusCode: http.StatusBadGateway}
	err := parseErrorResponse(resp, []byte("<html>bad gateway</html>"))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	require.Equal(t, "Bad Gateway", apiErr.Message)
}
