package httpx_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/schoolauth/pkg/httpx"
	"github.com/aussiebroadwan/schoolauth/pkg/jwtx"
	"github.com/aussiebroadwan/schoolauth/pkg/revocation"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-do-not-use"

type panicVerifier struct{}

func (panicVerifier) Verify(string) (jwtx.Claims, error) { panic("boom") }
func (panicVerifier) Validate() error                    { return nil }

type failingChecker struct{}

func (failingChecker) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("redis: connection refused")
}

// principalEcho writes the principal the gate attached.
var principalEcho = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	p, ok := httpx.PrincipalFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
})

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httpx.ErrorResponse {
	t.Helper()
	var body httpx.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, rec.Code, body.StatusCode)
	_, err := time.Parse(time.RFC3339, body.Timestamp)
	require.NoError(t, err)
	return body
}

func serve(h http.Handler, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	issuer := jwtx.NewHS256Issuer(testSecret, jwtx.IssuerConfig{Issuer: "school-auth"})
	store := revocation.NewMemoryStore()
	gate := httpx.Authenticate(issuer, store)(principalEcho)

	principal := jwtx.Principal{ID: "01J0000000000000000000000A", Email: "t@school.com", Role: "TEACHER"}
	access, err := issuer.Issue(principal, jwtx.KindAccess)
	require.NoError(t, err)

	t.Run("valid token attaches principal", func(t *testing.T) {
		rec := serve(gate, "Bearer "+access)
		require.Equal(t, http.StatusOK, rec.Code)

		var got jwtx.Principal
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		require.Equal(t, principal, got)
	})

	t.Run("missing header", func(t *testing.T) {
		rec := serve(gate, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
		require.Equal(t, httpx.MsgTokenRequired, decodeError(t, rec).Message)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		rec := serve(gate, "Basic "+access)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, httpx.MsgTokenRequired, decodeError(t, rec).Message)
	})

	t.Run("malformed", func(t *testing.T) {
		rec := serve(gate, "Bearer not.a.jwt")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, httpx.MsgInvalidToken, decodeError(t, rec).Message)
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		refresh, err := issuer.Issue(principal, jwtx.KindRefresh)
		require.NoError(t, err)

		rec := serve(gate, "Bearer "+refresh)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, httpx.MsgInvalidToken, decodeError(t, rec).Message)
	})

	t.Run("expired", func(t *testing.T) {
		past := jwtx.NewHS256Issuer(testSecret, jwtx.IssuerConfig{
			Issuer:    "school-auth",
			AccessTTL: time.Minute,
			Now:       func() time.Time { return time.Now().Add(-time.Hour) },
		})
		old, err := past.Issue(principal, jwtx.KindAccess)
		require.NoError(t, err)

		rec := serve(gate, "Bearer "+old)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, httpx.MsgInvalidToken, decodeError(t, rec).Message)
	})

	t.Run("revoked", func(t *testing.T) {
		tok, err := issuer.Issue(principal, jwtx.KindAccess)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, serve(gate, "Bearer "+tok).Code)

		ok, err := store.Revoke(ctx, tok)
		require.NoError(t, err)
		require.True(t, ok)

		rec := serve(gate, "Bearer "+tok)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, httpx.MsgInvalidToken, decodeError(t, rec).Message)
	})

	t.Run("missing secret", func(t *testing.T) {
		broken := httpx.Authenticate(jwtx.NewHS256Issuer("", jwtx.IssuerConfig{}), store)(principalEcho)

		rec := serve(broken, "")
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Equal(t, httpx.MsgMisconfigured, decodeError(t, rec).Message)
	})

	t.Run("revocation backend down fails closed", func(t *testing.T) {
		h := httpx.Authenticate(issuer, failingChecker{})(principalEcho)

		rec := serve(h, "Bearer "+access)
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		require.Equal(t, httpx.MsgUnavailable, decodeError(t, rec).Message)
	})

	t.Run("panic in verifier", func(t *testing.T) {
		h := httpx.Authenticate(panicVerifier{}, store)(principalEcho)

		rec := serve(h, "Bearer "+access)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Equal(t, httpx.MsgInternal, decodeError(t, rec).Message)
	})
}

func TestRevocationCoversLeeway(t *testing.T) {
	const leeway = 30 * time.Second
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	issuer := jwtx.NewHS256Issuer(testSecret, jwtx.IssuerConfig{
		Issuer:    "school-auth",
		AccessTTL: time.Minute,
		Leeway:    leeway,
		Now:       clock,
	})
	store := revocation.NewMemoryStore(revocation.WithClock(clock), revocation.WithGrace(leeway))
	gate := httpx.Authenticate(issuer, store)(principalEcho)

	tok, err := issuer.Issue(jwtx.Principal{ID: "u1", Email: "t@school.com", Role: "TEACHER"}, jwtx.KindAccess)
	require.NoError(t, err)

	ok, err := store.Revoke(context.Background(), tok)
	require.NoError(t, err)
	require.True(t, ok)

	// Past exp but inside the leeway the issuer still accepts the token,
	// so the revocation has to hold.
	now = now.Add(time.Minute + 10*time.Second)
	rec := serve(gate, "Bearer "+tok)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, httpx.MsgInvalidToken, decodeError(t, rec).Message)

	// Revoking inside the leeway window still records the token.
	late, err := jwtx.NewHS256Issuer(testSecret, jwtx.IssuerConfig{
		Issuer:    "school-auth",
		AccessTTL: time.Minute,
		Now:       func() time.Time { return now.Add(-time.Minute - 5*time.Second) },
	}).Issue(jwtx.Principal{ID: "u2", Role: "STUDENT"}, jwtx.KindAccess)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, serve(gate, "Bearer "+late).Code)

	_, err = store.Revoke(context.Background(), late)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, serve(gate, "Bearer "+late).Code)

	// Once the leeway has passed the entry is gone and the verifier rejects
	// the token on its own.
	now = now.Add(leeway)
	rec = serve(gate, "Bearer "+tok)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, stats.Count, "lazy purge drops the expired entry")
}

func TestRequireRole(t *testing.T) {
	h := httpx.RequireRole("STAFF", "ADMIN")(okHandler)

	withRole := func(role string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/admin/tokens/stats", nil)
		ctx := httpx.WithPrincipal(req.Context(), jwtx.Principal{ID: "u1", Role: role}, "tok")
		return req.WithContext(ctx)
	}

	t.Run("allowed", func(t *testing.T) {
		for _, role := range []string{"ADMIN", "STAFF"} {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, withRole(role))
			require.Equal(t, http.StatusOK, rec.Code, role)
		}
	})

	t.Run("forbidden lists sorted roles", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, withRole("TEACHER"))
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, "Access denied. Required role: ADMIN, STAFF. Your role: TEACHER", decodeError(t, rec).Message)
	})

	t.Run("case sensitive", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, withRole("admin"))
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("no principal", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, httpx.MsgAuthRequired, decodeError(t, rec).Message)
	})
}

func TestRequireRoleOrderIndependent(t *testing.T) {
	gates := map[string]http.Handler{
		"ADMIN,STAFF": httpx.RequireRole("ADMIN", "STAFF")(okHandler),
		"STAFF,ADMIN": httpx.RequireRole("STAFF", "ADMIN")(okHandler),
	}

	cases := []struct {
		role    string
		status  int
		message string
	}{
		{"ADMIN", http.StatusOK, ""},
		{"STAFF", http.StatusOK, ""},
		{"STUDENT", http.StatusForbidden, "Access denied. Required role: ADMIN, STAFF. Your role: STUDENT"},
	}

	for _, tc := range cases {
		for order, h := range gates {
			req := httptest.NewRequest(http.MethodGet, "/admin/tokens/stats", nil)
			req = req.WithContext(httpx.WithPrincipal(req.Context(), jwtx.Principal{ID: "u1", Role: tc.role}, "tok"))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, tc.status, rec.Code, "%s via %s", tc.role, order)
			if tc.message != "" {
				require.Equal(t, tc.message, decodeError(t, rec).Message, order)
			}
		}
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(okHandler, mark("outer"), mark("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []string{"outer", "inner"}, order)
}

func TestRecoverer(t *testing.T) {
	h := httpx.Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("handler exploded")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, httpx.MsgInternal, decodeError(t, rec).Message)
}

func TestBearerToken(t *testing.T) {
	cases := map[string]struct {
		header string
		token  string
		ok     bool
	}{
		"standard":     {"Bearer abc", "abc", true},
		"lower scheme": {"bearer abc", "abc", true},
		"empty token":  {"Bearer ", "", false},
		"no scheme":    {"abc", "", false},
		"basic":        {"Basic abc", "", false},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", tc.header)
			tok, ok := httpx.BearerToken(req)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.token, tok)
		})
	}
}
