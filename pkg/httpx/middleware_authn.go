package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/aussiebroadwan/schoolauth/pkg/jwtx"
	"github.com/aussiebroadwan/schoolauth/pkg/slogx"
)

// RevocationChecker answers whether a raw token has been revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// authFailure is a rejected request: what the client sees and what we log.
type authFailure struct {
	status  int
	message string
	reason  string
	err     error
}

// Authenticate admits requests carrying a valid, unrevoked access token and
// attaches the resulting principal to the request context.
func Authenticate(v jwtx.Verifier, rc RevocationChecker) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := slogx.FromContext(r.Context())

			ctx, fail := authenticate(r, v, rc)
			if fail != nil {
				switch fail.status {
				case http.StatusUnauthorized:
					log.Warn("authentication rejected", "reason", fail.reason, "err", fail.err)
					WriteUnauthorized(w, fail.message)
				default:
					log.Error("authentication failed", "reason", fail.reason, "err", fail.err)
					WriteError(w, fail.status, fail.message)
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(r *http.Request, v jwtx.Verifier, rc RevocationChecker) (ctx context.Context, fail *authFailure) {
	defer func() {
		if p := recover(); p != nil {
			ctx = nil
			fail = &authFailure{
				status:  http.StatusInternalServerError,
				message: MsgInternal,
				reason:  "panic",
				err:     fmt.Errorf("panic: %v\n%s", p, debug.Stack()),
			}
		}
	}()

	ctx = r.Context()

	// 0. Without a secret no token can ever be valid.
	if err := v.Validate(); err != nil {
		return nil, &authFailure{http.StatusInternalServerError, MsgMisconfigured, "misconfigured", err}
	}

	// 1. Bearer credential.
	raw, ok := BearerToken(r)
	if !ok {
		return nil, &authFailure{http.StatusUnauthorized, MsgTokenRequired, "missing", nil}
	}

	// 2. Revocation.
	revoked, err := rc.IsRevoked(ctx, raw)
	if err != nil {
		return nil, &authFailure{http.StatusServiceUnavailable, MsgUnavailable, "revocation_unavailable", err}
	}
	if revoked {
		return nil, &authFailure{http.StatusUnauthorized, MsgInvalidToken, "revoked", nil}
	}

	// 3. Signature and claims.
	claims, err := v.Verify(raw)
	if err != nil {
		reason := "malformed"
		if errors.Is(err, jwtx.ErrExpired) {
			reason = "expired"
		}
		return nil, &authFailure{http.StatusUnauthorized, MsgInvalidToken, reason, err}
	}

	return WithPrincipal(ctx, claims.Principal(), raw), nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme match is case-insensitive.
func BearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
