package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates an access token and gives you back the claims if it's
// legit.
type Verifier interface {
	Verify(token string) (Claims, error)

	// Validate reports whether the verifier can work at all. A failure here
	// is a deployment fault, not a property of any one token.
	Validate() error
}

var (
	// ErrMissingSecret means the process was started without a signing
	// secret. Nothing can be issued or verified.
	ErrMissingSecret = errors.New("jwtx: signing secret not configured")

	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
	ErrWrongKind   = errors.New("jwtx: wrong token kind")
)

// ExpiryUnverified decodes the exp claim without checking the signature.
// It reports false when the token cannot be decoded or has no exp.
func ExpiryUnverified(token string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
