package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IssuerConfig tunes an HS256Issuer. Zero values fall back to defaults.
type IssuerConfig struct {
	// Issuer is stamped into and required on every token. Empty means
	// "don't care".
	Issuer string

	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Leeway allows small clock skew when validating exp/nbf.
	Leeway time.Duration

	// Now overrides the clock, used by tests.
	Now func() time.Time
}

// HS256Issuer mints and verifies HMAC-SHA256 signed tokens using one
// process-wide secret. It holds no mutable state.
type HS256Issuer struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	leeway     time.Duration
	now        func() time.Time
}

// NewHS256Issuer never fails; an empty secret yields an issuer whose every
// operation returns ErrMissingSecret. Call Validate at startup to refuse to
// run in that state.
func NewHS256Issuer(secret string, cfg IssuerConfig) *HS256Issuer {
	i := &HS256Issuer{
		secret:     []byte(secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		leeway:     cfg.Leeway,
		now:        cfg.Now,
	}
	if i.accessTTL <= 0 {
		i.accessTTL = DefaultAccessTokenTTL
	}
	if i.refreshTTL <= 0 {
		i.refreshTTL = DefaultRefreshTokenTTL
	}
	if i.now == nil {
		i.now = time.Now
	}
	return i
}

// Validate reports ErrMissingSecret when no secret was configured.
func (i *HS256Issuer) Validate() error {
	if len(i.secret) == 0 {
		return ErrMissingSecret
	}
	return nil
}

// TTL returns the lifetime given to tokens of kind.
func (i *HS256Issuer) TTL(kind Kind) time.Duration {
	if kind == KindRefresh {
		return i.refreshTTL
	}
	return i.accessTTL
}

// Issue signs a token of kind for p.
func (i *HS256Issuer) Issue(p Principal, kind Kind) (string, error) {
	if err := i.Validate(); err != nil {
		return "", err
	}
	if kind != KindAccess && kind != KindRefresh {
		return "", fmt.Errorf("jwtx: unknown token kind %q", kind)
	}

	claims := NewClaims(p, kind, i.TTL(kind), i.issuer, i.now())
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, nil
}

// Verify validates an access token. Refresh tokens are rejected as
// malformed.
func (i *HS256Issuer) Verify(token string) (Claims, error) {
	return i.verify(token, KindAccess)
}

// VerifyRefresh validates a refresh token. Access tokens are rejected as
// malformed.
func (i *HS256Issuer) VerifyRefresh(token string) (Claims, error) {
	return i.verify(token, KindRefresh)
}

// verify distinguishes exactly two failure families: ErrExpired when the
// signature checks out but exp has passed, ErrMalformed for the rest.
// ErrNotYetValid and ErrWrongKind refine ErrMalformed.
func (i *HS256Issuer) verify(token string, want Kind) (Claims, error) {
	if err := i.Validate(); err != nil {
		return Claims{}, err
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(i.leeway),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	var claims Claims
	_, err := jwt.NewParser(opts...).ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, fmt.Errorf("%w: %v", ErrExpired, err)
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return Claims{}, fmt.Errorf("%w: %w", ErrMalformed, ErrNotYetValid)
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if claims.Kind != want {
		return Claims{}, fmt.Errorf("%w: %w", ErrMalformed, ErrWrongKind)
	}
	if claims.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrMalformed)
	}

	return claims, nil
}
