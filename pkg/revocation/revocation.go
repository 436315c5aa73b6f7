// Package revocation remembers tokens that must be rejected before their
// natural expiry, typically because the holder logged out.
//
// Entries are keyed by a SHA-256 fingerprint of the raw token and live
// until the token's own exp, plus the verifier's leeway when WithGrace is
// set. Past that point the signature check rejects the token anyway, so
// keeping the entry would only waste memory. Every Store purges lazily on
// lookup and eagerly on Sweep.
package revocation

import (
	"context"
	"time"

	"github.com/aussiebroadwan/schoolauth/pkg/cryptox"
	"github.com/aussiebroadwan/schoolauth/pkg/jwtx"
)

// Store is the revocation list. MemoryStore is the single-process default;
// RedisStore shares the list between instances.
type Store interface {
	// Revoke records token until its exp claim plus any grace. It reports
	// false, without error, when the token carries no decodable exp. The
	// signature is not checked so a token about to expire can still be
	// revoked.
	Revoke(ctx context.Context, token string) (bool, error)

	// IsRevoked reports whether token is revoked and not yet expired. An
	// entry found past its exp is deleted and reported as not revoked.
	IsRevoked(ctx context.Context, token string) (bool, error)

	// Sweep deletes every entry whose exp has passed and returns how many
	// were removed.
	Sweep(ctx context.Context) (int, error)

	Stats(ctx context.Context) (Stats, error)

	// Clear drops every entry and returns how many were removed.
	Clear(ctx context.Context) (int, error)

	Close() error
}

// Stats is a point-in-time view of a Store.
type Stats struct {
	Count     int
	LastSweep time.Time // zero until the first sweep
}

// Entry is one revoked token.
type Entry struct {
	Fingerprint string
	ExpiresAt   time.Time
	RevokedAt   time.Time
}

// Option configures a store.
type Option func(*options)

type options struct {
	now   func() time.Time
	grace time.Duration
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithGrace keeps each entry for d past the token's exp. It must be at
// least the verifier's leeway, otherwise a revoked token is accepted
// again between exp and exp+leeway.
func WithGrace(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.grace = d
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// fingerprint and expiry are shared by every backend.
func fingerprint(token string) string { return cryptox.FingerprintToken(token) }

func expiry(token string) (time.Time, bool) { return jwtx.ExpiryUnverified(token) }
