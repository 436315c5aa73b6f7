package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/schoolauth/internal/auth/domain"
	"github.com/aussiebroadwan/schoolauth/internal/auth/store"
	"github.com/aussiebroadwan/schoolauth/pkg/jwtx"
	"github.com/aussiebroadwan/schoolauth/pkg/revocation"
	"github.com/aussiebroadwan/schoolauth/pkg/slogx"
)

// TokenIssuer mints and verifies both token kinds.
type TokenIssuer interface {
	Issue(p jwtx.Principal, kind jwtx.Kind) (string, error)
	Verify(token string) (jwtx.Claims, error)
	VerifyRefresh(token string) (jwtx.Claims, error)
}

type TokenService struct {
	Issuer      TokenIssuer
	Revocations revocation.Store
	Store       store.Store
	Timeout     time.Duration
}

// IssuePair mints an access and a refresh token for u.
func (s *TokenService) IssuePair(u domain.User) (domain.TokenPair, error) {
	p := principalOf(u)

	access, err := s.Issuer.Issue(p, jwtx.KindAccess)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.Issuer.Issue(p, jwtx.KindRefresh)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}

	return domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a refresh token for a new pair carrying the user's
// current role. The presented refresh token is not rotated out; it stays
// usable until it expires or is revoked.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	log := slogx.FromContext(ctx)

	// 1. Verify signature, expiry and kind.
	claims, err := s.Issuer.VerifyRefresh(refreshToken)
	if err != nil {
		if errors.Is(err, jwtx.ErrExpired) {
			return domain.TokenPair{}, fmt.Errorf("%w: %w", ErrExpiredRefresh, err)
		}
		if errors.Is(err, jwtx.ErrMissingSecret) {
			return domain.TokenPair{}, err
		}
		return domain.TokenPair{}, fmt.Errorf("%w: %w", ErrInvalidRefresh, err)
	}

	// 2. Logout may have revoked it.
	revoked, err := s.Revocations.IsRevoked(ctx, refreshToken)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("%w: revocation check: %w", ErrRepositoryUnavailable, err)
	}
	if revoked {
		return domain.TokenPair{}, ErrRevokedRefresh
	}

	// 3. Re-read the user so role changes take effect.
	repoCtx, cancel := withRepoTimeout(ctx, s.Timeout)
	defer cancel()

	u, err := s.Store.Users().GetUserByID(repoCtx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrPrincipalNotFound
		}
		return domain.TokenPair{}, repoErr(err)
	}

	if string(u.Role) != claims.Role {
		log.Info("role changed since refresh token was issued",
			"user_id", u.ID, "old_role", claims.Role, "new_role", u.Role)
	}

	// 4. Fresh pair.
	return s.IssuePair(u)
}

// Logout revokes the caller's access token and, when given, a refresh
// token belonging to the same subject. A refresh token that does not
// verify or belongs to someone else is ignored.
func (s *TokenService) Logout(ctx context.Context, subject, accessToken, refreshToken string) error {
	log := slogx.FromContext(ctx)

	if _, err := s.Revocations.Revoke(ctx, accessToken); err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}

	if refreshToken == "" {
		return nil
	}

	claims, err := s.Issuer.VerifyRefresh(refreshToken)
	switch {
	case errors.Is(err, jwtx.ErrExpired):
		return nil
	case err != nil:
		log.Warn("logout: ignoring unverifiable refresh token", "err", err)
		return nil
	case claims.Subject != subject:
		log.Warn("logout: ignoring refresh token of another subject", "user_id", subject)
		return nil
	}

	if _, err := s.Revocations.Revoke(ctx, refreshToken); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// Revoke force-revokes any token this service issued. It reports false
// for a token that has already expired. Tokens that fail verification
// for any other reason are rejected so the store only ever holds our own
// tokens.
func (s *TokenService) Revoke(ctx context.Context, token string) (bool, error) {
	_, errAccess := s.Issuer.Verify(token)
	if errAccess != nil {
		_, errRefresh := s.Issuer.VerifyRefresh(token)
		switch {
		case errRefresh == nil:
		case errors.Is(errAccess, jwtx.ErrExpired) || errors.Is(errRefresh, jwtx.ErrExpired):
			return false, nil
		default:
			return false, invalid("token is not a valid token issued by this service")
		}
	}

	ok, err := s.Revocations.Revoke(ctx, token)
	if err != nil {
		return false, fmt.Errorf("revoke token: %w", err)
	}
	return ok, nil
}

// Stats reports the revocation store size and last sweep.
func (s *TokenService) Stats(ctx context.Context) (revocation.Stats, error) {
	return s.Revocations.Stats(ctx)
}

// Clear empties the revocation store. Every revoked token that has not
// yet expired becomes usable again.
func (s *TokenService) Clear(ctx context.Context) (int, error) {
	n, err := s.Revocations.Clear(ctx)
	if err != nil {
		return 0, err
	}
	slogx.FromContext(ctx).Warn("revocation store cleared", "cleared", n)
	return n, nil
}

func principalOf(u domain.User) jwtx.Principal {
	return jwtx.Principal{ID: u.ID, Email: u.Email, Role: string(u.Role)}
}
