package service

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultRepositoryTimeout bounds a single user lookup.
const DefaultRepositoryTimeout = 3 * time.Second

var (
	ErrInvalidCredentials    = errors.New("invalid_credentials")
	ErrEmailTaken            = errors.New("email_taken")
	ErrUserNotFound          = errors.New("user_not_found")
	ErrPrincipalNotFound     = errors.New("principal_not_found")
	ErrRepositoryUnavailable = errors.New("repository_unavailable")
	ErrInvalidRefresh        = errors.New("invalid_refresh_token")
	ErrExpiredRefresh        = errors.New("expired_refresh_token")
	ErrRevokedRefresh        = errors.New("revoked_refresh_token")
	ErrUnknownIdentity       = errors.New("unknown_identity")
)

// ValidationError carries a message safe to show the client.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// withRepoTimeout bounds ctx by d, falling back to the default.
func withRepoTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultRepositoryTimeout
	}
	return context.WithTimeout(ctx, d)
}

// repoErr folds deadline and cancellation into ErrRepositoryUnavailable.
func repoErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", ErrRepositoryUnavailable, err)
	}
	return err
}
