package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/aussiebroadwan/schoolauth/internal/auth/domain"
	"github.com/aussiebroadwan/schoolauth/internal/auth/store"
	"github.com/aussiebroadwan/schoolauth/pkg/cryptox"
	"github.com/aussiebroadwan/schoolauth/pkg/idx"
	"github.com/aussiebroadwan/schoolauth/pkg/slogx"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

type UserService struct {
	Store   store.Store
	Timeout time.Duration
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string // optional, defaults to STUDENT
}

// Register validates in, hashes the password and stores a new user.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return domain.User{}, err
	}

	switch n := len(in.Password); {
	case n < MinPasswordLength:
		return domain.User{}, invalid("password must be at least %d characters", MinPasswordLength)
	case n > cryptox.MaxPasswordLength:
		return domain.User{}, invalid("password must be at most %d bytes", cryptox.MaxPasswordLength)
	}

	first, last := strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName)
	if first == "" || last == "" {
		return domain.User{}, invalid("firstName and lastName are required")
	}

	role := domain.RoleStudent
	if in.Role != "" {
		role = domain.Role(in.Role)
		if !role.SelfAssignable() {
			return domain.User{}, invalid("role must be one of STUDENT, PARENT, TEACHER")
		}
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		FirstName:    first,
		LastName:     last,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	ctx, cancel := withRepoTimeout(ctx, s.Timeout)
	defer cancel()

	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, repoErr(err)
	}

	slogx.FromContext(ctx).Info("user registered", "user_id", u.ID, "role", u.Role)
	return u, nil
}

// Authenticate checks an email/password pair. Unknown emails and wrong
// passwords both yield ErrInvalidCredentials after a comparable amount of
// work.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	ctx, cancel := withRepoTimeout(ctx, s.Timeout)
	defer cancel()

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		cryptox.BurnCompare(password)
		return domain.User{}, ErrInvalidCredentials
	case err != nil:
		return domain.User{}, repoErr(err)
	}

	if !u.HasPassword() {
		cryptox.BurnCompare(password)
		return domain.User{}, ErrInvalidCredentials
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordInvalid) || errors.Is(err, cryptox.ErrPasswordTooLong) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}

	return u, nil
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	ctx, cancel := withRepoTimeout(ctx, s.Timeout)
	defer cancel()

	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, repoErr(err)
	}
	return u, nil
}

// UpdateRole assigns any valid role. Callers gate this to administrators.
func (s *UserService) UpdateRole(ctx context.Context, userID, role string) (domain.User, error) {
	r, err := domain.ParseRole(role)
	if err != nil {
		return domain.User{}, &ValidationError{Message: err.Error()}
	}

	ctx, cancel := withRepoTimeout(ctx, s.Timeout)
	defer cancel()

	var updated domain.User
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdateUserRole(ctx, userID, r); err != nil {
			return err
		}
		u, err := tx.Users().GetUserByID(ctx, userID)
		updated = u
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, repoErr(err)
	}

	slogx.FromContext(ctx).Info("user role updated", "user_id", userID, "role", r)
	return updated, nil
}

// AuthenticateIdentity maps a verified external identity onto an existing
// user by email. Users are never created here.
func (s *UserService) AuthenticateIdentity(ctx context.Context, id Identity) (domain.User, error) {
	if !id.EmailVerified || id.Email == "" {
		return domain.User{}, ErrUnknownIdentity
	}

	ctx, cancel := withRepoTimeout(ctx, s.Timeout)
	defer cancel()

	u, err := s.Store.Users().GetUserByEmail(ctx, strings.ToLower(id.Email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUnknownIdentity
		}
		return domain.User{}, repoErr(err)
	}
	return u, nil
}

func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", invalid("email is required")
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", invalid("email is not a valid address")
	}
	return strings.ToLower(addr.Address), nil
}
