package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/schoolauth/internal/auth/domain"
	"github.com/aussiebroadwan/schoolauth/internal/auth/store"
	"github.com/aussiebroadwan/schoolauth/pkg/cryptox"
	"github.com/aussiebroadwan/schoolauth/pkg/idx"
	"github.com/aussiebroadwan/schoolauth/pkg/slogx"
)

// BootstrapService seeds the first administrator on an empty database.
type BootstrapService struct {
	Store    store.Store
	Email    string
	Password string
}

// SeedAdmin creates the configured admin when no users exist yet. It
// reports whether a user was created.
func (s *BootstrapService) SeedAdmin(ctx context.Context) (bool, error) {
	l := slogx.FromContext(ctx)

	if s.Email == "" || s.Password == "" {
		return false, nil
	}

	empty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return false, fmt.Errorf("check users: %w", err)
	}
	if !empty {
		l.Debug("users present, skipping admin seed")
		return false, nil
	}

	email, err := normalizeEmail(s.Email)
	if err != nil {
		return false, fmt.Errorf("seed admin email: %w", err)
	}

	hash, err := cryptox.HashPassword(s.Password)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}

	now := time.Now().UTC()
	admin := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		FirstName:    "System",
		LastName:     "Administrator",
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Users().CreateUser(ctx, admin); err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}

	l.Info("seeded admin user", slog.String("user_id", admin.ID), slog.String("email", admin.Email))
	return true, nil
}
