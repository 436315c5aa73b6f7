package service_test

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/schoolauth/internal/auth/domain"
	"github.com/aussiebroadwan/schoolauth/internal/auth/service"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults to student and lower-cases email", func(t *testing.T) {
		f := newFixture(t)

		u, err := f.users.Register(ctx, service.RegisterInput{
			Email:     "Pupil@School.com",
			Password:  "secret1",
			FirstName: " Pat ",
			LastName:  "Pupil",
		})
		require.NoError(t, err)
		require.Equal(t, "pupil@school.com", u.Email)
		require.Equal(t, "Pat", u.FirstName)
		require.Equal(t, domain.RoleStudent, u.Role)
		require.NotEqual(t, "secret1", u.PasswordHash)
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := newFixture(t)
		f.register(t, "dup@school.com", domain.RoleParent)

		_, err := f.users.Register(ctx, service.RegisterInput{
			Email: "DUP@school.com", Password: "secret1", FirstName: "A", LastName: "B",
		})
		require.ErrorIs(t, err, service.ErrEmailTaken)
	})

	invalid := map[string]service.RegisterInput{
		"missing email":  {Password: "secret1", FirstName: "A", LastName: "B"},
		"bad email":      {Email: "not-an-email", Password: "secret1", FirstName: "A", LastName: "B"},
		"display name":   {Email: "Ann <a@school.com>", Password: "secret1", FirstName: "A", LastName: "B"},
		"short password": {Email: "a@school.com", Password: "12345", FirstName: "A", LastName: "B"},
		"missing names":  {Email: "a@school.com", Password: "secret1"},
		"admin role":     {Email: "a@school.com", Password: "secret1", FirstName: "A", LastName: "B", Role: "ADMIN"},
		"staff role":     {Email: "a@school.com", Password: "secret1", FirstName: "A", LastName: "B", Role: "STAFF"},
		"lowercase role": {Email: "a@school.com", Password: "secret1", FirstName: "A", LastName: "B", Role: "teacher"},
	}
	for name, in := range invalid {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.users.Register(ctx, in)
			var verr *service.ValidationError
			require.ErrorAs(t, err, &verr)
			require.NotEmpty(t, verr.Message)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	registered := f.register(t, "login@school.com", domain.RoleTeacher)

	t.Run("success is case-insensitive on email", func(t *testing.T) {
		u, err := f.users.Authenticate(ctx, "LOGIN@school.com", "secret1")
		require.NoError(t, err)
		require.Equal(t, registered.ID, u.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.users.Authenticate(ctx, "login@school.com", "wrong!")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := f.users.Authenticate(ctx, "nobody@school.com", "secret1")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	})
}

func TestUpdateRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.register(t, "promote@school.com", domain.RoleTeacher)

	t.Run("promotes", func(t *testing.T) {
		got, err := f.users.UpdateRole(ctx, u.ID, "STAFF")
		require.NoError(t, err)
		require.Equal(t, domain.RoleStaff, got.Role)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := f.users.UpdateRole(ctx, u.ID, "JANITOR")
		var verr *service.ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := f.users.UpdateRole(ctx, "missing", "ADMIN")
		require.ErrorIs(t, err, service.ErrUserNotFound)
	})
}

func TestAuthenticateIdentity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.register(t, "sso@school.com", domain.RoleParent)

	got, err := f.users.AuthenticateIdentity(ctx, service.Identity{Subject: "ext-1", Email: "SSO@school.com", EmailVerified: true})
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	_, err = f.users.AuthenticateIdentity(ctx, service.Identity{Subject: "ext-1", Email: "sso@school.com"})
	require.ErrorIs(t, err, service.ErrUnknownIdentity)

	_, err = f.users.AuthenticateIdentity(ctx, service.Identity{Subject: "ext-2", Email: "stranger@school.com", EmailVerified: true})
	require.ErrorIs(t, err, service.ErrUnknownIdentity)
}

func TestSeedAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	seed := &service.BootstrapService{Store: f.store, Email: "admin@school.com", Password: "admin123"}

	created, err := seed.SeedAdmin(ctx)
	require.NoError(t, err)
	require.True(t, created)

	u, err := f.users.Authenticate(ctx, "admin@school.com", "admin123")
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, u.Role)

	created, err = seed.SeedAdmin(ctx)
	require.NoError(t, err)
	require.False(t, created)

	created, err = (&service.BootstrapService{Store: f.store}).SeedAdmin(ctx)
	require.NoError(t, err)
	require.False(t, created)
}
