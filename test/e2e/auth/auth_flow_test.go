package auth_test

import (
	"net/http"
	"testing"

	"github.com/aussiebroadwan/schoolauth/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestRegisterLoginMe walks the basic account lifecycle.
func TestRegisterLoginMe(t *testing.T) {
	client := authsdk.NewSDKClient(setupAuthContainer(t))
	ctx := t.Context()

	_, user := registerUser(t, client, "student@school.com", "")
	require.Equal(t, "STUDENT", user.Role)

	session, err := client.Login(ctx, "student@school.com", userPassword)
	require.NoError(t, err)

	me, err := session.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, user.ID, me.ID)
	require.Equal(t, "student@school.com", me.Email)

	_, err = client.Login(ctx, "student@school.com", "wrong-password")
	requireStatus(t, err, http.StatusUnauthorized, "wrong password")

	_, _, err = client.Register(ctx, authsdk.RegisterRequest{
		Email: "student@school.com", Password: userPassword, FirstName: "Dup", LastName: "User",
	})
	requireStatus(t, err, http.StatusConflict, "duplicate email")

	_, _, err = client.Register(ctx, authsdk.RegisterRequest{
		Email: "boss@school.com", Password: userPassword, FirstName: "Boss", LastName: "User", Role: "ADMIN",
	})
	requireStatus(t, err, http.StatusBadRequest, "self-assigned admin")
}

// TestLogoutRevokesBothTokens checks that a logged-out pair is dead.
func TestLogoutRevokesBothTokens(t *testing.T) {
	client := authsdk.NewSDKClient(setupAuthContainer(t))
	ctx := t.Context()

	session, _ := registerUser(t, client, "parent@school.com", "PARENT")
	access, refresh := session.AccessToken(), session.RefreshToken()

	require.NoError(t, session.Logout(ctx))

	_, err := client.NewSession(access, refresh).Me(ctx)
	requireStatus(t, err, http.StatusUnauthorized, "revoked access token")

	_, err = client.Refresh(ctx, refresh)
	requireStatus(t, err, http.StatusUnauthorized, "revoked refresh token")

	admin := loginAdmin(t, client)
	stats, err := admin.TokenStats(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, stats.Count)
}

// TestRefreshPicksUpRoleChange checks that a refreshed token carries the
// role an administrator assigned after login.
func TestRefreshPicksUpRoleChange(t *testing.T) {
	client := authsdk.NewSDKClient(setupAuthContainer(t))
	ctx := t.Context()

	session, user := registerUser(t, client, "staff@school.com", "TEACHER")
	admin := loginAdmin(t, client)

	// A teacher cannot reach admin routes.
	_, err := session.TokenStats(ctx)
	requireStatus(t, err, http.StatusForbidden, "teacher on admin route")

	updated, err := admin.UpdateUserRole(ctx, user.ID, "ADMIN")
	require.NoError(t, err)
	require.Equal(t, "ADMIN", updated.Role)

	// The old access token still says TEACHER.
	_, err = session.TokenStats(ctx)
	requireStatus(t, err, http.StatusForbidden, "stale role before refresh")

	require.NoError(t, session.Refresh(ctx))
	_, err = session.TokenStats(ctx)
	require.NoError(t, err, "refreshed token should carry ADMIN")
}
