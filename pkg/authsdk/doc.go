/*
Package authsdk provides a client SDK for the school authentication service.

# Overview

The package is organized around two types:

  - SDKClient: unauthenticated operations (register, login, refresh, health)
  - Session: authenticated operations with automatic access-token refresh

Create an SDKClient and log in to obtain a Session:

	client := authsdk.NewSDKClient("https://auth.school.example")

	session, err := client.Login(ctx, "teacher@school.com", "secret1")
	if err != nil {
		return err
	}

	me, err := session.Me(ctx)

A Session refreshes its access token shortly before the exp claim using the
refresh token it holds. Logout revokes both tokens server-side:

	err = session.Logout(ctx)

# Administration

Sessions whose principal has the ADMIN role can inspect and manage the
token revocation store:

	stats, err := session.TokenStats(ctx)
	cleared, err := session.ClearBlacklist(ctx)
	revoked, err := session.RevokeToken(ctx, someToken)
	user, err := session.UpdateUserRole(ctx, userID, "STAFF")

# Errors

Every non-success response decodes into *APIError, carrying the HTTP status
and the server's message:

	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) && apiErr.IsUnauthorized() {
		// log in again
	}

# Thread Safety

SDKClient and Session are safe for concurrent use.
*/
package authsdk
