package authsdk

import (
	"context"
	"net/http"
	"net/url"
)

// TokenStats reports the revocation store size and last sweep. Requires ADMIN.
func (s *Session) TokenStats(ctx context.Context) (*TokenStatsResponse, error) {
	var out TokenStatsResponse
	if err := s.do(ctx, http.MethodGet, "/admin/tokens/stats", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearBlacklist empties the revocation store. Requires ADMIN.
func (s *Session) ClearBlacklist(ctx context.Context) (int, error) {
	var out ClearBlacklistResponse
	if err := s.do(ctx, http.MethodDelete, "/admin/tokens/blacklist", nil, &out, http.StatusOK); err != nil {
		return 0, err
	}
	return out.ClearedCount, nil
}

// RevokeToken force-revokes any token issued by the service. Requires ADMIN.
func (s *Session) RevokeToken(ctx context.Context, token string) (bool, error) {
	var out RevokeTokenResponse
	if err := s.do(ctx, http.MethodPost, "/admin/tokens/revoke", RevokeTokenRequest{Token: token}, &out, http.StatusOK); err != nil {
		return false, err
	}
	return out.Revoked, nil
}

// UpdateUserRole assigns role to the user. Requires ADMIN.
func (s *Session) UpdateUserRole(ctx context.Context, userID, role string) (*User, error) {
	var out UserResponse
	path := "/admin/users/" + url.PathEscape(userID) + "/role"
	if err := s.do(ctx, http.MethodPatch, path, UpdateRoleRequest{Role: role}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.User, nil
}
