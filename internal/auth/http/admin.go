package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/schoolauth/internal/auth/service"
	"github.com/aussiebroadwan/schoolauth/pkg/authsdk"
	"github.com/aussiebroadwan/schoolauth/pkg/httpx"
	"github.com/aussiebroadwan/schoolauth/pkg/slogx"
)

// AdminHandler serves the ADMIN-only routes.
type AdminHandler struct {
	TokenService *service.TokenService
	UserService  *service.UserService
}

// HandleTokenStats godoc
//
//	@Summary		Revocation store statistics
//	@Description	Number of revoked, unexpired tokens and the time of the last sweep (null before the first).
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.TokenStatsResponse
//	@Failure		401	{object}	httpx.ErrorResponse
//	@Failure		403	{object}	httpx.ErrorResponse
//	@Router			/admin/tokens/stats [get].
func (h *AdminHandler) HandleTokenStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.TokenService.Stats(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := authsdk.TokenStatsResponse{Count: stats.Count}
	if !stats.LastSweep.IsZero() {
		t := stats.LastSweep.UTC()
		resp.LastSweepTime = &t
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleClearBlacklist godoc
//
//	@Summary		Clear revocation store
//	@Description	Drops every revocation entry. Revoked tokens that have not expired become usable again.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.ClearBlacklistResponse
//	@Failure		401	{object}	httpx.ErrorResponse
//	@Failure		403	{object}	httpx.ErrorResponse
//	@Router			/admin/tokens/blacklist [delete].
func (h *AdminHandler) HandleClearBlacklist(w http.ResponseWriter, r *http.Request) {
	n, err := h.TokenService.Clear(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.ClearBlacklistResponse{ClearedCount: n})
}

// HandleRevokeToken godoc
//
//	@Summary		Force-revoke a token
//	@Description	Revokes an access or refresh token issued by this service. revoked is false when the token had already expired.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RevokeTokenRequest	true	"Token to revoke"
//	@Success		200		{object}	authsdk.RevokeTokenResponse
//	@Failure		400		{object}	httpx.ErrorResponse
//	@Failure		401		{object}	httpx.ErrorResponse
//	@Failure		403		{object}	httpx.ErrorResponse
//	@Router			/admin/tokens/revoke [post].
func (h *AdminHandler) HandleRevokeToken(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RevokeTokenRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.MsgInvalidBody)
		return
	}
	token := strings.TrimSpace(req.Token)
	if token == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Token required")
		return
	}

	revoked, err := h.TokenService.Revoke(r.Context(), token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if p, ok := httpx.PrincipalFromContext(r.Context()); ok {
		slogx.FromContext(r.Context()).Info("token force-revoked", "by", p.ID, "revoked", revoked)
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.RevokeTokenResponse{Revoked: revoked})
}

// HandleUpdateRole godoc
//
//	@Summary		Change a user's role
//	@Description	Assigns any role. Tokens already issued keep the old role until refreshed.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"User ID"
//	@Param			request	body		authsdk.UpdateRoleRequest	true	"New role"
//	@Success		200		{object}	authsdk.UserResponse
//	@Failure		400		{object}	httpx.ErrorResponse
//	@Failure		401		{object}	httpx.ErrorResponse
//	@Failure		403		{object}	httpx.ErrorResponse
//	@Failure		404		{object}	httpx.ErrorResponse
//	@Router			/admin/users/{id}/role [patch].
func (h *AdminHandler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	var req authsdk.UpdateRoleRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.MsgInvalidBody)
		return
	}

	u, err := h.UserService.UpdateRole(r.Context(), r.PathValue("id"), req.Role)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.UserResponse{User: toUser(u)})
}
