package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/schoolauth/internal/auth/service"
	"github.com/aussiebroadwan/schoolauth/pkg/authsdk"
	"github.com/aussiebroadwan/schoolauth/pkg/httpx"
	"github.com/aussiebroadwan/schoolauth/pkg/slogx"
)

// AuthHandler serves the /auth routes.
type AuthHandler struct {
	UserService  *service.UserService
	TokenService *service.TokenService
}

// HandleRegister godoc
//
//	@Summary		Register
//	@Description	Creates an account and returns a token pair. Role defaults to STUDENT; only STUDENT, PARENT and TEACHER may self-register.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterRequest	true	"New account"
//	@Success		201		{object}	authsdk.AuthResponse
//	@Failure		400		{object}	httpx.ErrorResponse	"Validation failed"
//	@Failure		409		{object}	httpx.ErrorResponse	"Email already registered"
//	@Failure		429		{object}	httpx.ErrorResponse
//	@Router			/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.MsgInvalidBody)
		return
	}

	u, err := h.UserService.Register(r.Context(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	pair, err := h.TokenService.IssuePair(u)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, authsdk.AuthResponse{
		User:         toUser(u),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// HandleLogin godoc
//
//	@Summary		Login
//	@Description	Exchanges email and password for a token pair. The error never says which of the two was wrong.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.AuthResponse
//	@Failure		400		{object}	httpx.ErrorResponse	"Missing email or password"
//	@Failure		401		{object}	httpx.ErrorResponse	"Invalid email or password"
//	@Failure		429		{object}	httpx.ErrorResponse
//	@Router			/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.MsgInvalidBody)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	u, err := h.UserService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	pair, err := h.TokenService.IssuePair(u)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	slogx.FromContext(r.Context()).Info("user logged in", "user_id", u.ID, "role", u.Role)
	httpx.WriteJSON(w, http.StatusOK, authsdk.AuthResponse{
		User:         toUser(u),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// HandleMe godoc
//
//	@Summary		Current user
//	@Description	Returns the authenticated user as currently stored.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.UserResponse
//	@Failure		401	{object}	httpx.ErrorResponse
//	@Failure		503	{object}	httpx.ErrorResponse
//	@Router			/auth/me [get].
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	p, ok := httpx.PrincipalFromContext(r.Context())
	if !ok {
		httpx.WriteUnauthorized(w, httpx.MsgAuthRequired)
		return
	}

	u, err := h.UserService.GetUserByID(r.Context(), p.ID)
	if errors.Is(err, service.ErrUserNotFound) {
		slogx.FromContext(r.Context()).Warn("token subject no longer exists", "user_id", p.ID)
		httpx.WriteUnauthorized(w, httpx.MsgInvalidToken)
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.UserResponse{User: toUser(u)})
}

// HandleRefresh godoc
//
//	@Summary		Refresh tokens
//	@Description	Exchanges a refresh token for a new pair carrying the user's current role.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RefreshRequest	true	"Refresh token"
//	@Success		200		{object}	authsdk.TokenPairResponse
//	@Failure		400		{object}	httpx.ErrorResponse	"Refresh token required"
//	@Failure		401		{object}	httpx.ErrorResponse	"Invalid or expired token"
//	@Failure		503		{object}	httpx.ErrorResponse
//	@Router			/auth/refresh [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RefreshRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.MsgInvalidBody)
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		httpx.WriteError(w, http.StatusBadRequest, httpx.MsgRefreshTokenMissing)
		return
	}

	pair, err := h.TokenService.Refresh(r.Context(), strings.TrimSpace(req.RefreshToken))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// HandleLogout godoc
//
//	@Summary		Logout
//	@Description	Revokes the bearer access token and, if supplied, the caller's refresh token.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LogoutRequest	false	"Optional refresh token"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Failure		401		{object}	httpx.ErrorResponse
//	@Router			/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, ok := httpx.PrincipalFromContext(ctx)
	token, hasToken := httpx.TokenFromContext(ctx)
	if !ok || !hasToken {
		httpx.WriteUnauthorized(w, httpx.MsgAuthRequired)
		return
	}

	// The body is optional. An unreadable one must not keep the access
	// token alive, so it is treated as absent.
	var req authsdk.LogoutRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		slogx.FromContext(ctx).Warn("logout: ignoring unreadable body", "user_id", p.ID, "err", err)
		req = authsdk.LogoutRequest{}
	}

	if err := h.TokenService.Logout(ctx, p.ID, token, strings.TrimSpace(req.RefreshToken)); err != nil {
		writeServiceError(w, r, err)
		return
	}

	slogx.FromContext(ctx).Info("user logged out", "user_id", p.ID)
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: msgLoggedOut})
}
