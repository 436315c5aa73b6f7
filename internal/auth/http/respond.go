package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/schoolauth/internal/auth/domain"
	"github.com/aussiebroadwan/schoolauth/internal/auth/service"
	"github.com/aussiebroadwan/schoolauth/pkg/authsdk"
	"github.com/aussiebroadwan/schoolauth/pkg/httpx"
	"github.com/aussiebroadwan/schoolauth/pkg/jwtx"
	"github.com/aussiebroadwan/schoolauth/pkg/slogx"
)

const (
	msgEmailTaken      = "Email already registered"
	msgUserNotFound    = "User not found"
	msgUnknownIdentity = "No account is linked to this identity"
	msgLoggedOut       = "Logged out successfully"
)

func toUser(u domain.User) authsdk.User {
	return authsdk.User{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// writeServiceError maps service and token errors onto the uniform error
// body. Anything unrecognised is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	log := slogx.FromContext(r.Context())

	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.WriteError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, service.ErrEmailTaken):
		httpx.WriteError(w, http.StatusConflict, msgEmailTaken)
	case errors.Is(err, service.ErrInvalidCredentials):
		log.Warn("login rejected")
		httpx.WriteError(w, http.StatusUnauthorized, httpx.MsgInvalidCredentials)
	case errors.Is(err, service.ErrInvalidRefresh),
		errors.Is(err, service.ErrExpiredRefresh),
		errors.Is(err, service.ErrRevokedRefresh),
		errors.Is(err, service.ErrPrincipalNotFound):
		log.Warn("refresh rejected", "err", err)
		httpx.WriteUnauthorized(w, httpx.MsgInvalidToken)
	case errors.Is(err, service.ErrUnknownIdentity):
		log.Warn("external identity rejected", "err", err)
		httpx.WriteError(w, http.StatusUnauthorized, msgUnknownIdentity)
	case errors.Is(err, service.ErrUserNotFound):
		httpx.WriteError(w, http.StatusNotFound, msgUserNotFound)
	case errors.Is(err, service.ErrRepositoryUnavailable):
		log.Error("repository unavailable", "err", err)
		httpx.WriteError(w, http.StatusServiceUnavailable, httpx.MsgUnavailable)
	case errors.Is(err, jwtx.ErrMissingSecret):
		log.Error("token issuer misconfigured", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, httpx.MsgMisconfigured)
	default:
		log.Error("request failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, httpx.MsgInternal)
	}
}
