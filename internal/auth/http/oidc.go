package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/schoolauth/internal/auth/service"
	"github.com/aussiebroadwan/schoolauth/pkg/authsdk"
	"github.com/aussiebroadwan/schoolauth/pkg/cryptox"
	"github.com/aussiebroadwan/schoolauth/pkg/httpx"
	"github.com/aussiebroadwan/schoolauth/pkg/slogx"
	"golang.org/x/oauth2"
)

const (
	oidcCookieName = "schoolauth_oidc"
	oidcCookiePath = "/auth/oidc"
	oidcFlowTTL    = 10 * time.Minute
)

// OIDCHandler delegates login to an external OpenID Connect provider and
// maps the verified identity onto an existing user.
type OIDCHandler struct {
	Provider     service.IdentityProvider
	UserService  *service.UserService
	TokenService *service.TokenService
}

// HandleLogin godoc
//
//	@Summary		Start external login
//	@Description	Redirects to the configured OpenID Connect provider using PKCE (S256).
//	@Tags			Auth
//	@Success		302
//	@Failure		404	{object}	httpx.ErrorResponse	"External login not configured"
//	@Router			/auth/oidc/login [get].
func (h *OIDCHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	nonce, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	verifier := oauth2.GenerateVerifier()

	http.SetCookie(w, &http.Cookie{
		Name:     oidcCookieName,
		Value:    strings.Join([]string{state, nonce, verifier}, "."),
		Path:     oidcCookiePath,
		MaxAge:   int(oidcFlowTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	httpx.NoCache(w)
	http.Redirect(w, r, h.Provider.AuthCodeURL(state, nonce, verifier), http.StatusFound)
}

// HandleCallback godoc
//
//	@Summary		Finish external login
//	@Description	Exchanges the authorization code, verifies the ID token and issues a token pair for the matching user. Accounts are never created here.
//	@Tags			Auth
//	@Produce		json
//	@Param			state	query		string	true	"Opaque state"
//	@Param			code	query		string	true	"Authorization code"
//	@Success		200		{object}	authsdk.AuthResponse
//	@Failure		400		{object}	httpx.ErrorResponse	"Bad state or code"
//	@Failure		401		{object}	httpx.ErrorResponse	"Unknown identity"
//	@Router			/auth/oidc/callback [get].
func (h *OIDCHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	// The flow cookie is single use.
	http.SetCookie(w, &http.Cookie{Name: oidcCookieName, Path: oidcCookiePath, MaxAge: -1})

	if e := r.FormValue("error"); e != "" {
		log.Warn("provider returned error", "error", e, "description", r.FormValue("error_description"))
		httpx.WriteError(w, http.StatusBadRequest, "External login failed")
		return
	}

	code, state := r.FormValue("code"), r.FormValue("state")
	if code == "" || state == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Missing code or state parameter")
		return
	}

	c, err := r.Cookie(oidcCookieName)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Login flow expired")
		return
	}
	parts := strings.Split(c.Value, ".")
	if len(parts) != 3 || parts[0] != state {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid state parameter")
		return
	}
	nonce, verifier := parts[1], parts[2]

	id, err := h.Provider.Exchange(ctx, code, verifier, nonce)
	if err != nil {
		log.Warn("external login exchange failed", "err", err)
		httpx.WriteError(w, http.StatusBadRequest, "External login failed")
		return
	}

	u, err := h.UserService.AuthenticateIdentity(ctx, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	pair, err := h.TokenService.IssuePair(u)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	log.Info("user logged in via external identity", "user_id", u.ID, "subject", id.Subject)
	httpx.WriteJSON(w, http.StatusOK, authsdk.AuthResponse{
		User:         toUser(u),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// oidcDisabled answers the OIDC routes when no provider is configured.
func oidcDisabled(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteError(w, http.StatusNotFound, "External login not configured")
}
