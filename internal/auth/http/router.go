package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/schoolauth/internal/auth/domain"
	"github.com/aussiebroadwan/schoolauth/internal/auth/service"
	"github.com/aussiebroadwan/schoolauth/internal/auth/store"
	"github.com/aussiebroadwan/schoolauth/pkg/httpx"
	"github.com/aussiebroadwan/schoolauth/pkg/jwtx"
	"github.com/aussiebroadwan/schoolauth/pkg/revocation"
	"github.com/aussiebroadwan/schoolauth/pkg/slogx"

	_ "github.com/aussiebroadwan/schoolauth/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	revocations  revocation.Store
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store        store.Store
	TokenService *service.TokenService
	UserService  *service.UserService

	// IdentityProvider is optional; the OIDC routes answer 404 without it.
	IdentityProvider service.IdentityProvider
}

func NewRouter(
	verifier jwtx.Verifier,
	revocations revocation.Store,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		revocations:  revocations,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// The request logger wraps the recoverer so a recovered panic is
	// still logged with its request id and final status.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.Recoverer,
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerOIDC()
	r.registerAdmin()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			School Authentication Service API
//	@version		0.1.0
//	@description	Authentication and role-based authorization for the school management backend.
//	@description
//	@description				Access and refresh tokens are HS256-signed JWTs. Revoked tokens are rejected until they expire.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/schoolauth
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) authn() httpx.Middleware {
	return httpx.Authenticate(r.verifier, r.revocations)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		UserService:  r.UserService,
		TokenService: r.TokenService,
	}

	// Credential endpoints - strict rate limits (brute force prevention)
	r.Mux.Handle("POST /auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "email"),
		),
	)
	r.Mux.Handle("POST /auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// Authenticated endpoints - lenient rate limit by user
	r.Mux.Handle("GET /auth/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			r.authn(),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("POST /auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			r.authn(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerOIDC() {
	if r.IdentityProvider == nil {
		r.Mux.HandleFunc("GET /auth/oidc/login", oidcDisabled)
		r.Mux.HandleFunc("GET /auth/oidc/callback", oidcDisabled)
		return
	}

	h := &OIDCHandler{
		Provider:     r.IdentityProvider,
		UserService:  r.UserService,
		TokenService: r.TokenService,
	}

	r.Mux.Handle("GET /auth/oidc/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /auth/oidc/callback",
		httpx.Chain(http.HandlerFunc(h.HandleCallback),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{
		TokenService: r.TokenService,
		UserService:  r.UserService,
	}

	admin := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn,
			r.authn(),
			httpx.RequireRole(domain.RoleAdmin.String()),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("GET /admin/tokens/stats", admin(h.HandleTokenStats))
	r.Mux.Handle("DELETE /admin/tokens/blacklist", admin(h.HandleClearBlacklist))
	r.Mux.Handle("POST /admin/tokens/revoke", admin(h.HandleRevokeToken))
	r.Mux.Handle("PATCH /admin/users/{id}/role", admin(h.HandleUpdateRole))
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.revocations, r.verifier),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
