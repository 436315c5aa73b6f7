package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/schoolauth/internal/auth/store"
	"github.com/aussiebroadwan/schoolauth/pkg/authsdk"
	"github.com/aussiebroadwan/schoolauth/pkg/httpx"
	"github.com/aussiebroadwan/schoolauth/pkg/jwtx"
	"github.com/aussiebroadwan/schoolauth/pkg/revocation"
)

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe covering the user database, the revocation store and the token signer
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	revocations revocation.Store,
	verifier jwtx.Verifier,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		checks := &authsdk.HealthChecks{
			Database:   "ok",
			Revocation: "ok",
			Signer:     "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		degrade := func(field *string, err error) {
			*field = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if err := st.Ping(ctx); err != nil {
			degrade(&checks.Database, err)
		}
		if _, err := revocations.Stats(ctx); err != nil {
			degrade(&checks.Revocation, err)
		}
		if err := verifier.Validate(); err != nil {
			degrade(&checks.Signer, err)
		}

		httpx.WriteJSON(w, statusCode, authsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
