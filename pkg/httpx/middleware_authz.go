package httpx

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/aussiebroadwan/schoolauth/pkg/slogx"
)

// RequireRole admits principals whose role is one of roles. It must sit
// behind Authenticate.
func RequireRole(roles ...string) Middleware {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	sorted := slices.Clone(roles)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	required := strings.Join(sorted, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				WriteUnauthorized(w, MsgAuthRequired)
				return
			}

			if _, ok := allowed[p.Role]; !ok {
				slogx.FromContext(r.Context()).Warn("access denied",
					"user_id", p.ID,
					"role", p.Role,
					"required", required,
				)
				WriteError(w, http.StatusForbidden,
					fmt.Sprintf("Access denied. Required role: %s. Your role: %s", required, p.Role))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
