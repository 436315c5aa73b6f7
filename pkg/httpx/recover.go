package httpx

import (
	"net/http"
	"runtime/debug"

	"github.com/aussiebroadwan/schoolauth/pkg/slogx"
)

// Recoverer turns a handler panic into a 500 and an error log.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			p := recover()
			if p == nil {
				return
			}
			if p == http.ErrAbortHandler {
				panic(p)
			}
			slogx.FromContext(r.Context()).Error("panic recovered",
				"panic", p,
				"stack", string(debug.Stack()),
			)
			WriteError(w, http.StatusInternalServerError, MsgInternal)
		}()

		next.ServeHTTP(w, r)
	})
}
