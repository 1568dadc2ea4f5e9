package middleware

import (
	"net/http"
	"strings"

	"github.com/atelierhq/handoff-api/internal/api/shared"
)

// IdentityHeader names the request header carrying the acting identity.
// The value is an opaque string: a worker name, a bot handle, whatever
// the client chooses to be known as. There is no authentication.
const IdentityHeader = "X-Handoff-User"

// IdentityMiddleware extracts the acting identity from the request
// header into the context. Handlers that require an identity reject
// requests where it is absent; read-only endpoints work without one.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := strings.TrimSpace(r.Header.Get(IdentityHeader))
		if actor != "" {
			r = r.WithContext(shared.SetActor(r.Context(), actor))
		}
		next.ServeHTTP(w, r)
	})
}
