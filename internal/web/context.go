package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/claims/internal/core"
)

// withClient tags the request context with the caller's address and user
// agent for the service's mutation and import logs. RemoteAddr has already
// been resolved by TrustedRealIP.
func withClient(r *http.Request) context.Context {
	return core.ContextWithClient(r.Context(), r.RemoteAddr, r.UserAgent())
}
