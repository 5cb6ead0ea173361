package httpkit

import (
	"net/http"
	"time"

	"reaper/internal/platform/net/middleware"
)

// CommonStack returns the baseline per scope middleware slice
func CommonStack() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: 2 * time.Second}),
		middleware.RecoverJSON,
		middleware.NoCache(),
		middleware.AllowContentType("application/json"),
	}
}

// Auth wires bearer auth against a token verifier
func Auth(v middleware.TokenVerifier) func(http.Handler) http.Handler {
	return middleware.BearerAuth(v)
}
