package middleware

import (
	stdhttp "net/http"
	"runtime/debug"

	perr "reaper/internal/platform/errors"
	"reaper/internal/platform/logger"
	pnet "reaper/internal/platform/net"
)

// RecoverJSON converts panics into the JSON error envelope and logs the stack
// http.ErrAbortHandler is re-panicked so the server can abort the connection
func RecoverJSON(next stdhttp.Handler) stdhttp.Handler {
	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == stdhttp.ErrAbortHandler {
				panic(v)
			}
			reqID := pnet.RequestID(r.Context())
			logger.C(logger.WithRequest(r.Context(), reqID)).Error().
				Interface("panic", v).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			if reqID != "" {
				w.Header().Set("X-Request-ID", reqID)
			}
			status, body := pnet.Error(perr.PanicErrf("panic recovered"), reqID)
			writeJSON(w, status, body)
		}()
		next.ServeHTTP(w, r)
	})
}
