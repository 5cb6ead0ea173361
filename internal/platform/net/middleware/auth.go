package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	perr "reaper/internal/platform/errors"
	pnet "reaper/internal/platform/net"
)

// TokenVerifier checks a bearer token and returns the verified principal
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (principal string, err error)
}

// BearerAuth rejects requests without a token v accepts; the principal lands on ctx
// A nil verifier lets every request through (local development only)
func BearerAuth(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v == nil {
				next.ServeHTTP(w, r)
				return
			}
			token, ok := bearer(r.Header.Get("Authorization"))
			if !ok {
				deny(w, r, perr.Unauthorizedf("missing bearer token"))
				return
			}
			principal, err := v.Verify(r.Context(), token)
			if err != nil {
				deny(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(pnet.WithCaller(r.Context(), principal)))
		})
	}
}

func bearer(h string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(h), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func deny(w http.ResponseWriter, r *http.Request, err error) {
	if !perr.IsCode(err, perr.ErrorCodeUnauthorized) && !perr.IsCode(err, perr.ErrorCodeForbidden) {
		err = perr.Wrap(err, perr.ErrorCodeUnauthorized, "token rejected")
	}
	status, body := pnet.Error(err, pnet.RequestID(r.Context()))
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
