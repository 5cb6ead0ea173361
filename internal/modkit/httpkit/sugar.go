package httpkit

import (
	"net/http"

	phttp "reaper/internal/platform/net/http"
)

// Get registers a no-body handler and uses the envelope adapter
func Get(r Router, path string, h func(*http.Request) (any, error)) {
	r.Get(path, Call(h))
}

// PostJSON binds and validates T, answering 200
func PostJSON[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	phttp.PostJSON(r, path, h)
}

// PostAccepted binds and validates T, answering 202 (work was queued, not done)
func PostAccepted[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	phttp.PostAccepted(r, path, h)
}
