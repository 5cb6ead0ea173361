package httpkit

import (
	"reaper/internal/platform/net/middleware"
)

// Protected groups routes under bearer auth
func Protected(r Router, v middleware.TokenVerifier, fn func(Router)) {
	r.Group(func(gr Router) {
		gr.Use(Auth(v))
		fn(gr)
	})
}
