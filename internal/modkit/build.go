package modkit

import (
	"net/http"

	phttp "reaper/internal/platform/net/http"
)

// Built is the resolved option set a module constructor reads
type Built struct {
	Name     string
	Prefix   string
	Mw       []func(http.Handler) http.Handler
	Ports    any
	Register func(phttp.Router)
}

// Build applies opts in order; later options win
func Build(opts ...Option) Built {
	var c buildCfg
	for _, o := range opts {
		o(&c)
	}
	if c.register == nil {
		c.register = func(phttp.Router) {}
	}
	return Built{
		Name:     c.name,
		Prefix:   c.prefix,
		Mw:       append([]func(http.Handler) http.Handler(nil), c.mw...),
		Ports:    c.ports,
		Register: c.register,
	}
}

// PortsAs returns b.Ports as T, or the zero T when unset or of another type
func PortsAs[T any](b Built) T {
	v, _ := b.Ports.(T)
	return v
}

// Mount is the MountRoutes body every module shares: prefix, middleware, then routes
func Mount(r phttp.Router, prefix string, mw []func(http.Handler) http.Handler, register ...func(phttp.Router)) {
	r.Route(prefix, func(rr phttp.Router) {
		if len(mw) > 0 {
			rr.Use(mw...)
		}
		for _, fn := range register {
			if fn != nil {
				fn(rr)
			}
		}
	})
}
