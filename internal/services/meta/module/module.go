// Package module wires meta endpoints into the API using a tiny module
package module

import (
	"context"
	"net/http"
	"time"

	modkit "reaper/internal/modkit"
	phttp "reaper/internal/platform/net/http"
	str "reaper/internal/platform/strings"

	metahttp "reaper/internal/services/meta/http"
)

// Module implements the modkit.Module interface
type Module struct {
	name     string
	prefix   string
	mws      []func(http.Handler) http.Handler
	register func(phttp.Router)
}

// New constructs a meta module; backends absent from deps are reported as skipped
func New(deps modkit.Deps, service string, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)

	checks := map[string]metahttp.Pinger{"pg": nil, "redis": nil, "ch": nil}
	if p, ok := deps.PG.(metahttp.Pinger); ok {
		checks["pg"] = p
	}
	if deps.Redis != nil {
		rc := deps.Redis
		checks["redis"] = metahttp.PingFunc(func(ctx context.Context) error { return rc.Ping(ctx).Err() })
	}
	if p, ok := deps.CH.(metahttp.Pinger); ok {
		checks["ch"] = p
	}

	started := time.Now()
	external := b.Register
	return &Module{
		name:   b.Name,
		prefix: b.Prefix,
		mws:    b.Mw,
		register: func(r phttp.Router) {
			metahttp.Register(r, metahttp.Deps{
				ServiceName: service,
				StartedAt:   started,
				Checks:      checks,
			})
			external(r)
		},
	}
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r phttp.Router) {
	modkit.Mount(r, str.MustPrefix(m.prefix), m.mws, m.register)
}

// Name implements the modkit.Module interface
func (m *Module) Name() string { return m.name }

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return nil }
