// Package http provides meta endpoints
package http

import (
	stdctx "context"
	"net/http"
	"time"

	"reaper/internal/core/version"
	"reaper/internal/modkit/httpkit"
	phttp "reaper/internal/platform/net/http"
)

// Pinger is satisfied by adapters that expose Ping
type Pinger interface {
	Ping(stdctx.Context) error
}

// PingFunc adapts a plain function, handy for clients whose Ping returns a command
type PingFunc func(stdctx.Context) error

// Ping calls f
func (f PingFunc) Ping(ctx stdctx.Context) error { return f(ctx) }

// Deps are the handler dependencies; a nil checker is reported as skipped
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	Checks      map[string]Pinger
	Timeout     time.Duration
}

type handlers struct {
	deps  Deps
	order []string
	now   func() time.Time
}

// checkOrder is the stable order checks are reported in
var checkOrder = []string{"pg", "redis", "ch"}

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	if d.Timeout <= 0 {
		d.Timeout = 2 * time.Second
	}
	h := &handlers{deps: d, now: time.Now}
	for _, n := range checkOrder {
		if _, ok := d.Checks[n]; ok {
			h.order = append(h.order, n)
		}
	}

	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", h.version)
}

// HealthResponse is the health payload
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Started string `json:"started"`
	Uptime  int64  `json:"uptime"`
}

// ReadyCheck describes a single dependency check
type ReadyCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // ok fail skipped
	Error  string `json:"error,omitempty"`
}

// ReadyResponse summarizes readiness
type ReadyResponse struct {
	Status string       `json:"status"` // ok degraded fail
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"`
}

func (h *handlers) health(_ *http.Request) (any, error) {
	now := h.now()
	return HealthResponse{
		OK:      true,
		Service: h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(now.Sub(h.deps.StartedAt) / time.Second),
	}, nil
}

func (h *handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := stdctx.WithTimeout(r.Context(), h.deps.Timeout)
	defer cancel()

	out := ReadyResponse{Status: "ok", Now: h.now().UTC().Format(time.RFC3339)}
	for _, name := range h.order {
		c := ReadyCheck{Name: name, Status: "ok"}
		p := h.deps.Checks[name]
		switch {
		case p == nil:
			c.Status = "skipped"
			if out.Status == "ok" {
				out.Status = "degraded"
			}
		default:
			if err := p.Ping(ctx); err != nil {
				c.Status, c.Error = "fail", err.Error()
				out.Status = "fail"
			}
		}
		out.Checks = append(out.Checks, c)
	}

	if out.Status == "fail" {
		return phttp.Response{Status: http.StatusServiceUnavailable, Body: out}, nil
	}
	return out, nil
}

func (h *handlers) version(_ *http.Request) (any, error) {
	return version.Info(h.deps.ServiceName), nil
}
