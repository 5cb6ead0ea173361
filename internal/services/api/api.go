// Package api composes the reaper HTTP surface from its modules
package api

import (
	"net/http"

	"reaper/internal/modkit"
	"reaper/internal/modkit/httpkit"
	"reaper/internal/modkit/swaggerkit"
	"reaper/internal/platform/config"
	"reaper/internal/platform/logger"
	"reaper/internal/platform/metrics"
	phttp "reaper/internal/platform/net/http"
	"reaper/internal/platform/net/middleware"
	"reaper/internal/platform/store"

	admod "reaper/internal/services/accountdelete/module"
	billingmod "reaper/internal/services/billing/module"
	metamod "reaper/internal/services/meta/module"
)

// Options are the API options
type Options struct {
	Config        config.Conf
	Store         *store.Store
	Logger        *logger.Logger
	EnableSwagger bool
}

// Mount mounts the API onto r
// /api/v1 carries the modules, /v{n}/cloud-tasks the queue callback
func Mount(r phttp.Router, opt Options) {
	deps := modkit.FromStore(*opt.Logger, opt.Config, opt.Store)

	// billing owns the payment adapters; account deletion consumes them
	billing := billingmod.New(deps)
	deletion := admod.New(deps, modkit.WithPorts(billing.Ports().(billingmod.Ports)))

	mods := []modkit.Module{
		metamod.New(deps, "reaper-api"),
		billing,
		deletion,
	}

	httpkit.Get(r, "/healthz", func(*http.Request) (any, error) {
		return map[string]string{"status": "ok"}, nil
	})
	r.Handle("/metrics", metrics.Default().Handler())
	swaggerkit.Mount(r, opt.EnableSwagger)

	// API_CORS_ORIGINS lists the browser origins allowed on /api/v1
	stack := httpkit.CommonStack()
	if origins := opt.Config.MayCSV("API_CORS_ORIGINS", nil); len(origins) > 0 {
		stack = append([]func(http.Handler) http.Handler{middleware.CORS(middleware.CORSOptions{AllowedOrigins: origins})}, stack...)
	}

	httpkit.MountAPIV1(r, stack, func(api httpkit.Router) {
		for _, m := range mods {
			m.MountRoutes(api)
			opt.Logger.Debug().Str("module", m.Name()).Msg("module mounted")
		}
	})
	deletion.MountCallback(r, httpkit.CommonStack()...)
}
