// Package module wires the account delete manager, its stores, and its adapters using modkit
package module

import (
	"context"
	"net/http"
	"strconv"

	"reaper/internal/adapters/activity"
	"reaper/internal/adapters/cloudtasks"
	"reaper/internal/adapters/oidc"
	"reaper/internal/adapters/push"
	"reaper/internal/adapters/pushbox"
	modkit "reaper/internal/modkit"
	"reaper/internal/modkit/httpkit"
	"reaper/internal/platform/metrics"
	phttp "reaper/internal/platform/net/http"
	str "reaper/internal/platform/strings"

	"reaper/internal/services/accountdelete/domain"
	adhttp "reaper/internal/services/accountdelete/http"
	adsvc "reaper/internal/services/accountdelete/service"
	arepo "reaper/internal/services/accounts/repo"
	asvc "reaper/internal/services/accounts/service"
	bmod "reaper/internal/services/billing/module"
	orepo "reaper/internal/services/oauth/repo"
	osvc "reaper/internal/services/oauth/service"
)

// Module implements the account deletion API module
type Module struct {
	name       string
	prefix     string
	apiVersion int
	mws        []func(http.Handler) http.Handler
	register   func(phttp.Router)
	verifier   httpkit.TokenVerifier
	ports      Ports
}

// Ports exposes the manager to binaries that drive it directly
type Ports struct {
	Manager *adsvc.Manager
}

// dialQueue is swapped in tests to keep cloud tasks off the network
var dialQueue = func(ctx context.Context, o cloudtasks.Options) (domain.TaskQueue, error) {
	return cloudtasks.Dial[domain.DeleteTask](ctx, o)
}

// New constructs the module; billing ports arrive through modkit.WithPorts(bmod.Ports{...})
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("accountdelete"),
		modkit.WithPrefix("/accounts"),
	}, opts...)...)
	if deps.PG == nil || deps.Redis == nil {
		panic("accountdelete module requires postgres and redis")
	}

	cfg := FromConfig(deps.Cfg)
	queue, err := dialQueue(context.Background(), cfg.Queue)
	if err != nil {
		panic("accountdelete module: " + err.Error())
	}

	o := adsvc.Options{
		Accounts:         asvc.New(deps.PG, arepo.NewPG()),
		OAuth:            osvc.New(deps.PG, orepo.NewPG(), orepo.NewRedisTokens(deps.Redis)),
		Push:             push.New(deps.Redis, cfg.Push),
		Activity:         activity.New(deps.CH),
		Queue:            queue,
		Metrics:          metrics.Default(),
		PublicURL:        cfg.PublicURL,
		APIVersion:       cfg.APIVersion,
		QueueName:        cfg.QueueName,
		RefundPeriodDays: cfg.RefundPeriodDays,
	}
	if cfg.Pushbox.Enabled {
		o.Pushbox = pushbox.New(cfg.Pushbox)
	}
	bp := modkit.PortsAs[bmod.Ports](b)
	if bp.Stripe != nil {
		o.Stripe = bp.Stripe
	}
	if bp.Billing != nil {
		o.Billing = bp.Billing
	}
	mgr := adsvc.New(o)

	m := &Module{
		name:       b.Name,
		prefix:     b.Prefix,
		apiVersion: mgr.APIVersion(),
		mws:        b.Mw,
		ports:      Ports{Manager: mgr},
	}
	if cfg.OIDC.Enabled() {
		m.verifier = oidc.New(cfg.OIDC)
	}
	external := b.Register
	m.register = func(r phttp.Router) {
		adhttp.Register(r, mgr)
		external(r)
	}
	deps.Log.Info().
		Str("task_url", mgr.TaskURL()).
		Str("queue", cfg.QueueName).
		Bool("oidc", m.verifier != nil).
		Bool("stripe", o.Stripe != nil).
		Bool("paypal", o.Billing != nil).
		Msg("accountdelete module configured")
	return m
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r phttp.Router) {
	modkit.Mount(r, str.MustPrefix(m.prefix), m.mws, m.register)
}

// MountCallback mounts the queue callback under /v{apiVersion}, behind oidc when configured
func (m *Module) MountCallback(r phttp.Router, mw ...func(http.Handler) http.Handler) {
	httpkit.MountVersioned(r, strconv.Itoa(m.apiVersion), mw, func(v httpkit.Router) {
		httpkit.Protected(v, m.verifier, func(p httpkit.Router) {
			adhttp.RegisterCallback(p, m.ports.Manager)
		})
	})
}

// Name implements the modkit.Module interface
func (m *Module) Name() string { return m.name }

// Ports returns the Ports value
func (m *Module) Ports() any { return m.ports }
