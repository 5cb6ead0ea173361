// Package module wires the billing manager and payment adapters using modkit
package module

import (
	"net/http"

	"reaper/internal/adapters/paypal"
	"reaper/internal/adapters/stripe"
	modkit "reaper/internal/modkit"
	phttp "reaper/internal/platform/net/http"
	str "reaper/internal/platform/strings"

	bhttp "reaper/internal/services/billing/http"
	brepo "reaper/internal/services/billing/repo"
	bsvc "reaper/internal/services/billing/service"
)

// Module implements the billing API module
type Module struct {
	name     string
	prefix   string
	mws      []func(http.Handler) http.Handler
	register func(phttp.Router)
	ports    Ports
}

// Ports are the payment seams other modules consume; a disabled provider is nil
type Ports struct {
	Billing *bsvc.Manager
	Stripe  *stripe.Adapter
}

// stripeAPI is swapped in tests to keep the SDK off the network
var stripeAPI = func(key string) stripe.API { return stripe.NewSDK(key) }

// New constructs the billing module from PAYPAL_* and STRIPE_* config
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("billing"),
		modkit.WithPrefix("/paypal"),
	}, opts...)...)

	cfg := FromConfig(deps.Cfg)
	binder := brepo.NewPG()

	var ports Ports
	if cfg.Stripe.Enabled {
		if deps.PG == nil {
			panic("billing module: stripe requires postgres for account_customers")
		}
		customers := bsvc.NewStripeCustomers(deps.PG, binder)
		ports.Stripe = stripe.New(stripeAPI(cfg.Stripe.SecretKey), customers, deps.Redis, cfg.Stripe)
	}
	if cfg.PayPal.Enabled {
		if deps.PG == nil {
			panic("billing module: paypal requires postgres for paypal_customers")
		}
		o := bsvc.Options{PayPal: paypal.NewClient(cfg.PayPal)}
		if ports.Stripe != nil {
			o.Stripe = ports.Stripe
		}
		ports.Billing = bsvc.New(deps.PG, binder, o)
	}

	m := &Module{name: b.Name, prefix: b.Prefix, mws: b.Mw, ports: ports}
	external := b.Register
	m.register = func(r phttp.Router) {
		if ports.Billing != nil {
			bhttp.Register(r, ports.Billing)
		}
		external(r)
	}
	deps.Log.Info().
		Bool("paypal", ports.Billing != nil).
		Bool("stripe", ports.Stripe != nil).
		Msg("billing module configured")
	return m
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r phttp.Router) {
	modkit.Mount(r, str.MustPrefix(m.prefix), m.mws, m.register)
}

// Name implements the modkit.Module interface
func (m *Module) Name() string { return m.name }

// Ports returns the Ports value
func (m *Module) Ports() any { return m.ports }
