package module

import (
	"reaper/internal/adapters/paypal"
	"reaper/internal/adapters/stripe"
	"reaper/internal/platform/config"
)

// Options selects which payment providers the billing module builds
type Options struct {
	PayPal paypal.Options
	Stripe stripe.Options
}

// FromConfig reads PAYPAL_* and STRIPE_* values from process config/env
func FromConfig(cfg config.Conf) Options {
	return Options{
		PayPal: paypal.FromConfig(cfg.Prefix("PAYPAL_")),
		Stripe: stripe.FromConfig(cfg.Prefix("STRIPE_")),
	}
}
