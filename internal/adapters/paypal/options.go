package paypal

import (
	"time"

	"reaper/internal/platform/config"
)

const (
	sandboxURL        = "https://api-3t.sandbox.paypal.com/nvp"
	liveURL           = "https://api-3t.paypal.com/nvp"
	defaultVersion    = "204"
	defaultTimeout    = 15 * time.Second
	defaultMaxRetries = 3
	defaultRetryBase  = 500 * time.Millisecond
)

// Options configure the NVP client
type Options struct {
	Enabled   bool
	URL       string
	User      string
	Password  string
	Signature string
	Version   string

	// ReturnURL and CancelURL are where express checkout sends the buyer back
	ReturnURL string
	CancelURL string

	Timeout    time.Duration
	MaxRetries int
	RetryBase  time.Duration
}

// FromConfig reads PAYPAL_* keys from cfg, which should already carry the prefix
// ENV picks the default NVP endpoint; NVP_URL overrides it
func FromConfig(cfg config.Conf) Options {
	endpoint := sandboxURL
	if cfg.MayEnum("ENV", "sandbox", "sandbox", "live") == "live" {
		endpoint = liveURL
	}
	return Options{
		Enabled:    cfg.MayBool("ENABLED", false),
		URL:        cfg.MayString("NVP_URL", endpoint),
		User:       cfg.MayString("USER", ""),
		Password:   cfg.MayString("PWD", ""),
		Signature:  cfg.MayString("SIGNATURE", ""),
		Version:    cfg.MayString("VERSION", defaultVersion),
		ReturnURL:  cfg.MayString("RETURN_URL", "https://accounts.example.com/subscriptions/paypal/success"),
		CancelURL:  cfg.MayString("CANCEL_URL", "https://accounts.example.com/subscriptions/paypal/cancel"),
		Timeout:    cfg.MayDuration("TIMEOUT", defaultTimeout),
		MaxRetries: cfg.MayInt("MAX_RETRIES", defaultMaxRetries),
		RetryBase:  cfg.MayDuration("RETRY_BASE", defaultRetryBase),
	}
}
