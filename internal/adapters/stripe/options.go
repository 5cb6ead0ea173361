package stripe

import (
	"time"

	"reaper/internal/platform/config"
)

// Options configure the stripe adapter
type Options struct {
	Enabled   bool
	SecretKey string
	// CacheTTL bounds how long a fetched customer stays in redis
	CacheTTL time.Duration
}

// FromConfig reads STRIPE_* keys from cfg, which should already carry the prefix
func FromConfig(cfg config.Conf) Options {
	return Options{
		Enabled:   cfg.MayBool("ENABLED", false),
		SecretKey: cfg.MayString("SECRET_KEY", ""),
		CacheTTL:  cfg.MayDuration("CACHE_TTL", 30*time.Minute),
	}
}
