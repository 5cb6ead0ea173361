// Package modkit provides module wiring and core deps
package modkit

import (
	"reaper/internal/modkit/repokit"
	"reaper/internal/platform/config"
	"reaper/internal/platform/logger"
	"reaper/internal/platform/store"

	"github.com/redis/go-redis/v9"
)

// Deps holds core dependencies passed to modules
// any store may be nil; modules decide what they can run without
type Deps struct {
	Log   logger.Logger
	Cfg   config.Conf
	PG    repokit.TxRunner
	Redis *redis.Client
	CH    store.Clickhouse
}

// FromStore copies the opened backends of st into Deps
func FromStore(log logger.Logger, cfg config.Conf, st *store.Store) Deps {
	d := Deps{Log: log, Cfg: cfg}
	if st != nil {
		d.PG, d.Redis, d.CH = st.PG, st.Redis, st.CH
	}
	return d
}
