package store

import (
	"time"

	"reaper/internal/platform/config"
)

// Config aggregates per backend configuration
type Config struct {
	AppName string

	PG  PGConfig
	CH  CHConfig
	RDS RedisConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	ConnectRetries int           // default 20
	PingTimeout    time.Duration // default 3s
}

// CHConfig configures clickhouse connectivity
// URL is a clickhouse:// DSN understood by clickhouse.ParseDSN
type CHConfig struct {
	Enabled bool
	URL     string
	Role    string
}

// RedisConfig configures redis connectivity
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// FromConfig reads SERVICE_PGSQL_*, SERVICE_REDIS_*, and SERVICE_CLICKHOUSE_* from root
// postgres and redis default on; clickhouse is on when a DSN is set
func FromConfig(root config.Conf, app string) Config {
	pg := root.Prefix("SERVICE_PGSQL_")
	rds := root.Prefix("SERVICE_REDIS_")
	ch := root.Prefix("SERVICE_CLICKHOUSE_")

	c := Config{
		AppName: app,
		PG: PGConfig{
			Enabled:     pg.MayBool("ENABLED", true),
			MaxConns:    int32(pg.MayInt("MAX_CONNS", 4)),
			LogSQL:      pg.MayBool("LOG_SQL", false),
			SlowQueryMs: pg.MayInt("SLOW_MS", 500),
		},
		RDS: RedisConfig{
			Enabled:  rds.MayBool("ENABLED", true),
			Addr:     rds.MayString("ADDR", "localhost:6379"),
			Password: rds.MayString("PASSWORD", ""),
			DB:       rds.MayInt("DB", 0),
		},
		CH: CHConfig{
			URL:  ch.MayString("DBURL", ""),
			Role: ch.MayString("ROLE", ""),
		},
	}
	if c.PG.Enabled {
		c.PG.URL = pg.MustString("DBURL")
	}
	c.CH.Enabled = c.CH.URL != ""
	return c
}
