package store

import (
	"reaper/internal/platform/logger"
	"reaper/internal/platform/store/pg"

	"github.com/redis/go-redis/v9"
)

// Option mutates Store during Open
type Option func(*Store) error

// WithLogger sets the logger used by subclients
func WithLogger(log logger.Logger) Option {
	return func(s *Store) error {
		s.Log = log
		return nil
	}
}

// WithPG installs a ready TxRunner and skips opening postgres
func WithPG(tx TxRunner) Option {
	return func(s *Store) error {
		s.PG = tx
		return nil
	}
}

// WithPGPool wraps an existing pool (a pgxmock pool in tests)
func WithPGPool(pool pg.Pool) Option {
	return WithPG(NewPGAdapter(pg.Wrap(pool, nil, -1)))
}

// WithRedis installs an existing redis client and skips opening redis
func WithRedis(c *redis.Client) Option {
	return func(s *Store) error {
		s.Redis = c
		return nil
	}
}

// WithClickhouse installs an existing clickhouse seam and skips opening clickhouse
func WithClickhouse(c Clickhouse) Option {
	return func(s *Store) error {
		s.CH = c
		return nil
	}
}
