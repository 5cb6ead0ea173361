// Package push publishes device notifications onto a redis stream read by the push workers
package push

import (
	"context"
	"strings"

	"reaper/internal/platform/config"
	perr "reaper/internal/platform/errors"

	"github.com/redis/go-redis/v9"
)

// EventAccountDestroyed tells devices the account is gone
const EventAccountDestroyed = "accountDestroyed"

// Options configure the stream
type Options struct {
	Stream string
	MaxLen int64
}

// FromConfig reads PUSH_* keys from cfg, which should already carry the prefix
func FromConfig(cfg config.Conf) Options {
	return Options{
		Stream: cfg.MayString("STREAM", "push:events"),
		MaxLen: int64(cfg.MayInt("MAXLEN", 100000)),
	}
}

// Notifier writes push events
type Notifier struct {
	rdb  *redis.Client
	opts Options
}

// New returns a Notifier on rdb
func New(rdb *redis.Client, opts Options) *Notifier {
	if opts.Stream == "" {
		opts.Stream = "push:events"
	}
	return &Notifier{rdb: rdb, opts: opts}
}

// NotifyAccountDestroyed queues one accountDestroyed event for the devices of uid
func (n *Notifier) NotifyAccountDestroyed(ctx context.Context, uid string, deviceIDs []string) error {
	if len(deviceIDs) == 0 {
		return nil
	}
	args := &redis.XAddArgs{
		Stream: n.opts.Stream,
		Values: map[string]any{
			"uid":     uid,
			"event":   EventAccountDestroyed,
			"devices": strings.Join(deviceIDs, ","),
		},
	}
	if n.opts.MaxLen > 0 {
		args.MaxLen = n.opts.MaxLen
		args.Approx = true
	}
	if err := n.rdb.XAdd(ctx, args).Err(); err != nil {
		return perr.WithOp(perr.FromRedis(err, "push: publish accountDestroyed"), "push.NotifyAccountDestroyed")
	}
	return nil
}
