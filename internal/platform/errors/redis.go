package errors

import (
	"context"
	stderrs "errors"
	"net"
	"strings"

	"github.com/redis/go-redis/v9"
)

// FromRedis wraps a go-redis error with a mapped ErrorCode
// redis.Nil (missing key) becomes NotFound, network failures become Unavailable
func FromRedis(err error, msg string) error {
	if err == nil {
		return nil
	}
	if stderrs.Is(err, redis.Nil) {
		return Wrap(err, ErrorCodeNotFound, msg)
	}
	if IsRedisRetryable(err) {
		return Wrap(err, ErrorCodeUnavailable, msg)
	}
	return Wrap(err, ErrorCodeDB, msg)
}

// IsRedisRetryable reports whether a redis error is transient
func IsRedisRetryable(err error) bool {
	if err == nil || stderrs.Is(err, redis.Nil) {
		return false
	}
	if stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}
	var ne net.Error
	if stderrs.As(err, &ne) {
		return true
	}
	s := Root(err).Error()
	for _, p := range []string{"LOADING", "READONLY", "CLUSTERDOWN", "TRYAGAIN", "MASTERDOWN"} {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
