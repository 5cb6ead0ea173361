package repo

import (
	"context"
	"strconv"

	perr "reaper/internal/platform/errors"
	"reaper/internal/services/oauth/domain"

	"github.com/redis/go-redis/v9"
)

// Tokens is the access token index kept in Redis
type Tokens interface {
	ListForUser(ctx context.Context, uid string) ([]domain.AccessToken, error)
	Delete(ctx context.Context, uid string, ids ...string) error
	DeleteForUser(ctx context.Context, uid string) (int, error)
}

// RedisTokens stores one hash per token plus a per user set of token ids
type RedisTokens struct{ rdb *redis.Client }

// NewRedisTokens builds the Redis token index
func NewRedisTokens(rdb *redis.Client) *RedisTokens {
	if rdb == nil {
		panic("oauth: RedisTokens requires a non nil redis client")
	}
	return &RedisTokens{rdb: rdb}
}

// UserKey is the set of token ids owned by uid
func UserKey(uid string) string { return "oauth:user:" + uid + ":tokens" }

// TokenKey is the hash holding one token's client flags
func TokenKey(id string) string { return "oauth:token:" + id }

// ListForUser loads every indexed token of uid; ids whose hash expired are returned with no flags
func (s *RedisTokens) ListForUser(ctx context.Context, uid string) ([]domain.AccessToken, error) {
	ids, err := s.rdb.SMembers(ctx, UserKey(uid)).Result()
	if err != nil {
		return nil, perr.FromRedis(err, "list oauth tokens")
	}
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := s.rdb.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, TokenKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, perr.FromRedis(err, "load oauth tokens")
	}

	out := make([]domain.AccessToken, 0, len(ids))
	for i, id := range ids {
		h := cmds[i].Val()
		out = append(out, domain.AccessToken{
			ID:       id,
			UID:      uid,
			ClientID: h["client_id"],
			Public:   flag(h["public"]),
			CanGrant: flag(h["can_grant"]),
		})
	}
	return out, nil
}

// Delete drops the given token hashes and removes them from uid's set
func (s *RedisTokens) Delete(ctx context.Context, uid string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	members := make([]any, len(ids))
	for i, id := range ids {
		keys[i] = TokenKey(id)
		members[i] = id
	}
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, keys...)
		p.SRem(ctx, UserKey(uid), members...)
		return nil
	})
	return perr.FromRedis(err, "delete oauth tokens")
}

// DeleteForUser drops all of uid's tokens and the index set, returning how many were indexed
func (s *RedisTokens) DeleteForUser(ctx context.Context, uid string) (int, error) {
	ids, err := s.rdb.SMembers(ctx, UserKey(uid)).Result()
	if err != nil {
		return 0, perr.FromRedis(err, "list oauth tokens")
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, TokenKey(id))
	}
	keys = append(keys, UserKey(uid))
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		return 0, perr.FromRedis(err, "delete oauth tokens")
	}
	return len(ids), nil
}

func flag(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}
