// Package repo provides oauth persistence: grants in Postgres, access tokens in Redis
package repo

import (
	"context"

	"reaper/internal/modkit/repokit"
	perr "reaper/internal/platform/errors"
	"reaper/internal/platform/store"
)

// Repo is the Postgres side of oauth state
type Repo interface {
	DeleteCodes(ctx context.Context, uid string) (int64, error)
	DeleteRefreshTokens(ctx context.Context, uid string) (int64, error)
	DeletePublicAndCanGrantRefreshTokens(ctx context.Context, uid string) (int64, error)
}

type (
	// PG is a Postgres implementation of the oauth repo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder for the Postgres implementation
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind attaches a Queryer to the Postgres implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

// DeleteCodes removes pending authorization codes for uid
func (r *queries) DeleteCodes(ctx context.Context, uid string) (int64, error) {
	n, err := store.Exec(ctx, r.q, `DELETE FROM oauth_codes WHERE uid = $1`, uid)
	return n, perr.FromPostgres(err, "delete oauth codes")
}

// DeleteRefreshTokens removes every refresh token for uid
func (r *queries) DeleteRefreshTokens(ctx context.Context, uid string) (int64, error) {
	n, err := store.Exec(ctx, r.q, `DELETE FROM oauth_refresh_tokens WHERE uid = $1`, uid)
	return n, perr.FromPostgres(err, "delete oauth refresh tokens")
}

// DeletePublicAndCanGrantRefreshTokens removes refresh tokens issued to public or can_grant clients
func (r *queries) DeletePublicAndCanGrantRefreshTokens(ctx context.Context, uid string) (int64, error) {
	const sql = `
		DELETE FROM oauth_refresh_tokens t
		 USING oauth_clients c
		 WHERE t.client_id = c.id
		   AND t.uid = $1
		   AND (c.public OR c.can_grant)`
	n, err := store.Exec(ctx, r.q, sql, uid)
	return n, perr.FromPostgres(err, "delete public oauth refresh tokens")
}
