// Package service removes oauth grants for an account
package service

import (
	"context"

	"reaper/internal/modkit/repokit"
	"reaper/internal/platform/logger"
	"reaper/internal/services/oauth/domain"
	"reaper/internal/services/oauth/repo"
)

// Service is the public service port
type Service interface{ domain.ServicePort }

// Svc implements the service port
type Svc struct {
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner
	tokens repo.Tokens
}

// New constructs the service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], tokens repo.Tokens) *Svc {
	if db == nil {
		panic("oauth.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("oauth.Service requires a non nil Repo binder")
	}
	if tokens == nil {
		panic("oauth.Service requires a non nil token store")
	}
	return &Svc{binder: binder, db: db, tokens: tokens}
}

// RemoveTokensAndCodes deletes codes and refresh tokens in one transaction, then every access token
func (s *Svc) RemoveTokensAndCodes(ctx context.Context, uid string) error {
	var codes, refresh int64
	err := repokit.WithTx(ctx, s.db, func(ctx context.Context, q repokit.Queryer) error {
		r := s.binder.Bind(q)
		var err error
		if codes, err = r.DeleteCodes(ctx, uid); err != nil {
			return err
		}
		refresh, err = r.DeleteRefreshTokens(ctx, uid)
		return err
	})
	if err != nil {
		return err
	}

	access, err := s.tokens.DeleteForUser(ctx, uid)
	if err != nil {
		return err
	}
	logger.C(ctx).Debug().
		Int64("codes", codes).
		Int64("refresh_tokens", refresh).
		Int("access_tokens", access).
		Msg("oauth grants removed")
	return nil
}

// RemovePublicAndCanGrantTokens revokes only tokens of public or can_grant clients
func (s *Svc) RemovePublicAndCanGrantTokens(ctx context.Context, uid string) error {
	if _, err := s.binder.Bind(s.db).DeletePublicAndCanGrantRefreshTokens(ctx, uid); err != nil {
		return err
	}

	toks, err := s.tokens.ListForUser(ctx, uid)
	if err != nil {
		return err
	}
	var ids []string
	for _, t := range toks {
		if t.Revocable() {
			ids = append(ids, t.ID)
		}
	}
	return s.tokens.Delete(ctx, uid, ids...)
}
