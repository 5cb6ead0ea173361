// Package service exposes account lookups and the account delete transaction
package service

import (
	"context"

	"reaper/internal/modkit/repokit"
	"reaper/internal/platform/logger"
	"reaper/internal/services/accounts/domain"
	"reaper/internal/services/accounts/repo"
)

// Service is the public service port
type Service interface{ domain.ServicePort }

// Svc implements the service port over a Postgres repo
type Svc struct {
	Repo   repo.Repo
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner
}

// New constructs the service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo]) *Svc {
	if db == nil {
		panic("accounts.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("accounts.Service requires a non nil Repo binder")
	}
	return &Svc{Repo: binder.Bind(db), binder: binder, db: db}
}

// Account returns the account or domain.ErrUnknownAccount
func (s *Svc) Account(ctx context.Context, uid string) (domain.Account, error) {
	return s.Repo.Account(ctx, uid)
}

// AccountByEmail resolves an email to its account, case insensitively
func (s *Svc) AccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	return s.Repo.AccountByEmail(ctx, email)
}

// Devices lists the account's devices
func (s *Svc) Devices(ctx context.Context, uid string) ([]domain.Device, error) {
	return s.Repo.Devices(ctx, uid)
}

// DeviceIDs is Devices reduced to ids, the shape push notifications need
func (s *Svc) DeviceIDs(ctx context.Context, uid string) ([]string, error) {
	ds, err := s.Repo.Devices(ctx, uid)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(ds))
	for _, d := range ds {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// DeleteAccount drops devices then the account row in one transaction
func (s *Svc) DeleteAccount(ctx context.Context, uid string) error {
	var devices, accounts int64
	err := repokit.WithTx(ctx, s.db, func(ctx context.Context, q repokit.Queryer) error {
		r := s.binder.Bind(q)
		n, err := r.DeleteDevices(ctx, uid)
		if err != nil {
			return err
		}
		devices = n
		accounts, err = r.DeleteAccount(ctx, uid)
		return err
	})
	if err != nil {
		return err
	}
	logger.C(ctx).Debug().
		Str("uid", uid).
		Int64("devices", devices).
		Int64("accounts", accounts).
		Msg("account rows deleted")
	return nil
}
