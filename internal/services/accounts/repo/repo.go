// Package repo provides the accounts repository implementation
package repo

import (
	"context"
	"errors"

	"reaper/internal/modkit/repokit"
	perr "reaper/internal/platform/errors"
	"reaper/internal/platform/store"
	pstrings "reaper/internal/platform/strings"
	"reaper/internal/services/accounts/domain"
)

// Repo is the accounts persistence surface used by the service layer
type Repo interface {
	Account(ctx context.Context, uid string) (domain.Account, error)
	AccountByEmail(ctx context.Context, email string) (domain.Account, error)
	Devices(ctx context.Context, uid string) ([]domain.Device, error)
	DeleteDevices(ctx context.Context, uid string) (int64, error)
	DeleteAccount(ctx context.Context, uid string) (int64, error)
}

type (
	// PG is a Postgres implementation of the accounts repo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder for the Postgres implementation
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind attaches a Queryer to the Postgres implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

const accountCols = `uid, email, email_verified, created_at`

func scanAccount(row repokit.Row) (domain.Account, error) {
	var a domain.Account
	err := row.Scan(&a.UID, &a.Email, &a.EmailVerified, &a.CreatedAt)
	return a, err
}

// Account loads one account by uid
func (r *queries) Account(ctx context.Context, uid string) (domain.Account, error) {
	const sql = `SELECT ` + accountCols + ` FROM accounts WHERE uid = $1`
	a, err := store.One(ctx, r.q, scanAccount, sql, uid)
	return a, accountErr(err, "account by uid")
}

// AccountByEmail loads one account by its case folded email
func (r *queries) AccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	const sql = `SELECT ` + accountCols + ` FROM accounts WHERE normalized_email = $1`
	a, err := store.One(ctx, r.q, scanAccount, sql, pstrings.FoldEmail(email))
	return a, accountErr(err, "account by email")
}

// Devices lists the devices registered to uid, oldest first
func (r *queries) Devices(ctx context.Context, uid string) ([]domain.Device, error) {
	const sql = `
		SELECT id, uid, name, COALESCE(push_callback, '')
		  FROM devices
		 WHERE uid = $1
		 ORDER BY created_at`
	out, err := store.Many(ctx, r.q, func(row repokit.Row) (domain.Device, error) {
		var d domain.Device
		err := row.Scan(&d.ID, &d.UID, &d.Name, &d.PushCallback)
		return d, err
	}, sql, uid)
	if err != nil {
		return nil, perr.FromPostgres(err, "list devices")
	}
	return out, nil
}

// DeleteDevices removes every device of uid
func (r *queries) DeleteDevices(ctx context.Context, uid string) (int64, error) {
	n, err := store.Exec(ctx, r.q, `DELETE FROM devices WHERE uid = $1`, uid)
	return n, perr.FromPostgres(err, "delete devices")
}

// DeleteAccount removes the account row; a missing row affects 0 rows and is not an error
func (r *queries) DeleteAccount(ctx context.Context, uid string) (int64, error) {
	n, err := store.Exec(ctx, r.q, `DELETE FROM accounts WHERE uid = $1`, uid)
	return n, perr.FromPostgres(err, "delete account")
}

func accountErr(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, perr.ErrNotFound), perr.IsNoRows(err):
		return perr.WithOp(domain.ErrUnknownAccount, op)
	case errors.Is(err, store.ErrMultipleRows):
		return perr.WithOp(err, op)
	}
	return perr.FromPostgres(err, op)
}
