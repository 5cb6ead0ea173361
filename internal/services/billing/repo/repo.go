// Package repo persists paypal customers and stripe account customers
package repo

import (
	"context"
	"errors"

	"reaper/internal/modkit/repokit"
	perr "reaper/internal/platform/errors"
	"reaper/internal/platform/store"
	"reaper/internal/services/billing/domain"
)

// Repo is the billing persistence surface used by the service layer
type Repo interface {
	CreatePaypalCustomer(ctx context.Context, rec domain.PaypalCustomerRecord) error
	PaypalCustomersByUID(ctx context.Context, uid string) ([]domain.PaypalCustomerRecord, error)
	ActivePaypalCustomersByUID(ctx context.Context, uid string) ([]domain.PaypalCustomerRecord, error)
	DeletePaypalCustomersByUID(ctx context.Context, uid string) (int64, error)

	AccountCustomerByUID(ctx context.Context, uid string) (domain.AccountCustomer, bool, error)
	DeleteAccountCustomerByUID(ctx context.Context, uid string) (int64, error)
}

type (
	// PG is a Postgres implementation of the billing repo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder for the Postgres implementation
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind attaches a Queryer to the Postgres implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

const paypalCols = `uid, billing_agreement_id, status, created_at, ended_at`

func scanPaypalCustomer(row repokit.Row) (domain.PaypalCustomerRecord, error) {
	var (
		rec    domain.PaypalCustomerRecord
		status string
	)
	if err := row.Scan(&rec.UID, &rec.BillingAgreementID, &status, &rec.CreatedAt, &rec.EndedAt); err != nil {
		return rec, err
	}
	rec.Status = domain.CustomerStatus(status)
	return rec, nil
}

// CreatePaypalCustomer inserts a record; a second active row for the uid
// violates paypal_customers_one_active and surfaces as DuplicateKey
func (r *queries) CreatePaypalCustomer(ctx context.Context, rec domain.PaypalCustomerRecord) error {
	const sql = `
		INSERT INTO paypal_customers (` + paypalCols + `)
		VALUES ($1, $2, $3, COALESCE($4, now()), $5)`
	var created any
	if !rec.CreatedAt.IsZero() {
		created = rec.CreatedAt
	}
	_, err := r.q.Exec(ctx, sql, rec.UID, rec.BillingAgreementID, string(rec.Status), created, rec.EndedAt)
	return perr.FromPostgres(err, "create paypal customer")
}

// PaypalCustomersByUID lists every record for uid, newest first
func (r *queries) PaypalCustomersByUID(ctx context.Context, uid string) ([]domain.PaypalCustomerRecord, error) {
	const sql = `SELECT ` + paypalCols + ` FROM paypal_customers WHERE uid = $1 ORDER BY created_at DESC`
	out, err := store.Many(ctx, r.q, scanPaypalCustomer, sql, uid)
	if err != nil {
		return nil, perr.FromPostgres(err, "list paypal customers")
	}
	return out, nil
}

// ActivePaypalCustomersByUID lists non terminal active records for uid
func (r *queries) ActivePaypalCustomersByUID(ctx context.Context, uid string) ([]domain.PaypalCustomerRecord, error) {
	const sql = `
		SELECT ` + paypalCols + `
		  FROM paypal_customers
		 WHERE uid = $1 AND status = 'active' AND ended_at IS NULL
		 ORDER BY created_at DESC`
	out, err := store.Many(ctx, r.q, scanPaypalCustomer, sql, uid)
	if err != nil {
		return nil, perr.FromPostgres(err, "list active paypal customers")
	}
	return out, nil
}

// DeletePaypalCustomersByUID removes every record for uid
func (r *queries) DeletePaypalCustomersByUID(ctx context.Context, uid string) (int64, error) {
	n, err := store.Exec(ctx, r.q, `DELETE FROM paypal_customers WHERE uid = $1`, uid)
	return n, perr.FromPostgres(err, "delete paypal customers")
}

// AccountCustomerByUID returns the stripe mapping for uid; ok is false when there is none
func (r *queries) AccountCustomerByUID(ctx context.Context, uid string) (domain.AccountCustomer, bool, error) {
	const sql = `
		SELECT uid, stripe_customer_id, created_at, updated_at
		  FROM account_customers
		 WHERE uid = $1`
	ac, err := store.One(ctx, r.q, func(row repokit.Row) (domain.AccountCustomer, error) {
		var ac domain.AccountCustomer
		err := row.Scan(&ac.UID, &ac.StripeCustomerID, &ac.CreatedAt, &ac.UpdatedAt)
		return ac, err
	}, sql, uid)
	switch {
	case err == nil:
		return ac, true, nil
	case errors.Is(err, perr.ErrNotFound):
		return domain.AccountCustomer{}, false, nil
	case errors.Is(err, store.ErrMultipleRows):
		return domain.AccountCustomer{}, false, perr.WithOp(err, "account customer by uid")
	}
	return domain.AccountCustomer{}, false, perr.FromPostgres(err, "account customer by uid")
}

// DeleteAccountCustomerByUID removes the stripe mapping; a missing row is not an error
func (r *queries) DeleteAccountCustomerByUID(ctx context.Context, uid string) (int64, error) {
	n, err := store.Exec(ctx, r.q, `DELETE FROM account_customers WHERE uid = $1`, uid)
	return n, perr.FromPostgres(err, "delete account customer")
}
