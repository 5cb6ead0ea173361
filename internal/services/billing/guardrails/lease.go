// Package guardrails keeps concurrent invoicer runs from charging an invoice twice
package guardrails

import (
	"context"
	"errors"
	"time"

	perr "reaper/internal/platform/errors"
	"reaper/internal/platform/store"
)

// ErrLeaseHeld signals another run already claimed the invoice
var ErrLeaseHeld = errors.New("billing: invoice lease already held")

// Lease runs do once per invoice id across every invoicer instance
type Lease func(ctx context.Context, invoiceID string, do func(context.Context) error) error

// MakeInvoiceLease claims invoiceID in invoice_leases before running do
// A claim older than ttl may be taken again, so an invoice left open (a pending
// paypal payment, a failed charge) is retried by a later run. ttl <= 0 never expires.
// The charge idempotency key keeps a retried pending payment from being taken twice
func MakeInvoiceLease(tx store.TxRunner, ttl time.Duration, now func() time.Time) Lease {
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context, invoiceID string, do func(context.Context) error) error {
		at := now().UTC()
		var expired time.Time
		if ttl > 0 {
			expired = at.Add(-ttl)
		}
		var claimed bool
		err := tx.Tx(ctx, func(q store.RowQuerier) error {
			rows, err := q.Query(ctx, `
				INSERT INTO invoice_leases (invoice_id, claimed_at)
				VALUES ($1, $2)
				ON CONFLICT (invoice_id) DO UPDATE SET claimed_at = EXCLUDED.claimed_at
				WHERE invoice_leases.claimed_at < $3
				RETURNING true
			`, invoiceID, at, expired)
			if err != nil {
				return err
			}
			defer rows.Close()
			claimed = rows.Next()
			return rows.Err()
		})
		if err != nil {
			return perr.WithOp(perr.FromPostgres(err, "claim invoice lease"), "lease")
		}
		if !claimed {
			return ErrLeaseHeld
		}
		return do(ctx)
	}
}
