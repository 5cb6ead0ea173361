package store

import (
	"context"

	perr "reaper/internal/platform/errors"
)

// txAttempts bounds RunTx retries on serialization failures and deadlocks
const txAttempts = 3

// RunTx runs fn in a transaction, retrying the whole transaction while the
// failure is a transient postgres condition
func RunTx(ctx context.Context, tx TxRunner, fn func(ctx context.Context, q RowQuerier) error) error {
	var err error
	for i := 0; i < txAttempts; i++ {
		err = tx.Tx(ctx, func(q RowQuerier) error { return fn(ctx, q) })
		if err == nil || !perr.IsRetryable(err) || ctx.Err() != nil {
			return err
		}
	}
	return err
}
