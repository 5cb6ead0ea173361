package service

import (
	"context"

	"reaper/internal/modkit/repokit"
	"reaper/internal/services/billing/repo"
)

// StripeCustomers serves the account_customers mapping to the stripe adapter
type StripeCustomers struct{ r repo.Repo }

// NewStripeCustomers binds the mapping store to db
func NewStripeCustomers(db repokit.TxRunner, binder repokit.Binder[repo.Repo]) *StripeCustomers {
	return &StripeCustomers{r: repokit.MustBind(binder, repokit.Queryer(db))}
}

// StripeCustomerID returns the customer id mapped to uid
func (s *StripeCustomers) StripeCustomerID(ctx context.Context, uid string) (string, bool, error) {
	ac, ok, err := s.r.AccountCustomerByUID(ctx, uid)
	if err != nil || !ok {
		return "", false, err
	}
	return ac.StripeCustomerID, true, nil
}

// DeleteCustomer drops the mapping for uid
func (s *StripeCustomers) DeleteCustomer(ctx context.Context, uid string) error {
	_, err := s.r.DeleteAccountCustomerByUID(ctx, uid)
	return err
}
