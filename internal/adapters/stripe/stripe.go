// Package stripe adapts the stripe SDK to the operations account deletion
// and the paypal invoice processor need
package stripe

import (
	"context"
	"encoding/json"
	stderrs "errors"
	"strings"
	"time"

	"reaper/internal/core/payments"
	perr "reaper/internal/platform/errors"
	"reaper/internal/platform/logger"

	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v76"
)

// CustomerStore maps account uids to stripe customer ids
type CustomerStore interface {
	StripeCustomerID(ctx context.Context, uid string) (string, bool, error)
	DeleteCustomer(ctx context.Context, uid string) error
}

// Adapter is the stripe payment adapter
type Adapter struct {
	api   API
	store CustomerStore
	cache *redis.Client
	ttl   time.Duration
	log   *logger.Logger
}

// New constructs an Adapter; cache may be nil
func New(api API, store CustomerStore, cache *redis.Client, opts Options) *Adapter {
	if api == nil || store == nil {
		panic("stripe.New requires an API and a CustomerStore")
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Adapter{api: api, store: store, cache: cache, ttl: ttl, log: logger.Named("stripe")}
}

func customerKey(uid string) string      { return "stripe:customer:" + uid }
func subscriptionsKey(uid string) string { return "stripe:subscriptions:" + uid }

// FetchCustomer returns the live customer for uid with subscriptions expanded
// a missing mapping or a deleted customer yields nil, nil
func (a *Adapter) FetchCustomer(ctx context.Context, uid string) (*stripe.Customer, error) {
	if c := a.cached(ctx, uid); c != nil {
		return c, nil
	}
	id, ok, err := a.store.StripeCustomerID(ctx, uid)
	if err != nil || !ok {
		return nil, err
	}
	c, err := a.api.GetCustomer(id, "subscriptions")
	if err != nil {
		if isMissing(err) {
			return nil, nil
		}
		return nil, fromStripe(err, "stripe: get customer")
	}
	if c.Deleted {
		return nil, nil
	}
	a.cacheCustomer(ctx, uid, c)
	return c, nil
}

func (a *Adapter) cached(ctx context.Context, uid string) *stripe.Customer {
	if a.cache == nil {
		return nil
	}
	raw, err := a.cache.Get(ctx, customerKey(uid)).Bytes()
	if err != nil {
		return nil
	}
	var c stripe.Customer
	if json.Unmarshal(raw, &c) != nil || c.ID == "" {
		return nil
	}
	return &c
}

func (a *Adapter) cacheCustomer(ctx context.Context, uid string, c *stripe.Customer) {
	if a.cache == nil {
		return
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return
	}
	if err := a.cache.Set(ctx, customerKey(uid), raw, a.ttl).Err(); err != nil {
		a.log.Warn().Err(err).Str("uid", uid).Msg("stripe customer cache write failed")
	}
}

// RemoveCustomer deletes the stripe customer and the local mapping
// missing on either side counts as already removed
func (a *Adapter) RemoveCustomer(ctx context.Context, uid string) error {
	id, ok, err := a.store.StripeCustomerID(ctx, uid)
	if err != nil {
		return perr.WithOp(err, "stripe.RemoveCustomer")
	}
	if !ok {
		return nil
	}
	if err := a.api.DeleteCustomer(id); err != nil && !isMissing(err) {
		return perr.WithOp(fromStripe(err, "stripe: delete customer"), "stripe.RemoveCustomer")
	}
	if err := a.store.DeleteCustomer(ctx, uid); err != nil && !perr.IsCode(err, perr.ErrorCodeNotFound) {
		return perr.WithOp(err, "stripe.RemoveCustomer")
	}
	return nil
}

// RemoveCachedCustomer drops every cached view of uid's customer
func (a *Adapter) RemoveCachedCustomer(ctx context.Context, uid string) error {
	if a.cache == nil {
		return nil
	}
	if err := a.cache.Del(ctx, customerKey(uid), subscriptionsKey(uid)).Err(); err != nil {
		return perr.FromRedis(err, "stripe: drop cached customer")
	}
	return nil
}

// FetchInvoicesForActiveSubscriptions lists invoices in status for the
// customer's active subscriptions; since limits by creation time when set
func (a *Adapter) FetchInvoicesForActiveSubscriptions(ctx context.Context, customerID string, status stripe.InvoiceStatus, since *time.Time) ([]*stripe.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	subs, err := a.api.ListSubscriptions(customerID, stripe.SubscriptionStatusActive)
	if err != nil {
		return nil, fromStripe(err, "stripe: list subscriptions")
	}
	if len(subs) == 0 {
		return nil, nil
	}
	active := make(map[string]struct{}, len(subs))
	for _, s := range subs {
		active[s.ID] = struct{}{}
	}
	invs, err := a.api.ListInvoices(InvoiceQuery{CustomerID: customerID, Status: status, Since: since})
	if err != nil {
		return nil, fromStripe(err, "stripe: list invoices")
	}
	out := make([]*stripe.Invoice, 0, len(invs))
	for _, inv := range invs {
		if inv.Subscription == nil {
			continue
		}
		if _, ok := active[inv.Subscription.ID]; ok {
			out = append(out, inv)
		}
	}
	return out, nil
}

// RefundInvoices refunds the charge behind each charge_automatically invoice
// send_invoice invoices belong to paypal and are skipped here
func (a *Adapter) RefundInvoices(ctx context.Context, invoices []*stripe.Invoice) ([]payments.RefundResult, error) {
	var out []payments.RefundResult
	for _, inv := range invoices {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if inv.CollectionMethod != stripe.InvoiceCollectionMethodChargeAutomatically || inv.Charge == nil || inv.Charge.ID == "" {
			continue
		}
		if _, err := a.api.RefundCharge(inv.Charge.ID); err != nil {
			if isCode(err, stripe.ErrorCodeChargeAlreadyRefunded) {
				continue
			}
			werr := fromStripe(err, "stripe: refund charge")
			if perr.IsCode(werr, perr.ErrorCodeUnavailable) || perr.IsCode(werr, perr.ErrorCodeUnauthorized) {
				return out, werr
			}
			a.log.Error().Err(err).Str("invoice", inv.ID).Msg("stripe refund failed; skipping invoice")
			continue
		}
		out = append(out, payments.ResultFor(inv))
	}
	return out, nil
}

// FinalizeInvoiceWithoutAutoAdvance finalizes id and leaves collection to the caller
func (a *Adapter) FinalizeInvoiceWithoutAutoAdvance(_ context.Context, id string) (*stripe.Invoice, error) {
	inv, err := a.api.FinalizeInvoice(id, false)
	return inv, fromStripe(err, "stripe: finalize invoice")
}

// MinimumAmount reports stripe's minimum charge for currency
func (a *Adapter) MinimumAmount(currency string) (int64, error) {
	v, ok := payments.MinimumCharge(strings.ToLower(currency))
	if !ok {
		return 0, ErrNoMinimumChargeAmount
	}
	return v, nil
}

// FetchActiveCustomer returns a live customer or ErrCustomerNotFound / ErrCustomerDeleted
func (a *Adapter) FetchActiveCustomer(_ context.Context, customerID string) (*stripe.Customer, error) {
	c, err := a.api.GetCustomer(customerID, "subscriptions")
	if err != nil {
		if isMissing(err) {
			return nil, ErrCustomerNotFound
		}
		return nil, fromStripe(err, "stripe: get customer")
	}
	if c.Deleted {
		return nil, ErrCustomerDeleted
	}
	return c, nil
}

// UpdateInvoiceMetadata merges meta into the invoice metadata
func (a *Adapter) UpdateInvoiceMetadata(_ context.Context, id string, meta map[string]string) error {
	_, err := a.api.UpdateInvoiceMetadata(id, meta)
	return fromStripe(err, "stripe: update invoice metadata")
}

// PayInvoiceOutOfBand marks id paid without collecting through stripe
func (a *Adapter) PayInvoiceOutOfBand(_ context.Context, id string) error {
	_, err := a.api.PayInvoiceOutOfBand(id)
	return fromStripe(err, "stripe: pay invoice out of band")
}

// ListOpenSendInvoices lists open invoices collected by sending, which paypal customers use
func (a *Adapter) ListOpenSendInvoices(ctx context.Context) ([]*stripe.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	invs, err := a.api.ListInvoices(InvoiceQuery{
		Status:           stripe.InvoiceStatusOpen,
		CollectionMethod: stripe.InvoiceCollectionMethodSendInvoice,
	})
	return invs, fromStripe(err, "stripe: list open invoices")
}

// IsCustomerGone reports the sentinels FetchActiveCustomer returns for absent customers
func IsCustomerGone(err error) bool {
	return stderrs.Is(err, ErrCustomerNotFound) || stderrs.Is(err, ErrCustomerDeleted)
}
