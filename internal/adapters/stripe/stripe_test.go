package stripe

import (
	"context"
	stderrs "errors"
	"testing"
	"time"

	perr "reaper/internal/platform/errors"
	kit "reaper/internal/platform/testkit"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v76"
)

type fakeAPI struct {
	customers  map[string]*stripe.Customer
	getCalls   int
	deleted    []string
	deleteErr  error
	subs       []*stripe.Subscription
	invoices   []*stripe.Invoice
	lastQuery  InvoiceQuery
	refunded   []string
	refundErr  map[string]error
	finalized  map[string]bool
	paid       []string
	meta       map[string]map[string]string
	listInvErr error
}

func (f *fakeAPI) GetCustomer(id string, _ ...string) (*stripe.Customer, error) {
	f.getCalls++
	c, ok := f.customers[id]
	if !ok {
		return nil, &stripe.Error{Code: stripe.ErrorCodeResourceMissing, HTTPStatusCode: 404}
	}
	return c, nil
}

func (f *fakeAPI) DeleteCustomer(id string) error {
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

func (f *fakeAPI) ListSubscriptions(string, stripe.SubscriptionStatus) ([]*stripe.Subscription, error) {
	return f.subs, nil
}

func (f *fakeAPI) ListInvoices(q InvoiceQuery) ([]*stripe.Invoice, error) {
	f.lastQuery = q
	return f.invoices, f.listInvErr
}

func (f *fakeAPI) FinalizeInvoice(id string, autoAdvance bool) (*stripe.Invoice, error) {
	if f.finalized == nil {
		f.finalized = map[string]bool{}
	}
	f.finalized[id] = autoAdvance
	return &stripe.Invoice{ID: id, Status: stripe.InvoiceStatusOpen}, nil
}

func (f *fakeAPI) PayInvoiceOutOfBand(id string) (*stripe.Invoice, error) {
	f.paid = append(f.paid, id)
	return &stripe.Invoice{ID: id, Status: stripe.InvoiceStatusPaid}, nil
}

func (f *fakeAPI) UpdateInvoiceMetadata(id string, meta map[string]string) (*stripe.Invoice, error) {
	if f.meta == nil {
		f.meta = map[string]map[string]string{}
	}
	f.meta[id] = meta
	return &stripe.Invoice{ID: id, Metadata: meta}, nil
}

func (f *fakeAPI) RefundCharge(chargeID string) (*stripe.Refund, error) {
	if err := f.refundErr[chargeID]; err != nil {
		return nil, err
	}
	f.refunded = append(f.refunded, chargeID)
	return &stripe.Refund{ID: "re_" + chargeID}, nil
}

type memStore struct {
	ids     map[string]string
	deleted []string
}

func (m *memStore) StripeCustomerID(_ context.Context, uid string) (string, bool, error) {
	id, ok := m.ids[uid]
	return id, ok, nil
}

func (m *memStore) DeleteCustomer(_ context.Context, uid string) error {
	m.deleted = append(m.deleted, uid)
	delete(m.ids, uid)
	return nil
}

func newAdapter(t *testing.T, api *fakeAPI, st *memStore) (*Adapter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	return New(api, st, rc, Options{}), mr
}

func TestFetchCustomerCachesAndTolerates(t *testing.T) {
	api := &fakeAPI{customers: map[string]*stripe.Customer{"cus_997": {ID: "cus_997"}}}
	st := &memStore{ids: map[string]string{"u1": "cus_997", "u2": "cus_gone"}}
	a, mr := newAdapter(t, api, st)
	ctx := context.Background()

	c, err := a.FetchCustomer(ctx, "u1")
	kit.MustNoErr(t, err)
	if c == nil || c.ID != "cus_997" {
		t.Fatalf("customer = %+v", c)
	}
	if !mr.Exists("stripe:customer:u1") {
		t.Fatalf("customer not cached")
	}
	if _, err := a.FetchCustomer(ctx, "u1"); err != nil || api.getCalls != 1 {
		t.Fatalf("second fetch should hit cache, calls=%d err=%v", api.getCalls, err)
	}

	if c, err := a.FetchCustomer(ctx, "nobody"); c != nil || err != nil {
		t.Fatalf("no mapping = %+v %v", c, err)
	}
	if c, err := a.FetchCustomer(ctx, "u2"); c != nil || err != nil {
		t.Fatalf("missing at stripe = %+v %v", c, err)
	}

	kit.MustNoErr(t, a.RemoveCachedCustomer(ctx, "u1"))
	if mr.Exists("stripe:customer:u1") {
		t.Fatalf("cache not dropped")
	}
}

func TestRemoveCustomerIsIdempotent(t *testing.T) {
	api := &fakeAPI{deleteErr: &stripe.Error{Code: stripe.ErrorCodeResourceMissing, HTTPStatusCode: 404}}
	st := &memStore{ids: map[string]string{"u1": "cus_1"}}
	a, _ := newAdapter(t, api, st)

	kit.MustNoErr(t, a.RemoveCustomer(context.Background(), "u1"))
	if len(api.deleted) != 1 || len(st.deleted) != 1 {
		t.Fatalf("deleted stripe=%v local=%v", api.deleted, st.deleted)
	}
	// mapping gone now, so a redelivery calls nothing
	kit.MustNoErr(t, a.RemoveCustomer(context.Background(), "u1"))
	if len(api.deleted) != 1 {
		t.Fatalf("redelivery hit stripe again")
	}

	api.deleteErr = &stripe.Error{HTTPStatusCode: 500}
	st.ids["u2"] = "cus_2"
	err := a.RemoveCustomer(context.Background(), "u2")
	kit.MustCode(t, err, perr.ErrorCodeUnavailable)
	if len(st.deleted) != 1 {
		t.Fatalf("local mapping removed despite stripe failure")
	}
}

func TestFetchInvoicesForActiveSubscriptions(t *testing.T) {
	since := time.Now().Add(-48 * time.Hour)
	api := &fakeAPI{
		subs: []*stripe.Subscription{{ID: "sub_a"}},
		invoices: []*stripe.Invoice{
			{ID: "in_a", Subscription: &stripe.Subscription{ID: "sub_a"}},
			{ID: "in_b", Subscription: &stripe.Subscription{ID: "sub_other"}},
			{ID: "in_c"},
		},
	}
	a, _ := newAdapter(t, api, &memStore{})
	got, err := a.FetchInvoicesForActiveSubscriptions(context.Background(), "cus_1", stripe.InvoiceStatusPaid, &since)
	kit.MustNoErr(t, err)
	if len(got) != 1 || got[0].ID != "in_a" {
		t.Fatalf("invoices = %v", got)
	}
	if api.lastQuery.Status != stripe.InvoiceStatusPaid || api.lastQuery.Since != &since {
		t.Fatalf("query = %+v", api.lastQuery)
	}

	api.subs = nil
	api.lastQuery = InvoiceQuery{}
	got, err = a.FetchInvoicesForActiveSubscriptions(context.Background(), "cus_1", stripe.InvoiceStatusPaid, nil)
	if err != nil || len(got) != 0 || api.lastQuery.CustomerID != "" {
		t.Fatalf("no active subs should skip invoice listing: %v %v %+v", got, err, api.lastQuery)
	}
}

func TestRefundInvoices(t *testing.T) {
	auto := stripe.InvoiceCollectionMethodChargeAutomatically
	api := &fakeAPI{refundErr: map[string]error{
		"ch_done": &stripe.Error{Code: stripe.ErrorCodeChargeAlreadyRefunded, HTTPStatusCode: 400},
		"ch_bad":  &stripe.Error{HTTPStatusCode: 400, Msg: "nope"},
	}}
	a, _ := newAdapter(t, api, &memStore{})
	invs := []*stripe.Invoice{
		{ID: "in_1", CollectionMethod: auto, Charge: &stripe.Charge{ID: "ch_1"}, Total: 500, Currency: "usd"},
		{ID: "in_2", CollectionMethod: auto, Charge: &stripe.Charge{ID: "ch_done"}},
		{ID: "in_3", CollectionMethod: auto, Charge: &stripe.Charge{ID: "ch_bad"}},
		{ID: "in_4", CollectionMethod: stripe.InvoiceCollectionMethodSendInvoice},
	}
	got, err := a.RefundInvoices(context.Background(), invs)
	kit.MustNoErr(t, err)
	if len(got) != 1 || got[0].InvoiceID != "in_1" || got[0].Total != 500 {
		t.Fatalf("results = %+v", got)
	}

	api.refundErr["ch_1"] = &stripe.Error{HTTPStatusCode: 503}
	_, err = a.RefundInvoices(context.Background(), invs[:1])
	kit.MustCode(t, err, perr.ErrorCodeUnavailable)
}

func TestInvoiceHelpers(t *testing.T) {
	api := &fakeAPI{customers: map[string]*stripe.Customer{
		"cus_live": {ID: "cus_live"},
		"cus_del":  {ID: "cus_del", Deleted: true},
	}}
	a, _ := newAdapter(t, api, &memStore{})
	ctx := context.Background()

	_, err := a.FinalizeInvoiceWithoutAutoAdvance(ctx, "in_1")
	kit.MustNoErr(t, err)
	if adv, ok := api.finalized["in_1"]; !ok || adv {
		t.Fatalf("finalize auto advance = %v %v", adv, ok)
	}
	kit.MustNoErr(t, a.PayInvoiceOutOfBand(ctx, "in_1"))
	kit.MustNoErr(t, a.UpdateInvoiceMetadata(ctx, "in_1", map[string]string{"paypalTransactionId": "tx"}))
	if api.meta["in_1"]["paypalTransactionId"] != "tx" || len(api.paid) != 1 {
		t.Fatalf("metadata/pay not forwarded")
	}

	if v, err := a.MinimumAmount("USD"); err != nil || v != 50 {
		t.Fatalf("MinimumAmount = %d %v", v, err)
	}
	if _, err := a.MinimumAmount("zzz"); !stderrs.Is(err, ErrNoMinimumChargeAmount) {
		t.Fatalf("unknown currency err = %v", err)
	}

	if _, err := a.FetchActiveCustomer(ctx, "cus_del"); !stderrs.Is(err, ErrCustomerDeleted) || !IsCustomerGone(err) {
		t.Fatalf("deleted err = %v", err)
	}
	if _, err := a.FetchActiveCustomer(ctx, "cus_none"); !stderrs.Is(err, ErrCustomerNotFound) {
		t.Fatalf("missing err = %v", err)
	}

	if _, err := a.ListOpenSendInvoices(ctx); err != nil ||
		api.lastQuery.Status != stripe.InvoiceStatusOpen ||
		api.lastQuery.CollectionMethod != stripe.InvoiceCollectionMethodSendInvoice {
		t.Fatalf("open invoice query = %+v %v", api.lastQuery, err)
	}
}

func TestFromStripeClassification(t *testing.T) {
	cases := []struct {
		err  error
		want perr.ErrorCode
	}{
		{&stripe.Error{HTTPStatusCode: 429}, perr.ErrorCodeUnavailable},
		{&stripe.Error{HTTPStatusCode: 401}, perr.ErrorCodeUnauthorized},
		{&stripe.Error{HTTPStatusCode: 402, Code: stripe.ErrorCodeCardDeclined}, perr.ErrorCodeDependency},
		{stderrs.New("dial tcp"), perr.ErrorCodeUnavailable},
	}
	for _, tc := range cases {
		kit.MustCode(t, fromStripe(tc.err, "x"), tc.want)
	}
	if fromStripe(nil, "x") != nil {
		t.Fatalf("nil should stay nil")
	}
}
