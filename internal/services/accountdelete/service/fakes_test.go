package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"reaper/internal/adapters/activity"
	"reaper/internal/adapters/cloudtasks"
	"reaper/internal/core/payments"
	"reaper/internal/services/accountdelete/domain"
	adomain "reaper/internal/services/accounts/domain"
	bdomain "reaper/internal/services/billing/domain"

	"github.com/stripe/stripe-go/v76"
)

const uid = "0123456789abcdef0123456789abcdef"

// trail records calls across fakes; refunds write to it from two goroutines
type trail struct {
	mu    sync.Mutex
	calls []string
}

func (t *trail) add(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, s)
}

func (t *trail) list() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.calls...)
}

func (t *trail) has(s string) bool {
	for _, c := range t.list() {
		if c == s {
			return true
		}
	}
	return false
}

type fakeStripe struct {
	tr          *trail
	customer    *stripe.Customer
	fetchErr    error
	removeErr   error
	invoices    []*stripe.Invoice
	invoicesErr error
	refunds     []payments.RefundResult
	refundErr   error

	gotCustomer string
	gotStatus   stripe.InvoiceStatus
	gotSince    *time.Time
	refunded    []*stripe.Invoice
	removed     bool
	refundDone  chan struct{}
}

func (f *fakeStripe) FetchCustomer(context.Context, string) (*stripe.Customer, error) {
	f.tr.add("stripe.fetch")
	return f.customer, f.fetchErr
}

func (f *fakeStripe) RemoveCustomer(context.Context, string) error {
	f.tr.add("stripe.remove")
	if f.removeErr == nil {
		f.removed = true
	}
	return f.removeErr
}

func (f *fakeStripe) RemoveCachedCustomer(context.Context, string) error {
	f.tr.add("stripe.uncache")
	return nil
}

func (f *fakeStripe) FetchInvoicesForActiveSubscriptions(_ context.Context, customerID string, status stripe.InvoiceStatus, since *time.Time) ([]*stripe.Invoice, error) {
	f.tr.add("stripe.invoices")
	f.gotCustomer, f.gotStatus, f.gotSince = customerID, status, since
	if f.invoicesErr != nil {
		return nil, f.invoicesErr
	}
	// a deleted customer's subscriptions are cancelled, so none are active
	if f.removed {
		return nil, nil
	}
	return f.invoices, nil
}

func (f *fakeStripe) RefundInvoices(_ context.Context, invoices []*stripe.Invoice) ([]payments.RefundResult, error) {
	if f.refundDone != nil {
		defer close(f.refundDone)
	}
	f.tr.add("stripe.refund")
	f.refunded = invoices
	return f.refunds, f.refundErr
}

type fakeBilling struct {
	tr         *trail
	agreements []bdomain.StoredAgreement
	listErr    error
	refunds    []payments.RefundResult
	refundErr  error
	refunded   []*stripe.Invoice

	// after, when set, holds the paypal refund until stripe's finished
	after     <-chan struct{}
	refundCtx error
}

func (f *fakeBilling) AgreementsForUID(context.Context, string) ([]bdomain.StoredAgreement, error) {
	f.tr.add("billing.agreements")
	return f.agreements, f.listErr
}

func (f *fakeBilling) CancelBillingAgreement(_ context.Context, id string) error {
	f.tr.add("billing.cancel:" + id)
	return nil
}

func (f *fakeBilling) DeleteAllPaypalCustomers(context.Context, string) (int64, error) {
	f.tr.add("billing.delete")
	return int64(len(f.agreements)), nil
}

func (f *fakeBilling) RefundInvoices(ctx context.Context, invoices []*stripe.Invoice) ([]payments.RefundResult, error) {
	if f.after != nil {
		<-f.after
		select {
		case <-ctx.Done():
		case <-time.After(50 * time.Millisecond):
		}
		f.refundCtx = ctx.Err()
	}
	f.tr.add("billing.refund")
	f.refunded = invoices
	return f.refunds, f.refundErr
}

type fakeAccounts struct {
	tr        *trail
	accounts  map[string]adomain.Account
	devices   []string
	deleteErr error
}

func (f *fakeAccounts) Account(_ context.Context, id string) (adomain.Account, error) {
	f.tr.add("accounts.get")
	a, ok := f.accounts[id]
	if !ok {
		return adomain.Account{}, adomain.ErrUnknownAccount
	}
	return a, nil
}

func (f *fakeAccounts) AccountByEmail(_ context.Context, email string) (adomain.Account, error) {
	for _, a := range f.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return adomain.Account{}, adomain.ErrUnknownAccount
}

func (f *fakeAccounts) DeviceIDs(context.Context, string) ([]string, error) {
	f.tr.add("accounts.devices")
	return f.devices, nil
}

func (f *fakeAccounts) DeleteAccount(context.Context, string) error {
	f.tr.add("accounts.delete")
	return f.deleteErr
}

type fakePush struct {
	tr      *trail
	devices []string
	err     error
}

func (f *fakePush) NotifyAccountDestroyed(_ context.Context, _ string, ids []string) error {
	f.tr.add("push")
	f.devices = ids
	return f.err
}

type fakePushbox struct {
	tr  *trail
	err error
}

func (f *fakePushbox) DeleteAccount(context.Context, string) error {
	f.tr.add("pushbox")
	return f.err
}

type fakeOAuth struct {
	tr  *trail
	err error
}

func (f *fakeOAuth) RemoveTokensAndCodes(context.Context, string) error {
	f.tr.add("oauth")
	return f.err
}

type fakeActivity struct {
	tr     *trail
	events []activity.Event
}

func (f *fakeActivity) Record(_ context.Context, e activity.Event) error {
	f.tr.add("activity")
	f.events = append(f.events, e)
	return nil
}

type fakeQueue struct {
	tr    *trail
	err   error
	queue string
	url   string
	tasks []domain.DeleteTask
}

func (f *fakeQueue) Enqueue(_ context.Context, queue, taskURL string, task domain.DeleteTask) (cloudtasks.Task, error) {
	f.tr.add("queue")
	if f.err != nil {
		return cloudtasks.Task{}, f.err
	}
	f.queue, f.url = queue, taskURL
	f.tasks = append(f.tasks, task)
	return cloudtasks.Task{Name: "tasks/1"}, nil
}

type fakeMetrics struct {
	mu     sync.Mutex
	counts map[string]int
	steps  map[string]bool
}

func (f *fakeMetrics) Increment(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[name]++
}

func (f *fakeMetrics) Observe(step string, _ float64, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps[step] = err == nil
}

type harness struct {
	tr       *trail
	stripe   *fakeStripe
	billing  *fakeBilling
	accounts *fakeAccounts
	push     *fakePush
	pushbox  *fakePushbox
	oauth    *fakeOAuth
	activity *fakeActivity
	queue    *fakeQueue
	metrics  *fakeMetrics
	opts     Options
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	tr := &trail{}
	h := &harness{
		tr:     tr,
		stripe: &fakeStripe{tr: tr, customer: &stripe.Customer{ID: "cus_1"}},
		billing: &fakeBilling{tr: tr, agreements: []bdomain.StoredAgreement{
			{Agreement: bdomain.BillingAgreement{ID: "B-1", Status: bdomain.AgreementActive}},
			{Agreement: bdomain.BillingAgreement{ID: "B-0", Status: bdomain.AgreementCancelled}},
		}},
		accounts: &fakeAccounts{tr: tr, accounts: map[string]adomain.Account{
			uid: {UID: uid, Email: "ada@example.com"},
		}, devices: []string{"d1", "d2"}},
		push:     &fakePush{tr: tr},
		pushbox:  &fakePushbox{tr: tr},
		oauth:    &fakeOAuth{tr: tr},
		activity: &fakeActivity{tr: tr},
		queue:    &fakeQueue{tr: tr},
		metrics:  &fakeMetrics{counts: map[string]int{}, steps: map[string]bool{}},
	}
	h.opts = Options{
		Accounts:  h.accounts,
		OAuth:     h.oauth,
		Push:      h.push,
		Activity:  h.activity,
		Queue:     h.queue,
		Stripe:    h.stripe,
		Billing:   h.billing,
		Pushbox:   h.pushbox,
		Metrics:   h.metrics,
		PublicURL: "https://accounts.example.com/",
	}
	return h
}

func (h *harness) manager() *Manager { return New(h.opts) }
