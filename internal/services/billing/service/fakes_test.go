package service

import (
	"context"
	"testing"

	"reaper/internal/adapters/paypal"
	"reaper/internal/modkit/repokit"
	"reaper/internal/platform/store"
	"reaper/internal/platform/store/pg"
	"reaper/internal/services/billing/domain"
	"reaper/internal/services/billing/repo"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stripe/stripe-go/v76"
)

// memRepo is an in memory billing repo
type memRepo struct {
	paypal    []domain.PaypalCustomerRecord
	customers map[string]domain.AccountCustomer
	createErr error
}

func (m *memRepo) CreatePaypalCustomer(_ context.Context, rec domain.PaypalCustomerRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.paypal = append(m.paypal, rec)
	return nil
}

func (m *memRepo) PaypalCustomersByUID(_ context.Context, uid string) ([]domain.PaypalCustomerRecord, error) {
	var out []domain.PaypalCustomerRecord
	for _, r := range m.paypal {
		if r.UID == uid {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRepo) ActivePaypalCustomersByUID(ctx context.Context, uid string) ([]domain.PaypalCustomerRecord, error) {
	all, _ := m.PaypalCustomersByUID(ctx, uid)
	var out []domain.PaypalCustomerRecord
	for _, r := range all {
		if r.Status == domain.CustomerActive && !r.Terminal() {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRepo) DeletePaypalCustomersByUID(_ context.Context, uid string) (int64, error) {
	var keep []domain.PaypalCustomerRecord
	var n int64
	for _, r := range m.paypal {
		if r.UID == uid {
			n++
			continue
		}
		keep = append(keep, r)
	}
	m.paypal = keep
	return n, nil
}

func (m *memRepo) AccountCustomerByUID(_ context.Context, uid string) (domain.AccountCustomer, bool, error) {
	ac, ok := m.customers[uid]
	return ac, ok, nil
}

func (m *memRepo) DeleteAccountCustomerByUID(_ context.Context, uid string) (int64, error) {
	if _, ok := m.customers[uid]; !ok {
		return 0, nil
	}
	delete(m.customers, uid)
	return 1, nil
}

// fakeNVP records paypal calls
type fakeNVP struct {
	agreementID string
	createErr   error
	createCalls []paypal.CreateBillingAgreementRequest

	baUpdate    paypal.BAUpdateResponse
	baUpdateErr error
	baCalls     []paypal.BAUpdateRequest

	token         string
	checkoutCalls []paypal.SetExpressCheckoutRequest

	txn      paypal.TransactionResult
	txnErr   error
	txnCalls []paypal.DoReferenceTransactionRequest

	refund      paypal.RefundResult
	refundErrs  map[string]error
	refundCalls []paypal.RefundTransactionRequest
}

func (f *fakeNVP) CreateBillingAgreement(_ context.Context, in paypal.CreateBillingAgreementRequest) (string, error) {
	f.createCalls = append(f.createCalls, in)
	return f.agreementID, f.createErr
}

func (f *fakeNVP) BAUpdate(_ context.Context, in paypal.BAUpdateRequest) (paypal.BAUpdateResponse, error) {
	f.baCalls = append(f.baCalls, in)
	return f.baUpdate, f.baUpdateErr
}

func (f *fakeNVP) SetExpressCheckout(_ context.Context, in paypal.SetExpressCheckoutRequest) (string, error) {
	f.checkoutCalls = append(f.checkoutCalls, in)
	return f.token, nil
}

func (f *fakeNVP) DoReferenceTransaction(_ context.Context, in paypal.DoReferenceTransactionRequest) (paypal.TransactionResult, error) {
	f.txnCalls = append(f.txnCalls, in)
	return f.txn, f.txnErr
}

func (f *fakeNVP) RefundTransaction(_ context.Context, in paypal.RefundTransactionRequest) (paypal.RefundResult, error) {
	f.refundCalls = append(f.refundCalls, in)
	if err := f.refundErrs[in.TransactionID]; err != nil {
		return paypal.RefundResult{}, err
	}
	return f.refund, nil
}

// fakeInvoices records stripe calls
type fakeInvoices struct {
	minimum     int64
	minimumErr  error
	customer    *stripe.Customer
	customerErr error

	finalized []string
	paid      []string
	metadata  map[string]map[string]string
}

func (f *fakeInvoices) MinimumAmount(string) (int64, error) { return f.minimum, f.minimumErr }

func (f *fakeInvoices) FinalizeInvoiceWithoutAutoAdvance(_ context.Context, id string) (*stripe.Invoice, error) {
	f.finalized = append(f.finalized, id)
	return &stripe.Invoice{ID: id, Status: stripe.InvoiceStatusOpen, AmountDue: 1000, Currency: "usd"}, nil
}

func (f *fakeInvoices) FetchActiveCustomer(context.Context, string) (*stripe.Customer, error) {
	return f.customer, f.customerErr
}

func (f *fakeInvoices) UpdateInvoiceMetadata(_ context.Context, id string, meta map[string]string) error {
	if f.metadata == nil {
		f.metadata = map[string]map[string]string{}
	}
	if f.metadata[id] == nil {
		f.metadata[id] = map[string]string{}
	}
	for k, v := range meta {
		f.metadata[id][k] = v
	}
	return nil
}

func (f *fakeInvoices) PayInvoiceOutOfBand(_ context.Context, id string) error {
	f.paid = append(f.paid, id)
	return nil
}

type harness struct {
	m      *Manager
	repo   *memRepo
	nvp    *fakeNVP
	stripe *fakeInvoices
}

func newHarness(t *testing.T) harness {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	h := harness{
		repo:   &memRepo{customers: map[string]domain.AccountCustomer{}},
		nvp:    &fakeNVP{},
		stripe: &fakeInvoices{minimum: 50},
	}
	binder := repokit.BindFunc[repo.Repo](func(repokit.Queryer) repo.Repo { return h.repo })
	h.m = New(store.NewPGAdapter(pg.Wrap(mock, nil, 0)), binder, Options{PayPal: h.nvp, Stripe: h.stripe})
	return h
}
