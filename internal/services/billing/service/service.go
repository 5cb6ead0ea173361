// Package service implements the billing agreement manager
package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"reaper/internal/adapters/paypal"
	"reaper/internal/core/payments"
	"reaper/internal/modkit/repokit"
	perr "reaper/internal/platform/errors"
	"reaper/internal/platform/logger"
	"reaper/internal/services/billing/domain"
	"reaper/internal/services/billing/repo"

	"github.com/stripe/stripe-go/v76"
)

// Service is the public service port
type Service interface{ domain.ServicePort }

// Manager owns paypal billing agreements and the invoices charged against them
type Manager struct {
	Repo   repo.Repo
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner
	nvp    domain.NVP
	stripe domain.Invoices
	log    *logger.Logger
}

// Options carries the provider seams
type Options struct {
	// PayPal is required
	PayPal domain.NVP

	// Stripe is required for invoice processing; agreement calls work without it
	Stripe domain.Invoices
}

// New constructs the manager
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], opt Options) *Manager {
	if db == nil {
		panic("billing.Manager requires a non nil TxRunner")
	}
	if binder == nil {
		panic("billing.Manager requires a non nil Repo binder")
	}
	if opt.PayPal == nil {
		panic("billing.Manager requires a non nil paypal client")
	}
	return &Manager{
		Repo:   binder.Bind(db),
		binder: binder,
		db:     db,
		nvp:    opt.PayPal,
		stripe: opt.Stripe,
		log:    logger.Named("billing"),
	}
}

// GetOrCreateBillingAgreementID returns uid's active agreement or creates one from token
func (m *Manager) GetOrCreateBillingAgreementID(ctx context.Context, uid string, requireExisting bool, token string) (string, error) {
	id, ok, err := m.GetCustomerBillingAgreementID(ctx, uid)
	if err != nil {
		return "", err
	}
	if ok {
		return id, nil
	}
	if requireExisting {
		return "", perr.WithOp(domain.ErrExpectedAgreement, "get or create billing agreement")
	}
	if token == "" {
		return "", perr.WithOp(domain.ErrMissingToken, "get or create billing agreement")
	}
	return m.CreateBillingAgreement(ctx, uid, token)
}

// CreateBillingAgreement exchanges an approved checkout token for an agreement and stores it
func (m *Manager) CreateBillingAgreement(ctx context.Context, uid, token string) (string, error) {
	id, err := m.nvp.CreateBillingAgreement(ctx, paypal.CreateBillingAgreementRequest{Token: token})
	if err != nil {
		return "", err
	}
	err = m.Repo.CreatePaypalCustomer(ctx, domain.PaypalCustomerRecord{
		UID:                uid,
		BillingAgreementID: id,
		Status:             domain.CustomerActive,
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// CancelBillingAgreement closes the agreement at paypal; already closed agreements are not an error
func (m *Manager) CancelBillingAgreement(ctx context.Context, id string) error {
	_, err := m.nvp.BAUpdate(ctx, paypal.BAUpdateRequest{BillingAgreementID: id, Cancel: true})
	return err
}

// GetBillingAgreement reads the agreement and its billing address from paypal
func (m *Manager) GetBillingAgreement(ctx context.Context, id string) (domain.BillingAgreement, error) {
	res, err := m.nvp.BAUpdate(ctx, paypal.BAUpdateRequest{BillingAgreementID: id})
	if err != nil {
		return domain.BillingAgreement{}, err
	}
	return agreementFrom(id, res), nil
}

func agreementFrom(id string, res paypal.BAUpdateResponse) domain.BillingAgreement {
	status := domain.AgreementActive
	if res.Status == paypal.StatusCanceled {
		status = domain.AgreementCancelled
	}
	return domain.BillingAgreement{
		ID:     id,
		Status: status,
		BillingAddress: domain.BillingAddress{
			City:        res.City,
			CountryCode: res.CountryCode,
			FirstName:   res.FirstName,
			LastName:    res.LastName,
			State:       res.State,
			Street:      res.Street,
			Street2:     res.Street2,
			Zip:         res.Zip,
		},
	}
}

// GetCustomerBillingAgreementID returns the single active agreement id for uid
func (m *Manager) GetCustomerBillingAgreementID(ctx context.Context, uid string) (string, bool, error) {
	recs, err := m.Repo.ActivePaypalCustomersByUID(ctx, uid)
	if err != nil {
		return "", false, err
	}
	switch len(recs) {
	case 0:
		return "", false, nil
	case 1:
		return recs[0].BillingAgreementID, true, nil
	}
	return "", false, perr.WithOp(domain.ErrMultipleRecords, "customer billing agreement")
}

// GetCheckoutToken starts a checkout the customer approves to create an agreement
func (m *Manager) GetCheckoutToken(ctx context.Context, currency string) (string, error) {
	return m.nvp.SetExpressCheckout(ctx, paypal.SetExpressCheckoutRequest{CurrencyCode: strings.ToUpper(currency)})
}

// GetCustomerPayPalSubscriptions returns the customer's subscriptions billed by sending invoices
func (m *Manager) GetCustomerPayPalSubscriptions(customer *stripe.Customer) []*stripe.Subscription {
	if customer == nil || customer.Subscriptions == nil {
		return []*stripe.Subscription{}
	}
	out := []*stripe.Subscription{}
	for _, s := range customer.Subscriptions.Data {
		if s != nil && s.CollectionMethod == stripe.SubscriptionCollectionMethodSendInvoice {
			out = append(out, s)
		}
	}
	return out
}

// maxAmountDigits is the width of paypal's AMT field, excluding the decimal point
const maxAmountDigits = 10

// AmountString renders cents as a fixed two decimal amount such as "12.34"
func AmountString(cents int64) (string, error) {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	s := fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
	if len(s)-len(sign)-1 > maxAmountDigits {
		return "", domain.ErrAmountExceedsCharLimit
	}
	return s, nil
}

// AgreementsForUID pairs each stored record with its live agreement
// terminal records are reported cancelled without asking paypal
func (m *Manager) AgreementsForUID(ctx context.Context, uid string) ([]domain.StoredAgreement, error) {
	recs, err := m.Repo.PaypalCustomersByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	out := make([]domain.StoredAgreement, 0, len(recs))
	for _, rec := range recs {
		sa := domain.StoredAgreement{Record: rec}
		if rec.Terminal() || rec.Status == domain.CustomerCancelled {
			sa.Agreement = domain.BillingAgreement{ID: rec.BillingAgreementID, Status: domain.AgreementCancelled}
		} else {
			ba, err := m.GetBillingAgreement(ctx, rec.BillingAgreementID)
			if err != nil {
				return nil, err
			}
			sa.Agreement = ba
		}
		out = append(out, sa)
	}
	return out, nil
}

// DeleteAllPaypalCustomers removes every stored record for uid
func (m *Manager) DeleteAllPaypalCustomers(ctx context.Context, uid string) (int64, error) {
	return m.Repo.DeletePaypalCustomersByUID(ctx, uid)
}

// RefundInvoices refunds the paypal transaction behind each send_invoice invoice
// invoices already refunded or never charged through paypal are skipped
func (m *Manager) RefundInvoices(ctx context.Context, invoices []*stripe.Invoice) ([]payments.RefundResult, error) {
	out := []payments.RefundResult{}
	for _, inv := range invoices {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if inv == nil || inv.CollectionMethod != stripe.InvoiceCollectionMethodSendInvoice {
			continue
		}
		txn := inv.Metadata[payments.MetaPaypalTransactionID]
		if txn == "" || inv.Metadata[payments.MetaPaypalRefundTransactionID] != "" {
			continue
		}

		res, err := m.nvp.RefundTransaction(ctx, paypal.RefundTransactionRequest{
			TransactionID:  txn,
			IdempotencyKey: inv.ID + "-refund",
		})
		if err != nil {
			if perr.IsCode(err, perr.ErrorCodeUnavailable) || perr.IsCode(err, perr.ErrorCodeUnauthorized) {
				return out, err
			}
			m.log.Error().Err(err).Str("invoice", inv.ID).Msg("paypal refund failed; skipping invoice")
			continue
		}

		if m.stripe != nil {
			meta := map[string]string{payments.MetaPaypalRefundTransactionID: res.RefundTransactionID}
			if err := m.stripe.UpdateInvoiceMetadata(ctx, inv.ID, meta); err != nil {
				m.log.Warn().Err(err).Str("invoice", inv.ID).Msg("refund recorded at paypal but not on invoice")
			}
		}
		out = append(out, payments.ResultFor(inv))
	}
	return out, nil
}

// ProcessInvoice settles an open send_invoice invoice
// amounts under stripe's minimum are finalized without a charge
func (m *Manager) ProcessInvoice(ctx context.Context, inv *stripe.Invoice) error {
	if m.stripe == nil {
		return perr.Preconditionf("invoice processing requires stripe")
	}
	minAmount, err := m.stripe.MinimumAmount(string(inv.Currency))
	if err != nil {
		return err
	}
	if inv.AmountDue < minAmount {
		_, err := m.ProcessZeroInvoice(ctx, inv.ID)
		return err
	}
	if inv.Customer == nil || inv.Customer.ID == "" {
		return perr.Preconditionf("invoice %s has no customer", inv.ID)
	}
	customer, err := m.stripe.FetchActiveCustomer(ctx, inv.Customer.ID)
	if err != nil {
		return err
	}
	return m.ProcessNonZeroInvoice(ctx, customer, inv)
}

// ProcessZeroInvoice finalizes an invoice that needs no payment
func (m *Manager) ProcessZeroInvoice(ctx context.Context, invoiceID string) (*stripe.Invoice, error) {
	return m.stripe.FinalizeInvoiceWithoutAutoAdvance(ctx, invoiceID)
}

// Payment statuses DoReferenceTransaction reports
const (
	paymentCompleted  = "Completed"
	paymentProcessed  = "Processed"
	paymentPending    = "Pending"
	paymentInProgress = "In-Progress"
)

// ProcessNonZeroInvoice charges the customer's agreement for the invoice
// a charge that paypal is still working on leaves the invoice open
func (m *Manager) ProcessNonZeroInvoice(ctx context.Context, customer *stripe.Customer, inv *stripe.Invoice) error {
	uid := ""
	if customer != nil {
		uid = customer.Metadata[payments.MetaUserID]
	}
	if uid == "" {
		return perr.Preconditionf("customer for invoice %s has no %s metadata", inv.ID, payments.MetaUserID)
	}
	if len(m.GetCustomerPayPalSubscriptions(customer)) == 0 {
		return perr.Preconditionf("customer for invoice %s has no paypal subscriptions", inv.ID)
	}
	agreementID, ok, err := m.GetCustomerBillingAgreementID(ctx, uid)
	if err != nil {
		return err
	}
	if !ok {
		return perr.WithOp(domain.ErrNoBillingAgreement, "process invoice")
	}

	if inv.Status == stripe.InvoiceStatusDraft {
		if inv, err = m.stripe.FinalizeInvoiceWithoutAutoAdvance(ctx, inv.ID); err != nil {
			return err
		}
	}

	amount, err := AmountString(inv.AmountDue)
	if err != nil {
		return err
	}
	attempt := attempts(inv)
	res, err := m.nvp.DoReferenceTransaction(ctx, paypal.DoReferenceTransactionRequest{
		BillingAgreementID: agreementID,
		Amount:             amount,
		CurrencyCode:       strings.ToUpper(string(inv.Currency)),
		InvoiceNumber:      inv.ID,
		IdempotencyKey:     fmt.Sprintf("%s-%d", inv.ID, attempt),
	})
	if err != nil {
		m.bumpAttempts(ctx, inv.ID, attempt)
		return err
	}

	log := m.log.With().Str("invoice", inv.ID).Str("transaction", res.TransactionID).Logger()
	switch res.PaymentStatus {
	case paymentCompleted, paymentProcessed:
		meta := map[string]string{payments.MetaPaypalTransactionID: res.TransactionID}
		if err := m.stripe.UpdateInvoiceMetadata(ctx, inv.ID, meta); err != nil {
			return err
		}
		if err := m.stripe.PayInvoiceOutOfBand(ctx, inv.ID); err != nil {
			return err
		}
		log.Info().Msg("invoice paid through paypal")
		return nil
	case paymentPending, paymentInProgress:
		log.Info().Str("pending_reason", res.PendingReason).Msg("paypal payment pending")
		return nil
	}
	m.bumpAttempts(ctx, inv.ID, attempt)
	return perr.Dependencyf("paypal payment %s for invoice %s (reason %s)", res.PaymentStatus, inv.ID, res.ReasonCode)
}

func attempts(inv *stripe.Invoice) int {
	n, err := strconv.Atoi(inv.Metadata[payments.MetaPaymentAttempts])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (m *Manager) bumpAttempts(ctx context.Context, invoiceID string, attempt int) {
	meta := map[string]string{payments.MetaPaymentAttempts: strconv.Itoa(attempt + 1)}
	if err := m.stripe.UpdateInvoiceMetadata(ctx, invoiceID, meta); err != nil {
		m.log.Warn().Err(err).Str("invoice", invoiceID).Msg("could not record payment attempt")
	}
}
