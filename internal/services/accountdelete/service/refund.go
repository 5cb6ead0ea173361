package service

import (
	"context"

	"reaper/internal/adapters/activity"
	"reaper/internal/core/payments"
	"reaper/internal/platform/net/http/bind"
	"reaper/internal/services/accountdelete/domain"
	bdomain "reaper/internal/services/billing/domain"

	"github.com/stripe/stripe-go/v76"
	"golang.org/x/sync/errgroup"
)

const (
	invoicePaid     = stripe.InvoiceStatusPaid
	activeAgreement = bdomain.AgreementActive
)

// refund runs the stripe and paypal refunds side by side over the same invoices
// results are stripe first, then paypal. A failed provider does not cancel the
// other: money already moving at one must finish there
func (m *Manager) refund(ctx context.Context, invoices []*stripe.Invoice) ([]payments.RefundResult, error) {
	var card, paypal []payments.RefundResult
	var g errgroup.Group
	g.Go(func() error {
		var err error
		card, err = m.opts.Stripe.RefundInvoices(ctx, invoices)
		return err
	})
	if m.opts.Billing != nil {
		g.Go(func() error {
			var err error
			paypal, err = m.opts.Billing.RefundInvoices(ctx, invoices)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make([]payments.RefundResult, 0, len(card)+len(paypal))
	out = append(out, card...)
	return append(out, paypal...), nil
}

func activityDeleted(uid string, reason domain.DeletionReason) activity.Event {
	return activity.Event{UID: uid, Event: activity.AccountDeleted, Reason: reason.String()}
}

func validateTask(task domain.DeleteTask) error {
	return bind.Struct(task)
}
