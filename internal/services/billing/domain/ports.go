package domain

import (
	"context"

	"reaper/internal/adapters/paypal"
	"reaper/internal/core/payments"

	"github.com/stripe/stripe-go/v76"
)

// NVP is the paypal surface the manager calls
type NVP interface {
	CreateBillingAgreement(ctx context.Context, in paypal.CreateBillingAgreementRequest) (string, error)
	BAUpdate(ctx context.Context, in paypal.BAUpdateRequest) (paypal.BAUpdateResponse, error)
	SetExpressCheckout(ctx context.Context, in paypal.SetExpressCheckoutRequest) (string, error)
	DoReferenceTransaction(ctx context.Context, in paypal.DoReferenceTransactionRequest) (paypal.TransactionResult, error)
	RefundTransaction(ctx context.Context, in paypal.RefundTransactionRequest) (paypal.RefundResult, error)
}

// Invoices is the stripe surface used to settle send_invoice invoices through paypal
type Invoices interface {
	MinimumAmount(currency string) (int64, error)
	FinalizeInvoiceWithoutAutoAdvance(ctx context.Context, id string) (*stripe.Invoice, error)
	FetchActiveCustomer(ctx context.Context, customerID string) (*stripe.Customer, error)
	UpdateInvoiceMetadata(ctx context.Context, id string, meta map[string]string) error
	PayInvoiceOutOfBand(ctx context.Context, id string) error
}

// ServicePort is the billing agreement surface exposed over http and to account deletion
type ServicePort interface {
	GetOrCreateBillingAgreementID(ctx context.Context, uid string, requireExisting bool, token string) (string, error)
	GetBillingAgreement(ctx context.Context, id string) (BillingAgreement, error)
	CancelBillingAgreement(ctx context.Context, id string) error
	GetCheckoutToken(ctx context.Context, currency string) (string, error)
	AgreementsForUID(ctx context.Context, uid string) ([]StoredAgreement, error)
	DeleteAllPaypalCustomers(ctx context.Context, uid string) (int64, error)
	RefundInvoices(ctx context.Context, invoices []*stripe.Invoice) ([]payments.RefundResult, error)
}
