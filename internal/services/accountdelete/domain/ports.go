package domain

import (
	"context"
	"time"

	"reaper/internal/adapters/activity"
	"reaper/internal/adapters/cloudtasks"
	"reaper/internal/core/payments"
	adomain "reaper/internal/services/accounts/domain"
	bdomain "reaper/internal/services/billing/domain"

	"github.com/stripe/stripe-go/v76"
)

// Stripe is the card payment surface deletion and refunds touch
type Stripe interface {
	FetchCustomer(ctx context.Context, uid string) (*stripe.Customer, error)
	RemoveCustomer(ctx context.Context, uid string) error
	RemoveCachedCustomer(ctx context.Context, uid string) error
	FetchInvoicesForActiveSubscriptions(ctx context.Context, customerID string, status stripe.InvoiceStatus, since *time.Time) ([]*stripe.Invoice, error)
	RefundInvoices(ctx context.Context, invoices []*stripe.Invoice) ([]payments.RefundResult, error)
}

// Billing is the paypal agreement surface
type Billing interface {
	AgreementsForUID(ctx context.Context, uid string) ([]bdomain.StoredAgreement, error)
	CancelBillingAgreement(ctx context.Context, id string) error
	DeleteAllPaypalCustomers(ctx context.Context, uid string) (int64, error)
	RefundInvoices(ctx context.Context, invoices []*stripe.Invoice) ([]payments.RefundResult, error)
}

// Accounts is the primary account store
type Accounts interface {
	Account(ctx context.Context, uid string) (adomain.Account, error)
	AccountByEmail(ctx context.Context, email string) (adomain.Account, error)
	DeviceIDs(ctx context.Context, uid string) ([]string, error)
	DeleteAccount(ctx context.Context, uid string) error
}

// Push tells devices their account is gone
type Push interface {
	NotifyAccountDestroyed(ctx context.Context, uid string, deviceIDs []string) error
}

// Pushbox holds undelivered device messages
type Pushbox interface {
	DeleteAccount(ctx context.Context, uid string) error
}

// OAuth drops grants and tokens
type OAuth interface {
	RemoveTokensAndCodes(ctx context.Context, uid string) error
}

// Activity records account events
type Activity interface {
	Record(ctx context.Context, e activity.Event) error
}

// TaskQueue schedules deletion tasks
type TaskQueue interface {
	Enqueue(ctx context.Context, queue, taskURL string, task DeleteTask) (cloudtasks.Task, error)
}

// Metrics counts named events
type Metrics interface {
	Increment(name string)
}

// ServicePort is the account deletion surface
type ServicePort interface {
	Resolve(ctx context.Context, req DeleteRequest) (ResolvedRequest, error)
	Enqueue(ctx context.Context, req ResolvedRequest) (EnqueuedTask, error)
	QuickDelete(ctx context.Context, req ResolvedRequest) error
	DeleteAccount(ctx context.Context, uid string, reason DeletionReason) error
	RefundSubscriptions(ctx context.Context, reason DeletionReason, customerID string, refundPeriodInDays *int) ([]payments.RefundResult, error)
	HandleDeleteTask(ctx context.Context, task DeleteTask) error
}
