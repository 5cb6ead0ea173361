package stripe

import (
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/customer"
	"github.com/stripe/stripe-go/v76/invoice"
	"github.com/stripe/stripe-go/v76/refund"
	"github.com/stripe/stripe-go/v76/subscription"
)

// API is the subset of the stripe SDK the adapter calls
type API interface {
	GetCustomer(id string, expand ...string) (*stripe.Customer, error)
	DeleteCustomer(id string) error
	ListSubscriptions(customerID string, status stripe.SubscriptionStatus) ([]*stripe.Subscription, error)
	ListInvoices(q InvoiceQuery) ([]*stripe.Invoice, error)
	FinalizeInvoice(id string, autoAdvance bool) (*stripe.Invoice, error)
	PayInvoiceOutOfBand(id string) (*stripe.Invoice, error)
	UpdateInvoiceMetadata(id string, meta map[string]string) (*stripe.Invoice, error)
	RefundCharge(chargeID string) (*stripe.Refund, error)
}

// InvoiceQuery narrows an invoice listing; empty fields are not sent
type InvoiceQuery struct {
	CustomerID       string
	Status           stripe.InvoiceStatus
	CollectionMethod stripe.InvoiceCollectionMethod
	Since            *time.Time
}

// SDK calls the stripe-go package functions with the process wide key
type SDK struct{}

// NewSDK sets the stripe key once and returns the SDK
func NewSDK(secretKey string) SDK {
	stripe.Key = secretKey
	return SDK{}
}

// GetCustomer implements API
func (SDK) GetCustomer(id string, expand ...string) (*stripe.Customer, error) {
	p := &stripe.CustomerParams{}
	for _, e := range expand {
		p.AddExpand(e)
	}
	return customer.Get(id, p)
}

// DeleteCustomer implements API
func (SDK) DeleteCustomer(id string) error {
	_, err := customer.Del(id, nil)
	return err
}

// ListSubscriptions implements API
func (SDK) ListSubscriptions(customerID string, status stripe.SubscriptionStatus) ([]*stripe.Subscription, error) {
	p := &stripe.SubscriptionListParams{Customer: stripe.String(customerID)}
	if status != "" {
		p.Status = stripe.String(string(status))
	}
	it := subscription.List(p)
	var out []*stripe.Subscription
	for it.Next() {
		out = append(out, it.Subscription())
	}
	return out, it.Err()
}

// ListInvoices implements API
func (SDK) ListInvoices(q InvoiceQuery) ([]*stripe.Invoice, error) {
	p := &stripe.InvoiceListParams{}
	if q.CustomerID != "" {
		p.Customer = stripe.String(q.CustomerID)
	}
	if q.Status != "" {
		p.Status = stripe.String(string(q.Status))
	}
	if q.CollectionMethod != "" {
		p.CollectionMethod = stripe.String(string(q.CollectionMethod))
	}
	if q.Since != nil {
		p.CreatedRange = &stripe.RangeQueryParams{GreaterThanOrEqual: q.Since.Unix()}
	}
	it := invoice.List(p)
	var out []*stripe.Invoice
	for it.Next() {
		out = append(out, it.Invoice())
	}
	return out, it.Err()
}

// FinalizeInvoice implements API
func (SDK) FinalizeInvoice(id string, autoAdvance bool) (*stripe.Invoice, error) {
	return invoice.FinalizeInvoice(id, &stripe.InvoiceFinalizeInvoiceParams{AutoAdvance: stripe.Bool(autoAdvance)})
}

// PayInvoiceOutOfBand implements API
func (SDK) PayInvoiceOutOfBand(id string) (*stripe.Invoice, error) {
	return invoice.Pay(id, &stripe.InvoicePayParams{PaidOutOfBand: stripe.Bool(true)})
}

// UpdateInvoiceMetadata implements API
func (SDK) UpdateInvoiceMetadata(id string, meta map[string]string) (*stripe.Invoice, error) {
	p := &stripe.InvoiceParams{}
	for k, v := range meta {
		p.AddMetadata(k, v)
	}
	return invoice.Update(id, p)
}

// RefundCharge implements API
func (SDK) RefundCharge(chargeID string) (*stripe.Refund, error) {
	return refund.New(&stripe.RefundParams{Charge: stripe.String(chargeID)})
}
