package paypal

import (
	"context"
	"net/url"
)

// Billing agreement statuses as paypal spells them
const (
	StatusActive   = "Active"
	StatusCanceled = "Canceled"
)

// CreateBillingAgreementRequest turns an approved checkout token into an agreement
type CreateBillingAgreementRequest struct {
	Token string `url:"TOKEN"`
}

// CreateBillingAgreement returns the new BILLINGAGREEMENTID
func (c *Client) CreateBillingAgreement(ctx context.Context, in CreateBillingAgreementRequest) (string, error) {
	vals, err := c.Do(ctx, "CreateBillingAgreement", in)
	if err != nil {
		return "", err
	}
	return vals.Get("BILLINGAGREEMENTID"), nil
}

// BAUpdateRequest reads an agreement, or cancels it when Cancel is set
type BAUpdateRequest struct {
	BillingAgreementID string
	Cancel             bool
}

type baUpdateParams struct {
	ReferenceID string `url:"REFERENCEID"`
	Status      string `url:"BILLINGAGREEMENTSTATUS,omitempty"`
}

// BAUpdateResponse is the agreement as BillAgreementUpdate reports it
type BAUpdateResponse struct {
	BillingAgreementID string
	Status             string
	Email              string
	City               string
	CountryCode        string
	FirstName          string
	LastName           string
	State              string
	Street             string
	Street2            string
	Zip                string
}

// BAUpdate calls BillAgreementUpdate
// cancelling an agreement paypal already closed is not an error
func (c *Client) BAUpdate(ctx context.Context, in BAUpdateRequest) (BAUpdateResponse, error) {
	p := baUpdateParams{ReferenceID: in.BillingAgreementID}
	if in.Cancel {
		p.Status = StatusCanceled
	}
	vals, err := c.Do(ctx, "BillAgreementUpdate", p)
	if err != nil {
		if in.Cancel && IsAlreadyClosed(err) {
			return BAUpdateResponse{BillingAgreementID: in.BillingAgreementID, Status: StatusCanceled}, nil
		}
		return BAUpdateResponse{}, err
	}
	return BAUpdateResponse{
		BillingAgreementID: vals.Get("BILLINGAGREEMENTID"),
		Status:             vals.Get("BILLINGAGREEMENTSTATUS"),
		Email:              vals.Get("EMAIL"),
		City:               vals.Get("CITY"),
		CountryCode:        vals.Get("COUNTRYCODE"),
		FirstName:          vals.Get("FIRSTNAME"),
		LastName:           vals.Get("LASTNAME"),
		State:              vals.Get("STATE"),
		Street:             vals.Get("STREET"),
		Street2:            vals.Get("STREET2"),
		Zip:                vals.Get("ZIP"),
	}, nil
}

// SetExpressCheckoutRequest starts a zero amount checkout that yields a billing agreement
type SetExpressCheckoutRequest struct {
	CurrencyCode string
}

type setExpressCheckoutParams struct {
	Amount        string `url:"PAYMENTREQUEST_0_AMT"`
	PaymentAction string `url:"PAYMENTREQUEST_0_PAYMENTACTION"`
	CurrencyCode  string `url:"PAYMENTREQUEST_0_CURRENCYCODE"`
	BillingType   string `url:"L_BILLINGTYPE0"`
	NoShipping    int    `url:"NOSHIPPING"`
	ReturnURL     string `url:"RETURNURL"`
	CancelURL     string `url:"CANCELURL"`
}

// SetExpressCheckout returns the checkout TOKEN
func (c *Client) SetExpressCheckout(ctx context.Context, in SetExpressCheckoutRequest) (string, error) {
	vals, err := c.Do(ctx, "SetExpressCheckout", setExpressCheckoutParams{
		Amount:        "0",
		PaymentAction: "AUTHORIZATION",
		CurrencyCode:  in.CurrencyCode,
		BillingType:   "MerchantInitiatedBilling",
		NoShipping:    1,
		ReturnURL:     c.opts.ReturnURL,
		CancelURL:     c.opts.CancelURL,
	})
	if err != nil {
		return "", err
	}
	return vals.Get("TOKEN"), nil
}

// DoReferenceTransactionRequest charges an agreement
// IdempotencyKey is sent as MSGSUBID so a retried charge is not taken twice
type DoReferenceTransactionRequest struct {
	BillingAgreementID string `url:"REFERENCEID"`
	Amount             string `url:"AMT"`
	CurrencyCode       string `url:"CURRENCYCODE"`
	InvoiceNumber      string `url:"INVNUM"`
	IdempotencyKey     string `url:"MSGSUBID"`
	PaymentAction      string `url:"PAYMENTACTION"`
	PaymentType        string `url:"PAYMENTTYPE"`
}

// TransactionResult is the outcome of a charge
type TransactionResult struct {
	TransactionID string
	PaymentStatus string
	PendingReason string
	ReasonCode    string
	Amount        string
}

// DoReferenceTransaction charges in.Amount against the agreement
func (c *Client) DoReferenceTransaction(ctx context.Context, in DoReferenceTransactionRequest) (TransactionResult, error) {
	if in.PaymentAction == "" {
		in.PaymentAction = "Sale"
	}
	if in.PaymentType == "" {
		in.PaymentType = "instant"
	}
	vals, err := c.Do(ctx, "DoReferenceTransaction", in)
	if err != nil {
		return TransactionResult{}, err
	}
	return transactionFrom(vals), nil
}

func transactionFrom(vals url.Values) TransactionResult {
	return TransactionResult{
		TransactionID: vals.Get("TRANSACTIONID"),
		PaymentStatus: vals.Get("PAYMENTSTATUS"),
		PendingReason: vals.Get("PENDINGREASON"),
		ReasonCode:    vals.Get("REASONCODE"),
		Amount:        vals.Get("AMT"),
	}
}

// RefundTransactionRequest refunds a captured transaction in full
type RefundTransactionRequest struct {
	TransactionID  string `url:"TRANSACTIONID"`
	RefundType     string `url:"REFUNDTYPE"`
	IdempotencyKey string `url:"MSGSUBID,omitempty"`
}

// RefundResult is paypal's refund reply
type RefundResult struct {
	RefundTransactionID string
	RefundStatus        string
	PendingReason       string
}

// RefundTransaction refunds a transaction; RefundType defaults to Full
func (c *Client) RefundTransaction(ctx context.Context, in RefundTransactionRequest) (RefundResult, error) {
	if in.RefundType == "" {
		in.RefundType = "Full"
	}
	vals, err := c.Do(ctx, "RefundTransaction", in)
	if err != nil {
		return RefundResult{}, err
	}
	return RefundResult{
		RefundTransactionID: vals.Get("REFUNDTRANSACTIONID"),
		RefundStatus:        vals.Get("REFUNDSTATUS"),
		PendingReason:       vals.Get("PENDINGREASON"),
	}, nil
}
