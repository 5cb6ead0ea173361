// Package domain holds billing agreement and payment customer types
package domain

import (
	"time"

	perr "reaper/internal/platform/errors"
)

var (
	// ErrMultipleRecords means a uid has more than one active paypal customer row
	ErrMultipleRecords = perr.New(perr.ErrorCodeIntegrity, "multiple active paypal customer records")

	// ErrAmountExceedsCharLimit means an amount does not fit paypal's 10 digit AMT field
	ErrAmountExceedsCharLimit = perr.New(perr.ErrorCodeEncodingLimit, "amount exceeds paypal character limit")

	// ErrMissingToken means a new agreement was needed but no checkout token was given
	ErrMissingToken = perr.New(perr.ErrorCodePrecondition, "missing token")

	// ErrExpectedAgreement means the caller required an existing agreement and none was found
	ErrExpectedAgreement = perr.New(perr.ErrorCodePrecondition, "expected existing agreement")

	// ErrNoBillingAgreement means an invoice cannot be charged because its customer has no agreement
	ErrNoBillingAgreement = perr.New(perr.ErrorCodePrecondition, "no billing agreement for customer")
)

// AgreementStatus is the live state of a paypal billing agreement
type AgreementStatus string

const (
	// AgreementActive can be charged
	AgreementActive AgreementStatus = "active"

	// AgreementCancelled is closed at paypal
	AgreementCancelled AgreementStatus = "cancelled"
)

// BillingAddress is the address paypal holds for the agreement
type BillingAddress struct {
	City        string `json:"city"`
	CountryCode string `json:"countryCode"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	State       string `json:"state"`
	Street      string `json:"street"`
	Street2     string `json:"street2"`
	Zip         string `json:"zip"`
}

// BillingAgreement is read live from paypal and never cached
type BillingAgreement struct {
	ID             string          `json:"id"`
	Status         AgreementStatus `json:"status"`
	BillingAddress BillingAddress  `json:"billingAddress"`
}

// CustomerStatus is the stored state of a paypal customer row
type CustomerStatus string

const (
	// CustomerActive is the one row per uid that may be charged
	CustomerActive CustomerStatus = "active"

	// CustomerCancelled rows are kept for history
	CustomerCancelled CustomerStatus = "cancelled"
)

// PaypalCustomerRecord links a uid to a billing agreement
// EndedAt set means the record is terminal
type PaypalCustomerRecord struct {
	UID                string
	BillingAgreementID string
	Status             CustomerStatus
	CreatedAt          time.Time
	EndedAt            *time.Time
}

// Terminal reports whether the record can no longer be charged
func (r PaypalCustomerRecord) Terminal() bool { return r.EndedAt != nil }

// AccountCustomer maps a uid to its stripe customer
type AccountCustomer struct {
	UID              string
	StripeCustomerID string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// StoredAgreement is a paypal customer row joined with the agreement it points at
type StoredAgreement struct {
	Record    PaypalCustomerRecord
	Agreement BillingAgreement
}
