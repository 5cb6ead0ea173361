package stripe

import (
	stderrs "errors"
	"net/http"

	perr "reaper/internal/platform/errors"

	"github.com/stripe/stripe-go/v76"
)

var (
	// ErrCustomerNotFound means stripe has no customer with that id
	ErrCustomerNotFound = perr.New(perr.ErrorCodeNotFound, "Customer not found")

	// ErrCustomerDeleted means the customer exists only as a deleted stub
	ErrCustomerDeleted = perr.New(perr.ErrorCodeNotFound, "Customer deleted")

	// ErrNoMinimumChargeAmount means the currency has no published minimum
	ErrNoMinimumChargeAmount = perr.New(perr.ErrorCodeInvalidArgument, "Currency does not have a minimum charge amount available.")
)

// isMissing reports a stripe resource_missing or 404 response
func isMissing(err error) bool {
	var se *stripe.Error
	if !stderrs.As(err, &se) {
		return false
	}
	return se.Code == stripe.ErrorCodeResourceMissing || se.HTTPStatusCode == http.StatusNotFound
}

// isCode reports a stripe error with the given code
func isCode(err error, code stripe.ErrorCode) bool {
	var se *stripe.Error
	return stderrs.As(err, &se) && se.Code == code
}

// fromStripe wraps an sdk error with a code matching how callers should react
func fromStripe(err error, msg string) error {
	if err == nil {
		return nil
	}
	var se *stripe.Error
	if !stderrs.As(err, &se) {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, msg)
	}
	switch {
	case isMissing(err):
		return perr.Wrap(err, perr.ErrorCodeNotFound, msg)
	case se.HTTPStatusCode == http.StatusTooManyRequests || se.HTTPStatusCode >= 500:
		return perr.Wrap(err, perr.ErrorCodeUnavailable, msg)
	case se.HTTPStatusCode == http.StatusUnauthorized:
		return perr.Wrap(err, perr.ErrorCodeUnauthorized, msg)
	}
	return perr.Wrap(err, perr.ErrorCodeDependency, msg)
}
