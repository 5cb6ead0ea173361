package paypal

import (
	stderrs "errors"
	"fmt"

	perr "reaper/internal/platform/errors"
)

// NVP error codes the client reacts to
const (
	CodeInternalError          = "10001"
	CodeAuthorizationFailed    = "10002"
	CodeAgreementAlreadyClosed = "10201"
)

// NVPError is a response whose ACK was neither Success nor SuccessWithWarning
type NVPError struct {
	Method        string
	Ack           string
	Code          string
	ShortMessage  string
	LongMessage   string
	Severity      string
	CorrelationID string
}

func (e *NVPError) Error() string {
	return fmt.Sprintf("paypal %s %s: %s (%s)", e.Method, e.Ack, e.LongMessage, e.Code)
}

// classify wraps e with the project code matching its retry semantics
func (e *NVPError) classify() error {
	switch e.Code {
	case CodeInternalError:
		return perr.Wrap(e, perr.ErrorCodeUnavailable, "paypal: "+e.Method)
	case CodeAuthorizationFailed:
		return perr.Wrap(e, perr.ErrorCodeUnauthorized, "paypal: "+e.Method)
	}
	return perr.Wrap(e, perr.ErrorCodeDependency, "paypal: "+e.Method)
}

// AsNVPError extracts the NVPError from err's chain
func AsNVPError(err error) (*NVPError, bool) {
	var ne *NVPError
	ok := stderrs.As(err, &ne)
	return ne, ok
}

// IsAlreadyClosed reports the "billing agreement was cancelled" error
func IsAlreadyClosed(err error) bool {
	ne, ok := AsNVPError(err)
	return ok && ne.Code == CodeAgreementAlreadyClosed
}
