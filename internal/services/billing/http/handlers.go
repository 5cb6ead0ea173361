// Package http provides http transport for paypal billing agreements
package http

import (
	stdhttp "net/http"
	"strings"

	"reaper/internal/modkit/httpkit"
	perr "reaper/internal/platform/errors"
	"reaper/internal/services/billing/domain"
	svc "reaper/internal/services/billing/service"
)

// Register mounts the router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}
	httpkit.PostJSON[domain.CheckoutTokenInput](r, "/checkout-token", h.checkoutToken)
	httpkit.PostJSON[domain.AgreementInput](r, "/billing-agreements", h.agreement)
	httpkit.Get(r, "/billing-agreements/{id}", h.getAgreement)
}

type handlers struct{ svc svc.Service }

// @Summary Start a paypal checkout
// @Tags paypal
// @Accept json
// @Produce json
// @Param payload body domain.CheckoutTokenInput true "Checkout"
// @Success 200 {object} domain.CheckoutTokenOutput "ok"
// @Router /paypal/checkout-token [post]
func (h *handlers) checkoutToken(r *stdhttp.Request, in domain.CheckoutTokenInput) (any, error) {
	tok, err := h.svc.GetCheckoutToken(r.Context(), in.CurrencyCode)
	if err != nil {
		return nil, err
	}
	return domain.CheckoutTokenOutput{Token: tok}, nil
}

// @Summary Find or create the billing agreement for a uid
// @Tags paypal
// @Accept json
// @Produce json
// @Param payload body domain.AgreementInput true "Agreement"
// @Success 200 {object} domain.AgreementOutput "ok"
// @Failure 412 {object} httpkit.Envelope "missing token or agreement"
// @Router /paypal/billing-agreements [post]
func (h *handlers) agreement(r *stdhttp.Request, in domain.AgreementInput) (any, error) {
	id, err := h.svc.GetOrCreateBillingAgreementID(r.Context(), in.UID, in.RequireExisting, in.Token)
	if err != nil {
		return nil, err
	}
	return domain.AgreementOutput{BillingAgreementID: id}, nil
}

// @Summary Read a billing agreement from paypal
// @Tags paypal
// @Produce json
// @Param id path string true "Billing agreement id"
// @Success 200 {object} domain.BillingAgreement "ok"
// @Router /paypal/billing-agreements/{id} [get]
func (h *handlers) getAgreement(r *stdhttp.Request) (any, error) {
	id := strings.TrimSpace(httpkit.Param(r, "id"))
	if id == "" {
		return nil, perr.WithField(perr.InvalidArgf("billing agreement id is required"), "id")
	}
	return h.svc.GetBillingAgreement(r.Context(), id)
}
