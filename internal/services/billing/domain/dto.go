package domain

// CheckoutTokenInput starts a paypal checkout for a currency
type CheckoutTokenInput struct {
	CurrencyCode string `json:"currencyCode" validate:"required,len=3,alpha" example:"USD"`
}

// CheckoutTokenOutput carries the token the client approves at paypal
type CheckoutTokenOutput struct {
	Token string `json:"token" example:"EC-8GN35388JA698393D"`
}

// AgreementInput finds or creates the agreement for uid
type AgreementInput struct {
	UID             string `json:"uid"             validate:"required,max=64,printascii" example:"2b4f0e5c1c0a4d8f9c1f0c6b3a2e7d11"`
	Token           string `json:"token,omitempty" validate:"omitempty,max=64,printascii" example:"EC-8GN35388JA698393D"`
	RequireExisting bool   `json:"requireExisting" example:"false"`
}

// AgreementOutput is the agreement id now on file
type AgreementOutput struct {
	BillingAgreementID string `json:"billingAgreementId" example:"B-7FB31251F28061234"`
}
