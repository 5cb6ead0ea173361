// Package payments holds provider neutral payment types shared by the stripe
// and paypal halves of a refund
package payments

import "github.com/stripe/stripe-go/v76"

// RefundResult describes one refunded invoice
type RefundResult struct {
	InvoiceID string `json:"invoiceId"`
	PriceID   string `json:"priceId"`
	Total     int64  `json:"total"`
	Currency  string `json:"currency"`
}

// ResultFor builds the RefundResult for inv; PriceID is the first line item's price
func ResultFor(inv *stripe.Invoice) RefundResult {
	r := RefundResult{InvoiceID: inv.ID, Total: inv.Total, Currency: string(inv.Currency)}
	if inv.Lines != nil {
		for _, li := range inv.Lines.Data {
			if li != nil && li.Price != nil {
				r.PriceID = li.Price.ID
				break
			}
		}
	}
	return r
}

// Metadata keys written on send_invoice invoices charged through PayPal
const (
	MetaPaypalTransactionID       = "paypalTransactionId"
	MetaPaypalRefundTransactionID = "paypalRefundTransactionId"
	MetaPaymentAttempts           = "paymentAttempts"
	MetaUserID                    = "userid"
)

// minimumCharge is stripe's published minimum charge per currency, in the smallest unit
var minimumCharge = map[string]int64{
	"usd": 50, "aed": 200, "aud": 50, "bgn": 100, "brl": 50, "cad": 50,
	"chf": 50, "czk": 1500, "dkk": 250, "eur": 50, "gbp": 30, "hkd": 400,
	"huf": 17500, "inr": 50, "jpy": 50, "mxn": 1000, "myr": 200, "nok": 300,
	"nzd": 50, "pln": 200, "ron": 200, "sek": 300, "sgd": 50, "thb": 1000,
}

// MinimumCharge reports the minimum chargeable amount for currency (lowercase iso code)
func MinimumCharge(currency string) (int64, bool) {
	v, ok := minimumCharge[currency]
	return v, ok
}
