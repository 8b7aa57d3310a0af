package gateway

import "strconv"

// SignatureHeader carries the HMAC digest of the raw webhook body.
const SignatureHeader = "X-IntaSend-Signature"

// IntaSendCheckout builds the public config handed to the hosted checkout
// widget. The payment record id rides along as api_ref so the gateway's later
// webhook can be correlated back to the record.
type IntaSendCheckout struct {
	publicKey string
	baseURL   string
}

func NewIntaSendCheckout(publicKey, baseURL string) *IntaSendCheckout {
	return &IntaSendCheckout{
		publicKey: publicKey,
		baseURL:   baseURL,
	}
}

func (g *IntaSendCheckout) Configured() bool {
	return g.publicKey != "" && g.baseURL != ""
}

func (g *IntaSendCheckout) CheckoutConfig(amount float64, currency, email, apiRef string) map[string]interface{} {
	return map[string]interface{}{
		"public_key": g.publicKey,
		// the widget expects the amount as a string
		"amount":         strconv.FormatFloat(amount, 'f', -1, 64),
		"currency":       currency,
		"email":          email,
		"country":        "KE",
		"payment_method": "M-PESA",
		"api_ref":        apiRef,
		"callback_url":   g.baseURL + "/payment/success",
		"redirect_url":   g.baseURL + "/payment/success",
	}
}
