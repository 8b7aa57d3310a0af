package gateway

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

// StripeGateway is the card channel. M-PESA checkouts go through the hosted
// widget; card checkouts create a PaymentIntent server-side and hand its
// client secret to the browser.
type StripeGateway struct {
	key string
}

func NewStripeGateway(key string) *StripeGateway {
	stripe.Key = key
	return &StripeGateway{key: key}
}

func (g *StripeGateway) Configured() bool {
	return g.key != ""
}

// minorUnits converts a major-unit amount to cents. Rounding is required:
// 19.99 has no exact binary representation, so truncation would yield 1998.
func minorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func (g *StripeGateway) CreateIntent(ctx context.Context, amount float64, currency, email, apiRef string) (string, map[string]interface{}, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(minorUnits(amount)),
		Currency: stripe.String(strings.ToLower(currency)),
		PaymentMethodTypes: stripe.StringSlice([]string{
			"card",
		}),
		Description: stripe.String(fmt.Sprintf("Safisaana checkout %s", apiRef)),
	}
	params.AddMetadata("api_ref", apiRef)
	if email != "" {
		params.ReceiptEmail = stripe.String(email)
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		return "", nil, fmt.Errorf("stripe payment intent failed: %w", err)
	}

	config := map[string]interface{}{
		"payment_method":    "CARD",
		"payment_intent_id": intent.ID,
		"client_secret":     intent.ClientSecret,
		"api_ref":           apiRef,
	}

	return intent.ID, config, nil
}
