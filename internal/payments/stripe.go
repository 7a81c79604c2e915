package payments

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

var ErrNotConfigured = errors.New("payment processor is not configured")

// StripeProcessor creates card payment intents. Only the client secret ever
// leaves this type; the server key stays inside the stripe client.
type StripeProcessor struct {
	api *client.API
}

func NewStripeProcessor(secretKey string) *StripeProcessor {
	if strings.TrimSpace(secretKey) == "" {
		return &StripeProcessor{}
	}

	return &StripeProcessor{api: client.New(secretKey, nil)}
}

// NewStripeProcessorWithBackends points the client at custom backends, such
// as a local stub server.
func NewStripeProcessorWithBackends(secretKey string, backends *stripe.Backends) *StripeProcessor {
	return &StripeProcessor{api: client.New(secretKey, backends)}
}

func (p *StripeProcessor) CreateIntent(ctx context.Context, amountMinor int64, currency string) (string, error) {
	if p.api == nil {
		return "", ErrNotConfigured
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amountMinor),
		Currency:           stripe.String(currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return "", err
	}

	if pi.ClientSecret == "" {
		return "", errors.New("payment intent returned without client secret")
	}

	return pi.ClientSecret, nil
}
