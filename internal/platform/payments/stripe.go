package payments

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/transfer"
)

var ErrNotConfigured = errors.New("stripe: no API key configured")

// StripeGateway disburses net pay as Stripe Transfers to connected accounts.
type StripeGateway struct {
	configured bool
}

func NewStripeGateway(apiKey string) *StripeGateway {
	if apiKey != "" {
		stripe.Key = apiKey
	}
	return &StripeGateway{configured: apiKey != ""}
}

func (g *StripeGateway) Transfer(ctx context.Context, amountMinorUnits int64, currency, destination, description, idempotencyKey string) (string, error) {
	if !g.configured {
		return "", ErrNotConfigured
	}
	params := &stripe.TransferParams{
		Params:      stripe.Params{Context: ctx},
		Amount:      stripe.Int64(amountMinorUnits),
		Currency:    stripe.String(currency),
		Destination: stripe.String(destination),
		Description: stripe.String(description),
	}
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}
	t, err := transfer.New(params)
	if err != nil {
		return "", err
	}
	return t.ID, nil
}
