package credits

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
)

// Compile-time check that StripeProvider implements PaymentProvider.
var _ PaymentProvider = (*StripeProvider)(nil)

// StripeProvider implements PaymentProvider using Stripe PaymentIntents.
type StripeProvider struct{}

// NewStripeProvider configures the Stripe client with the given secret key.
func NewStripeProvider(apiKey string) *StripeProvider {
	stripe.Key = apiKey
	return &StripeProvider{}
}

func (s *StripeProvider) CreatePayment(ctx context.Context, pack Pack) (*Payment, error) {
	params := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(pack.PriceUSD),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
		Metadata: map[string]string{"pack": pack.Name},
	}
	params.AddMetadata("product", "report_credits")

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe payment intent: %w", err)
	}

	return &Payment{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Pack:         pack.Name,
		Succeeded:    pi.Status == stripe.PaymentIntentStatusSucceeded,
	}, nil
}

func (s *StripeProvider) GetPayment(ctx context.Context, id string) (*Payment, error) {
	pi, err := paymentintent.Get(id, &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, fmt.Errorf("stripe payment lookup: %w", err)
	}

	return &Payment{
		ID:        pi.ID,
		Pack:      pi.Metadata["pack"],
		Succeeded: pi.Status == stripe.PaymentIntentStatusSucceeded,
	}, nil
}
