package credits

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrUnknownPack       = errors.New("unknown credit pack")
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrPaymentIncomplete = errors.New("payment has not succeeded")
	ErrAlreadyCredited   = errors.New("payment already credited")
)

// Pack is a purchasable bundle of report credits.
type Pack struct {
	Name     string `json:"name"`
	Credits  int    `json:"credits"`
	PriceUSD int64  `json:"priceUsdCents"`
}

// Packs available for paid top-up.
var packs = map[string]Pack{
	"starter": {Name: "starter", Credits: 5, PriceUSD: 4900},
	"team":    {Name: "team", Credits: 20, PriceUSD: 14900},
	"desk":    {Name: "desk", Credits: 100, PriceUSD: 59900},
}

// ListPacks returns the available credit packs, sorted by size.
func ListPacks() []Pack {
	out := make([]Pack, 0, len(packs))
	for _, p := range packs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Credits < out[j].Credits })
	return out
}

// Payment is the provider-side state of a paid top-up.
type Payment struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret,omitempty"`
	Pack         string `json:"pack"`
	Succeeded    bool   `json:"succeeded"`
}

// PaymentProvider starts and verifies payments for credit packs.
// The production implementation is Stripe; tests inject a fake.
type PaymentProvider interface {
	CreatePayment(ctx context.Context, pack Pack) (*Payment, error)
	GetPayment(ctx context.Context, id string) (*Payment, error)
}

// TopUpService sells credit packs through a payment provider and credits
// the ledger once a payment succeeds. Each payment is credited at most once.
type TopUpService struct {
	ledger   *Ledger
	provider PaymentProvider

	mu       sync.Mutex
	credited map[string]bool // payment ID → credited
}

// NewTopUpService creates a top-up service.
func NewTopUpService(ledger *Ledger, provider PaymentProvider) *TopUpService {
	return &TopUpService{
		ledger:   ledger,
		provider: provider,
		credited: make(map[string]bool),
	}
}

// Checkout starts a payment for the named pack and returns the provider
// payment for the client to complete.
func (t *TopUpService) Checkout(ctx context.Context, packName string) (*Payment, error) {
	pack, ok := packs[packName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPack, packName)
	}
	payment, err := t.provider.CreatePayment(ctx, pack)
	if err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	return payment, nil
}

// Confirm verifies that the payment succeeded and credits the pack's
// credits to the ledger. Confirming the same payment twice returns
// ErrAlreadyCredited without adding credits again.
func (t *TopUpService) Confirm(ctx context.Context, paymentID string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.credited[paymentID] {
		return 0, ErrAlreadyCredited
	}

	payment, err := t.provider.GetPayment(ctx, paymentID)
	if err != nil {
		return 0, fmt.Errorf("verify payment: %w", err)
	}
	if !payment.Succeeded {
		return 0, ErrPaymentIncomplete
	}

	pack, ok := packs[payment.Pack]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownPack, payment.Pack)
	}

	bal, err := t.ledger.Add(ctx, pack.Credits)
	if err != nil {
		return 0, err
	}
	t.credited[paymentID] = true
	return bal, nil
}
