package credits

import (
	"context"
	"fmt"

	"github.com/lendiq/riskcore/internal/logging"
	"github.com/lendiq/riskcore/internal/metrics"
)

// Ledger provides credit balance business logic on top of a Store.
type Ledger struct {
	store Store
}

// NewLedger creates a new credit ledger.
func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// Balance returns the current credit balance.
func (l *Ledger) Balance(ctx context.Context) (int, error) {
	return l.store.Balance(ctx)
}

// Add credits n credits to the balance and returns the new balance.
func (l *Ledger) Add(ctx context.Context, n int) (int, error) {
	if n <= 0 {
		return 0, ErrInvalidAmount
	}

	bal, err := l.store.Add(ctx, n)
	if err != nil {
		return 0, fmt.Errorf("add credits: %w", err)
	}

	metrics.CreditsToppedUpTotal.Add(float64(n))
	logging.L(ctx).Info("credits added", "amount", n, "balance", bal)
	return bal, nil
}

// ConsumeOne atomically spends a single credit. Returns false without
// mutation when the balance is zero.
func (l *Ledger) ConsumeOne(ctx context.Context) (bool, error) {
	ok, err := l.store.ConsumeOne(ctx)
	if err != nil {
		return false, fmt.Errorf("consume credit: %w", err)
	}
	if ok {
		metrics.CreditsConsumedTotal.Inc()
	}
	return ok, nil
}
