package credits

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lendiq/riskcore/internal/kv"
)

// fakeProvider is an in-memory PaymentProvider for tests.
type fakeProvider struct {
	payments map[string]*Payment
	next     int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{payments: make(map[string]*Payment)}
}

func (f *fakeProvider) CreatePayment(ctx context.Context, pack Pack) (*Payment, error) {
	f.next++
	p := &Payment{
		ID:           fmt.Sprintf("pay_%d", f.next),
		ClientSecret: fmt.Sprintf("secret_%d", f.next),
		Pack:         pack.Name,
	}
	f.payments[p.ID] = p
	return p, nil
}

func (f *fakeProvider) GetPayment(ctx context.Context, id string) (*Payment, error) {
	p, ok := f.payments[id]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	return p, nil
}

func (f *fakeProvider) succeed(id string) {
	f.payments[id].Succeeded = true
}

func TestCheckoutAndConfirm(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(NewKVStore(kv.NewMemory()))
	provider := newFakeProvider()
	svc := NewTopUpService(ledger, provider)

	payment, err := svc.Checkout(ctx, "team")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payment.ClientSecret == "" {
		t.Error("checkout should return a client secret")
	}

	provider.succeed(payment.ID)

	bal, err := svc.Confirm(ctx, payment.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bal != 20 {
		t.Errorf("team pack should credit 20, balance got %d", bal)
	}
}

func TestConfirmIsAtMostOnce(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(NewKVStore(kv.NewMemory()))
	provider := newFakeProvider()
	svc := NewTopUpService(ledger, provider)

	payment, _ := svc.Checkout(ctx, "starter")
	provider.succeed(payment.ID)

	if _, err := svc.Confirm(ctx, payment.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Confirm(ctx, payment.ID); !errors.Is(err, ErrAlreadyCredited) {
		t.Errorf("second confirm should return ErrAlreadyCredited, got %v", err)
	}

	bal, _ := ledger.Balance(ctx)
	if bal != 5 {
		t.Errorf("double confirm must not double credit, balance %d", bal)
	}
}

func TestConfirmRejectsIncompletePayment(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(NewKVStore(kv.NewMemory()))
	provider := newFakeProvider()
	svc := NewTopUpService(ledger, provider)

	payment, _ := svc.Checkout(ctx, "starter")

	if _, err := svc.Confirm(ctx, payment.ID); !errors.Is(err, ErrPaymentIncomplete) {
		t.Errorf("expected ErrPaymentIncomplete, got %v", err)
	}
	bal, _ := ledger.Balance(ctx)
	if bal != 0 {
		t.Errorf("incomplete payment must not credit, balance %d", bal)
	}
}

func TestCheckoutUnknownPack(t *testing.T) {
	svc := NewTopUpService(NewLedger(NewKVStore(kv.NewMemory())), newFakeProvider())
	if _, err := svc.Checkout(context.Background(), "mega"); !errors.Is(err, ErrUnknownPack) {
		t.Errorf("expected ErrUnknownPack, got %v", err)
	}
}

func TestListPacksSorted(t *testing.T) {
	out := ListPacks()
	if len(out) != 3 {
		t.Fatalf("expected 3 packs, got %d", len(out))
	}
	for i := 1; i < len(out); i++ {
		if out[i].Credits < out[i-1].Credits {
			t.Errorf("packs should be sorted by size: %v", out)
		}
	}
}
