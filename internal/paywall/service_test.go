package paywall

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lendiq/riskcore/internal/credits"
	"github.com/lendiq/riskcore/internal/kv"
	"github.com/lendiq/riskcore/internal/reports"
	"github.com/lendiq/riskcore/internal/riskdata"
)

// fakeRiskProvider returns canned risk data, counting calls.
type fakeRiskProvider struct {
	calls atomic.Int64
	err   error
}

func (f *fakeRiskProvider) Fetch(ctx context.Context, typ riskdata.MapType, force bool) (*riskdata.RiskData, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &riskdata.RiskData{Type: typ, OverallRisk: 35, GeneratedAt: time.Now()}, nil
}

// fakeReportAPI returns a canned collaborator report, counting calls.
type fakeReportAPI struct {
	calls atomic.Int64
	err   error
}

func (f *fakeReportAPI) FetchFullReport(ctx context.Context, transactionID, riskMapType string) (*ReportDetails, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &ReportDetails{
		TransactionID: transactionID,
		RiskMapType:   riskMapType,
		Narrative:     "stable outlook",
		PreparedAt:    time.Now(),
	}, nil
}

type capturedEvent struct {
	event   string
	payload any
}

// fakePublisher records published events.
type fakePublisher struct {
	events []capturedEvent
}

func (f *fakePublisher) Publish(event string, payload any) {
	f.events = append(f.events, capturedEvent{event, payload})
}

func newTestService(startCredits int) (*Service, *credits.Ledger) {
	ledger := credits.NewLedger(credits.NewKVStore(kv.NewMemory()))
	if startCredits > 0 {
		_, _ = ledger.Add(context.Background(), startCredits)
	}
	entitlements := reports.NewService(reports.NewKVStore(kv.NewMemory()))
	svc := NewService(ledger, entitlements, &fakeRiskProvider{}, &fakeReportAPI{})
	return svc, ledger
}

func TestPurchaseConsumesOneCredit(t *testing.T) {
	ctx := context.Background()
	svc, ledger := newTestService(3)

	res, err := svc.PurchaseReport(ctx, "tx-1", "general")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Purchased || res.AlreadyOwned {
		t.Errorf("first purchase should be a fresh unlock: %+v", res)
	}
	if res.CreditsLeft != 2 {
		t.Errorf("credits left should be 2, got %d", res.CreditsLeft)
	}
	if res.Record == nil || res.Record.TransactionID != "tx-1" {
		t.Errorf("purchase should return the entitlement record: %+v", res.Record)
	}

	bal, _ := ledger.Balance(ctx)
	if bal != 2 {
		t.Errorf("ledger balance should be 2, got %d", bal)
	}
}

func TestRepeatPurchaseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, ledger := newTestService(3)

	if _, err := svc.PurchaseReport(ctx, "tx-1", "general"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := svc.PurchaseReport(ctx, "tx-1", "general")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.AlreadyOwned {
		t.Error("repeat purchase should report already owned")
	}

	bal, _ := ledger.Balance(ctx)
	if bal != 2 {
		t.Errorf("repeat purchase must not consume a second credit, balance %d", bal)
	}
}

func TestPurchaseWithZeroCreditsFails(t *testing.T) {
	ctx := context.Background()
	svc, ledger := newTestService(0)

	_, err := svc.PurchaseReport(ctx, "tx-1", "general")
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}

	bal, _ := ledger.Balance(ctx)
	if bal != 0 {
		t.Errorf("failed purchase must not mutate balance, got %d", bal)
	}
}

func TestLastCreditUnlocksReport(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(1)

	res, err := svc.PurchaseReport(ctx, "tx-1", "equipment")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.CreditsLeft != 0 {
		t.Errorf("credits left should be 0, got %d", res.CreditsLeft)
	}

	// The balance is gone, but the entitlement keeps the report open.
	if _, err := svc.PurchaseReport(ctx, "tx-1", "equipment"); err != nil {
		t.Errorf("owned report should stay accessible at zero balance: %v", err)
	}
	// A different pair now fails.
	if _, err := svc.PurchaseReport(ctx, "tx-2", "equipment"); !errors.Is(err, ErrInsufficientCredits) {
		t.Errorf("expected ErrInsufficientCredits for new pair, got %v", err)
	}
}

func TestPurchaseRejectsUnknownMapType(t *testing.T) {
	svc, ledger := newTestService(2)

	_, err := svc.PurchaseReport(context.Background(), "tx-1", "payday")
	if !errors.Is(err, riskdata.ErrUnknownMapType) {
		t.Fatalf("expected ErrUnknownMapType, got %v", err)
	}
	bal, _ := ledger.Balance(context.Background())
	if bal != 2 {
		t.Errorf("invalid input must not consume credits, balance %d", bal)
	}
}

func TestPurchasePublishesEvent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(1)
	pub := &fakePublisher{}
	svc.WithPublisher(pub)

	if _, err := svc.PurchaseReport(ctx, "tx-1", "general"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.events) != 1 || pub.events[0].event != "report_purchased" {
		t.Errorf("purchase should publish report_purchased, got %+v", pub.events)
	}

	// Already-owned purchases do not re-announce.
	if _, err := svc.PurchaseReport(ctx, "tx-1", "general"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.events) != 1 {
		t.Errorf("repeat purchase must not publish again, got %d events", len(pub.events))
	}
}

func TestFullReportMergesBothSources(t *testing.T) {
	ctx := context.Background()
	ledger := credits.NewLedger(credits.NewKVStore(kv.NewMemory()))
	_, _ = ledger.Add(ctx, 1)
	entitlements := reports.NewService(reports.NewKVStore(kv.NewMemory()))
	risk := &fakeRiskProvider{}
	api := &fakeReportAPI{}
	svc := NewService(ledger, entitlements, risk, api)

	full, err := svc.FetchFullRiskReport(ctx, "tx-1", "general")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if full.RiskData == nil || full.Details == nil {
		t.Fatalf("full report should merge both sources: %+v", full)
	}
	if risk.calls.Load() != 1 || api.calls.Load() != 1 {
		t.Errorf("each source should be hit once, risk=%d api=%d", risk.calls.Load(), api.calls.Load())
	}
}

func TestFullReportFailsWholeOnPartialFailure(t *testing.T) {
	ctx := context.Background()
	ledger := credits.NewLedger(credits.NewKVStore(kv.NewMemory()))
	_, _ = ledger.Add(ctx, 1)
	entitlements := reports.NewService(reports.NewKVStore(kv.NewMemory()))
	api := &fakeReportAPI{err: errors.New("collaborator down")}
	svc := NewService(ledger, entitlements, &fakeRiskProvider{}, api)

	if _, err := svc.FetchFullRiskReport(ctx, "tx-1", "general"); err == nil {
		t.Fatal("partial failure should fail the whole report")
	}
}

func TestFullReportRequiresCredits(t *testing.T) {
	svc, _ := newTestService(0)
	_, err := svc.FetchFullRiskReport(context.Background(), "tx-1", "general")
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Errorf("expected ErrInsufficientCredits, got %v", err)
	}
}
