package reports

import (
	"context"
	"testing"
	"time"

	"github.com/lendiq/riskcore/internal/testutil"
)

func TestPostgresStore_AppendAndList(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPostgresStore(db)

	now := time.Now().UTC().Truncate(time.Millisecond)
	recs := []*PurchasedReport{
		{
			ID:            "rec-1",
			TransactionID: "tx-1",
			RiskMapType:   "general",
			PurchaseDate:  now.Add(-time.Hour),
			ExpiryDate:    now.Add(29 * 24 * time.Hour),
		},
		{
			ID:            "rec-2",
			TransactionID: "tx-2",
			RiskMapType:   "equipment",
			PurchaseDate:  now,
			ExpiryDate:    now.Add(30 * 24 * time.Hour),
		},
	}
	for _, rec := range recs {
		if err := store.Append(ctx, rec); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	got, err := store.List(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	// Ordered by purchase date ascending.
	if got[0].ID != "rec-1" || got[1].ID != "rec-2" {
		t.Errorf("records out of order: %s, %s", got[0].ID, got[1].ID)
	}
	if got[1].TransactionID != "tx-2" || got[1].RiskMapType != "equipment" {
		t.Errorf("round trip mismatch: %+v", got[1])
	}
}

func TestPostgresStore_EntitlementFlow(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	ctx := context.Background()
	svc := NewService(NewPostgresStore(db))

	if _, err := svc.AddPurchase(ctx, "tx-9", "realestate"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	owned, err := svc.IsPurchased(ctx, "tx-9", "realestate")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !owned {
		t.Error("purchase should grant entitlement")
	}

	owned, _ = svc.IsPurchased(ctx, "tx-9", "general")
	if owned {
		t.Error("entitlement must be per map type")
	}
}
