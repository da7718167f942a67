package reports

import (
	"fmt"
	"testing"
	"time"
)

func historyOf(n int) []*PurchasedReport {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	recs := make([]*PurchasedReport, n)
	for i := 0; i < n; i++ {
		recs[i] = &PurchasedReport{
			ID:            fmt.Sprintf("rec-%03d", i),
			TransactionID: fmt.Sprintf("tx-%d", i),
			RiskMapType:   "general",
			PurchaseDate:  base.Add(time.Duration(i) * time.Hour),
			ExpiryDate:    base.Add(time.Duration(i)*time.Hour + EntitlementTTL),
		}
	}
	return recs
}

func TestPaginateWalksFullHistory(t *testing.T) {
	recs := historyOf(25)

	var collected []*PurchasedReport
	cursor := ""
	pages := 0
	for {
		c, err := DecodeCursor(cursor)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		page := paginate(recs, c, 10)
		collected = append(collected, page.Records...)
		pages++
		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}

	if pages != 3 {
		t.Errorf("expected 3 pages, got %d", pages)
	}
	if len(collected) != 25 {
		t.Fatalf("expected 25 records total, got %d", len(collected))
	}
	for i, rec := range collected {
		if rec.ID != fmt.Sprintf("rec-%03d", i) {
			t.Fatalf("records out of order at %d: %s", i, rec.ID)
		}
	}
}

func TestPaginateSinglePage(t *testing.T) {
	page := paginate(historyOf(5), nil, 10)
	if len(page.Records) != 5 {
		t.Errorf("expected all 5 records, got %d", len(page.Records))
	}
	if page.HasMore || page.NextCursor != "" {
		t.Errorf("single page should not report more: %+v", page)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	rec := historyOf(1)[0]
	c, err := DecodeCursor(EncodeCursor(rec))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.PurchaseDate.Equal(rec.PurchaseDate) || c.ID != rec.ID {
		t.Errorf("cursor round trip mismatch: %+v", c)
	}
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	if _, err := DecodeCursor("not-base64!"); err == nil {
		t.Error("garbage cursor should be rejected")
	}
	if c, err := DecodeCursor(""); err != nil || c != nil {
		t.Errorf("empty cursor should decode to nil, got %v %v", c, err)
	}
}
