package reports

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultPageSize bounds purchase history pages when no limit is given.
const DefaultPageSize = 50

// Cursor marks a position in the purchase history, keyed by purchase
// date plus record ID to break ties.
type Cursor struct {
	PurchaseDate time.Time
	ID           string
}

// EncodeCursor returns an opaque cursor string for a purchase record.
func EncodeCursor(rec *PurchasedReport) string {
	raw := fmt.Sprintf("%d|%s", rec.PurchaseDate.UnixNano(), rec.ID)
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses an opaque cursor string. Returns nil for empty input.
func DecodeCursor(s string) (*Cursor, error) {
	if s == "" {
		return nil, nil
	}
	raw, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor")
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid cursor")
	}
	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor")
	}
	return &Cursor{
		PurchaseDate: time.Unix(0, nanos).UTC(),
		ID:           parts[1],
	}, nil
}

// Page is one page of purchase history.
type Page struct {
	Records    []*PurchasedReport `json:"purchases"`
	NextCursor string             `json:"nextCursor,omitempty"`
	HasMore    bool               `json:"hasMore"`
}

// paginate slices recs (assumed ordered by purchase date ascending) into
// the page after the cursor.
func paginate(recs []*PurchasedReport, cursor *Cursor, limit int) *Page {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	start := 0
	if cursor != nil {
		for i, rec := range recs {
			if rec.PurchaseDate.After(cursor.PurchaseDate) ||
				(rec.PurchaseDate.Equal(cursor.PurchaseDate) && rec.ID > cursor.ID) {
				start = i
				break
			}
			start = len(recs)
		}
	}

	rest := recs[start:]
	if len(rest) <= limit {
		return &Page{Records: rest}
	}
	page := rest[:limit]
	return &Page{
		Records:    page,
		NextCursor: EncodeCursor(page[len(page)-1]),
		HasMore:    true,
	}
}
