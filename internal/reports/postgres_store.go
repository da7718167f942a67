package reports

import (
	"context"
	"database/sql"
	"fmt"
)

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)

// PostgresStore implements Store backed by PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed purchase store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Append(ctx context.Context, rec *PurchasedReport) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO purchased_reports (
			id, transaction_id, risk_map_type, purchase_date, expiry_date
		) VALUES ($1, $2, $3, $4, $5)
	`, rec.ID, rec.TransactionID, rec.RiskMapType, rec.PurchaseDate, rec.ExpiryDate)
	if err != nil {
		return fmt.Errorf("insert purchase: %w", err)
	}
	return nil
}

func (p *PostgresStore) List(ctx context.Context) ([]*PurchasedReport, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, transaction_id, risk_map_type, purchase_date, expiry_date
		FROM purchased_reports
		ORDER BY purchase_date ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	var recs []*PurchasedReport
	for rows.Next() {
		rec := &PurchasedReport{}
		if err := rows.Scan(
			&rec.ID, &rec.TransactionID, &rec.RiskMapType,
			&rec.PurchaseDate, &rec.ExpiryDate,
		); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	return recs, nil
}
