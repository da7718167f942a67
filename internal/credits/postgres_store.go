package credits

import (
	"context"
	"database/sql"
	"fmt"
)

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)

// PostgresStore implements Store backed by PostgreSQL. The balance lives in
// a single row; ConsumeOne decrements with a guarded UPDATE so concurrent
// purchases cannot drive the balance negative.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed credit store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Balance(ctx context.Context) (int, error) {
	var bal int
	err := p.db.QueryRowContext(ctx, `
		SELECT balance FROM credit_balance WHERE id = 1
	`).Scan(&bal)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read credit balance: %w", err)
	}
	return bal, nil
}

func (p *PostgresStore) Add(ctx context.Context, n int) (int, error) {
	if n <= 0 {
		return 0, ErrInvalidAmount
	}

	var bal int
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO credit_balance (id, balance) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET
			balance = credit_balance.balance + EXCLUDED.balance,
			updated_at = NOW()
		RETURNING balance
	`, n).Scan(&bal)
	if err != nil {
		return 0, fmt.Errorf("add credits: %w", err)
	}
	return bal, nil
}

func (p *PostgresStore) ConsumeOne(ctx context.Context) (bool, error) {
	res, err := p.db.ExecContext(ctx, `
		UPDATE credit_balance
		SET balance = balance - 1, updated_at = NOW()
		WHERE id = 1 AND balance > 0
	`)
	if err != nil {
		return false, fmt.Errorf("consume credit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("consume credit: %w", err)
	}
	return n == 1, nil
}
