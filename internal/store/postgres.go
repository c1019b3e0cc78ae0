package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ayush/fundraiser/backend/internal/models"
)

// PostgresLedger records completed sales in PostgreSQL for reporting.
type PostgresLedger struct {
	pool *pgxpool.Pool
}

func NewPostgresLedger(pool *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{pool: pool}
}

// Migrate creates the sales table if it doesn't exist.
func (s *PostgresLedger) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sales (
			id         BIGSERIAL PRIMARY KEY,
			account_id CHAR(24)       NOT NULL,
			item_id    CHAR(24)       NOT NULL,
			item_name  VARCHAR(255)   NOT NULL,
			amount     NUMERIC(12, 2) NOT NULL CHECK (amount >= 0),
			sold_at    TIMESTAMPTZ    DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS sales_account_idx ON sales (account_id, sold_at DESC);
	`)
	return err
}

func (s *PostgresLedger) Record(ctx context.Context, sale *models.Sale) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO sales (account_id, item_id, item_name, amount)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, sold_at`,
		sale.AccountID, sale.ItemID, sale.ItemName, sale.Amount,
	).Scan(&sale.ID, &sale.SoldAt)
	if err != nil {
		return fmt.Errorf("record sale: %w", err)
	}
	return nil
}

func (s *PostgresLedger) ListByAccount(ctx context.Context, accountID string) ([]models.Sale, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, account_id, item_id, item_name, amount::float8, sold_at
		 FROM sales WHERE account_id = $1 ORDER BY sold_at DESC`, accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	sales := []models.Sale{}
	for rows.Next() {
		var sale models.Sale
		if err := rows.Scan(&sale.ID, &sale.AccountID, &sale.ItemID, &sale.ItemName, &sale.Amount, &sale.SoldAt); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}
