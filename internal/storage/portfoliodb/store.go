package portfoliodb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/betbot/finbot/internal/domain"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// Store 持久化组合价值快照（sqlite），供历史查询与净值曲线使用。
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// modernc sqlite 驱动在并发写时需要单连接
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`
CREATE TABLE IF NOT EXISTS portfolio_values (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  account_id TEXT NOT NULL,
  usd_value TEXT NOT NULL,
  ts TEXT NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_portfolio_values_account_ts ON portfolio_values(account_id, ts DESC);`,
	}

	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate exec failed: %w", err)
		}
	}
	return nil
}

// RecordPortfolioValue appends one valuation snapshot.
func (s *Store) RecordPortfolioValue(ctx context.Context, value domain.PortfolioValue) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO portfolio_values (account_id, usd_value, ts)
VALUES (?,?,?)
`, value.AccountID, value.USDValue.String(), value.Timestamp.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert portfolio value: %w", err)
	}
	return nil
}

// ListValues returns the most recent snapshots for the account, newest first.
func (s *Store) ListValues(ctx context.Context, accountID string, limit int) ([]domain.PortfolioValue, error) {
	if limit <= 0 || limit > 2000 {
		limit = 200
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT account_id, usd_value, ts
FROM portfolio_values
WHERE account_id=?
ORDER BY ts DESC
LIMIT ?
`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PortfolioValue
	for rows.Next() {
		var (
			value domain.PortfolioValue
			usd   string
			ts    string
		)
		if err := rows.Scan(&value.AccountID, &usd, &ts); err != nil {
			return nil, err
		}
		value.USDValue, err = decimal.NewFromString(usd)
		if err != nil {
			return nil, fmt.Errorf("parse stored usd value %q: %w", usd, err)
		}
		value.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, value)
	}
	return out, rows.Err()
}
