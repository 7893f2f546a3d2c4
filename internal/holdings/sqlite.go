package holdings

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cleared-dev/folio/internal/database"
	"github.com/cleared-dev/folio/internal/model"
)

// SQLiteStore keeps holdings in the holdings table. Row order is kept in
// the position column so the grid reads back the way it was saved.
type SQLiteStore struct {
	db *database.DB
}

// NewSQLiteStore creates a SQLiteStore over an open database.
func NewSQLiteStore(db *database.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Read returns all holdings in saved order.
func (s *SQLiteStore) Read(ctx context.Context) ([]model.Holding, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		`SELECT ticker, quantity, target_weight_percent FROM holdings ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying holdings: %w", err)
	}
	defer rows.Close()

	var hs []model.Holding
	for rows.Next() {
		var ticker, qty, target string
		if err := rows.Scan(&ticker, &qty, &target); err != nil {
			return nil, fmt.Errorf("scanning holding: %w", err)
		}
		h, err := UnmarshalHolding([]string{ticker, qty, target})
		if err != nil {
			return nil, fmt.Errorf("holding %s: %w", ticker, err)
		}
		hs = append(hs, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating holdings: %w", err)
	}
	return hs, nil
}

// Replace deletes every row and inserts the new snapshot in one transaction.
func (s *SQLiteStore) Replace(ctx context.Context, holdings []model.Holding) error {
	return database.WithTransaction(ctx, s.db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM holdings`); err != nil {
			return fmt.Errorf("clearing holdings: %w", err)
		}
		for i, h := range holdings {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO holdings (position, ticker, quantity, target_weight_percent) VALUES (?, ?, ?, ?)`,
				i, h.Ticker, h.Quantity.String(), h.TargetWeightPercent.String())
			if err != nil {
				return fmt.Errorf("inserting holding %s: %w", h.Ticker, err)
			}
		}
		return nil
	})
}

var _ Store = (*SQLiteStore)(nil)
var _ Store = (*CSVStore)(nil)
