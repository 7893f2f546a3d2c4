package trades

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/folio/internal/database"
	"github.com/cleared-dev/folio/internal/model"
)

// FileName is the trade history inside the data directory.
const FileName = "trades.csv"

// Log is the append-only trade history. Records are never edited or deleted.
type Log interface {
	Read(ctx context.Context) ([]model.TradeRecord, error)
	Append(ctx context.Context, r model.TradeRecord) error
}

// CSVLog appends to <dir>/trades.csv.
type CSVLog struct {
	dir string
}

// NewCSVLog creates a CSVLog rooted at dir.
func NewCSVLog(dir string) *CSVLog {
	return &CSVLog{dir: dir}
}

// Path returns the history file path.
func (l *CSVLog) Path() string {
	return filepath.Join(l.dir, FileName)
}

// Read returns every record. A missing file is an empty history.
func (l *CSVLog) Read(_ context.Context) ([]model.TradeRecord, error) {
	f, err := os.Open(l.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening trade history: %w", err)
	}
	defer f.Close()

	return ReadRecords(f)
}

// Append writes r, creating the file and header if needed.
func (l *CSVLog) Append(_ context.Context, r model.TradeRecord) error {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	needsHeader := false
	info, err := os.Stat(l.Path())
	switch {
	case errors.Is(err, fs.ErrNotExist):
		needsHeader = true
	case err != nil:
		return fmt.Errorf("checking trade history: %w", err)
	case info.Size() == 0:
		needsHeader = true
	}

	f, err := os.OpenFile(l.Path(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening trade history: %w", err)
	}
	defer f.Close()

	if needsHeader {
		cw := csv.NewWriter(f)
		if err := cw.Write(headerRow()); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	if err := AppendRecords(f, []model.TradeRecord{r}); err != nil {
		return fmt.Errorf("appending trade: %w", err)
	}
	return f.Sync()
}

// SQLiteLog appends to the trades table.
type SQLiteLog struct {
	db *database.DB
}

// NewSQLiteLog creates a SQLiteLog over an open database.
func NewSQLiteLog(db *database.DB) *SQLiteLog {
	return &SQLiteLog{db: db}
}

// Read returns every record in insertion order.
func (l *SQLiteLog) Read(ctx context.Context) ([]model.TradeRecord, error) {
	rows, err := l.db.Conn().QueryContext(ctx,
		`SELECT date, ticker, side, unit_price, quantity, total FROM trades ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying trades: %w", err)
	}
	defer rows.Close()

	var out []model.TradeRecord
	for rows.Next() {
		rec := make([]string, numFields)
		if err := rows.Scan(&rec[colDate], &rec[colTicker], &rec[colSide], &rec[colUnitPrice], &rec[colQty], &rec[colTotal]); err != nil {
			return nil, fmt.Errorf("scanning trade: %w", err)
		}
		tr, err := UnmarshalRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("trade %v: %w", rec, err)
		}
		out = append(out, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating trades: %w", err)
	}
	return out, nil
}

// Append inserts r.
func (l *SQLiteLog) Append(ctx context.Context, r model.TradeRecord) error {
	row := MarshalRecord(r)
	_, err := l.db.Conn().ExecContext(ctx,
		`INSERT INTO trades (date, ticker, side, unit_price, quantity, total) VALUES (?, ?, ?, ?, ?, ?)`,
		row[colDate], row[colTicker], row[colSide], row[colUnitPrice], row[colQty], row[colTotal])
	if err != nil {
		return fmt.Errorf("inserting trade: %w", err)
	}
	return nil
}

var (
	_ Log = (*CSVLog)(nil)
	_ Log = (*SQLiteLog)(nil)
)

// Totals sums bought and sold cash over a history.
func Totals(records []model.TradeRecord) (bought, sold decimal.Decimal) {
	for _, r := range records {
		switch r.Side {
		case model.SideBuy:
			bought = bought.Add(r.Total)
		case model.SideSell:
			sold = sold.Add(r.Total)
		}
	}
	return bought, sold
}
