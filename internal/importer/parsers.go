package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/folio/internal/model"
	"github.com/cleared-dev/folio/internal/trades"
)

// FolioParser reads files in folio's own trades.csv layout, e.g. a history
// exported from another project.
type FolioParser struct{}

// Format returns the parser name.
func (p *FolioParser) Format() string { return "folio" }

// Parse reads a trades.csv file.
func (p *FolioParser) Parse(r io.Reader) (Result, error) {
	recs, err := trades.ReadRecords(r)
	if err != nil {
		return Result{}, err
	}
	return Result{Trades: recs}, nil
}

// GenericParser reads broker exports by header name. Column order does not
// matter and common aliases are accepted.
type GenericParser struct{}

var columnAliases = map[string][]string{
	"date":     {"date", "trade date", "trade_date", "transaction_time", "executed at"},
	"ticker":   {"ticker", "symbol"},
	"side":     {"side", "action", "type", "transaction type"},
	"quantity": {"quantity", "qty", "shares"},
	"price":    {"price", "unit_price", "unit price", "fill price"},
}

var dateLayouts = []string{"2006-01-02", "01/02/2006", time.RFC3339, "2006-01-02 15:04:05"}

// Format returns the parser name.
func (p *GenericParser) Format() string { return "generic" }

// Parse reads a broker CSV. Rows whose side is not a buy or sell are
// skipped and reported.
func (p *GenericParser) Parse(r io.Reader) (Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return Result{}, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) <= 1 {
		return Result{}, nil
	}

	cols, err := mapColumns(records[0])
	if err != nil {
		return Result{}, err
	}

	var res Result
	for i, rec := range records[1:] {
		row := i + 2
		if blankRow(rec) {
			continue
		}
		side, ok := parseSide(field(rec, cols["side"]))
		if !ok {
			res.Skipped = append(res.Skipped, fmt.Sprintf("row %d: %q", row, field(rec, cols["side"])))
			continue
		}
		t, err := parseRow(rec, cols, side)
		if err != nil {
			return Result{}, fmt.Errorf("row %d: %w", row, err)
		}
		res.Trades = append(res.Trades, t)
	}
	return res, nil
}

func mapColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(columnAliases))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		for col, aliases := range columnAliases {
			if _, done := cols[col]; done {
				continue
			}
			for _, a := range aliases {
				if name == a {
					cols[col] = i
				}
			}
		}
	}
	var missing []string
	for _, col := range []string{"date", "ticker", "side", "quantity", "price"} {
		if _, ok := cols[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("header lacks %s columns", strings.Join(missing, ", "))
	}
	return cols, nil
}

func parseRow(rec []string, cols map[string]int, side model.Side) (model.TradeRecord, error) {
	raw := field(rec, cols["date"])
	var date time.Time
	var err error
	for _, layout := range dateLayouts {
		if date, err = time.Parse(layout, raw); err == nil {
			break
		}
	}
	if err != nil {
		return model.TradeRecord{}, fmt.Errorf("parsing date %q", raw)
	}

	qty, err := parseAmount(field(rec, cols["quantity"]))
	if err != nil {
		return model.TradeRecord{}, fmt.Errorf("parsing quantity %q: %w", field(rec, cols["quantity"]), err)
	}
	price, err := parseAmount(field(rec, cols["price"]))
	if err != nil {
		return model.TradeRecord{}, fmt.Errorf("parsing price %q: %w", field(rec, cols["price"]), err)
	}

	// Some brokers sign sell quantities.
	return trades.NewRecord(date, field(rec, cols["ticker"]), side, price, qty.Abs()), nil
}

func parseSide(s string) (model.Side, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy", "bought", "b":
		return model.SideBuy, true
	case "sell", "sold", "s":
		return model.SideSell, true
	}
	return "", false
}

// parseAmount accepts "$1,234.50" style values.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(s))
	return decimal.NewFromString(s)
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func blankRow(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
