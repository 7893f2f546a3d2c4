package holdings

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/folio/internal/model"
)

// Header is the CSV header for holdings.csv.
const Header = "ticker,quantity,target_weight_percent"

// ErrMissingColumn is returned when holdings.csv does not carry the expected columns.
var ErrMissingColumn = errors.New("missing expected column")

const (
	numFields = 3
	colTicker = 0
	colQty    = 1
	colTarget = 2
)

// ReadHoldings reads holdings.csv. Rows with a blank ticker are skipped.
func ReadHoldings(r io.Reader) ([]model.Holding, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading holdings CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}
	if err := checkHeader(records[0]); err != nil {
		return nil, err
	}

	var holdings []model.Holding
	for i, rec := range records[1:] {
		if len(rec) == 0 || strings.TrimSpace(rec[colTicker]) == "" {
			continue
		}
		h, err := UnmarshalHolding(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		holdings = append(holdings, h)
	}
	return holdings, nil
}

// WriteHoldings writes holdings.csv.
func WriteHoldings(w io.Writer, holdings []model.Holding) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, h := range holdings {
		if err := cw.Write(MarshalHolding(h)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalHolding converts a Holding to a CSV row.
func MarshalHolding(h model.Holding) []string {
	row := make([]string, numFields)
	row[colTicker] = h.Ticker
	row[colQty] = h.Quantity.String()
	row[colTarget] = h.TargetWeightPercent.String()
	return row
}

// UnmarshalHolding converts a CSV row to a Holding. Blank numbers read as
// zero and a negative quantity is clamped to zero so a half-edited grid
// still loads.
func UnmarshalHolding(record []string) (model.Holding, error) {
	if len(record) != numFields {
		return model.Holding{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	qty, err := parseDecimal(record[colQty])
	if err != nil {
		return model.Holding{}, fmt.Errorf("parsing quantity %q: %w", record[colQty], err)
	}
	if qty.IsNegative() {
		qty = decimal.Zero
	}

	target, err := parseDecimal(record[colTarget])
	if err != nil {
		return model.Holding{}, fmt.Errorf("parsing target_weight_percent %q: %w", record[colTarget], err)
	}

	return model.Holding{
		Ticker:              model.NormalizeTicker(record[colTicker]),
		Quantity:            qty,
		TargetWeightPercent: target,
	}, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func checkHeader(rec []string) error {
	want := strings.Split(Header, ",")
	if len(rec) != len(want) {
		return fmt.Errorf("header has %d columns, want %q: %w", len(rec), Header, ErrMissingColumn)
	}
	for i, name := range want {
		if strings.TrimSpace(strings.ToLower(rec[i])) != name {
			return fmt.Errorf("column %d is %q, want %q: %w", i+1, rec[i], name, ErrMissingColumn)
		}
	}
	return nil
}
