package trades

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/folio/internal/model"
)

// Header is the CSV header for trades.csv.
const Header = "date,ticker,side,unit_price,quantity,total"

const (
	numFields    = 6
	dateFormat   = "2006-01-02"
	colDate      = 0
	colTicker    = 1
	colSide      = 2
	colUnitPrice = 3
	colQty       = 4
	colTotal     = 5
)

// ErrMissingColumn is returned when trades.csv does not start with Header.
var ErrMissingColumn = errors.New("missing expected column")

// MarshalRecord converts a TradeRecord to a CSV row.
func MarshalRecord(r model.TradeRecord) []string {
	row := make([]string, numFields)
	row[colDate] = r.Date.Format(dateFormat)
	row[colTicker] = r.Ticker
	row[colSide] = string(r.Side)
	row[colUnitPrice] = r.UnitPrice.String()
	row[colQty] = r.Quantity.String()
	row[colTotal] = r.Total.String()
	return row
}

// UnmarshalRecord converts a CSV row to a TradeRecord.
func UnmarshalRecord(record []string) (model.TradeRecord, error) {
	if len(record) != numFields {
		return model.TradeRecord{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := time.Parse(dateFormat, record[colDate])
	if err != nil {
		return model.TradeRecord{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	nums := make([]decimal.Decimal, 3)
	for i, col := range []int{colUnitPrice, colQty, colTotal} {
		nums[i], err = decimal.NewFromString(record[col])
		if err != nil {
			return model.TradeRecord{}, fmt.Errorf("parsing column %d %q: %w", col+1, record[col], err)
		}
	}

	return model.TradeRecord{
		Date:      date,
		Ticker:    record[colTicker],
		Side:      model.Side(record[colSide]),
		UnitPrice: nums[0],
		Quantity:  nums[1],
		Total:     nums[2],
	}, nil
}

// ReadRecords reads a trades.csv stream including its header.
func ReadRecords(r io.Reader) ([]model.TradeRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading trades CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}
	if err := checkHeader(records[0]); err != nil {
		return nil, err
	}

	var out []model.TradeRecord
	for i, rec := range records[1:] {
		tr, err := UnmarshalRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, tr)
	}
	return out, nil
}

// AppendRecords writes rows without a header.
func AppendRecords(w io.Writer, records []model.TradeRecord) error {
	cw := csv.NewWriter(w)
	for i, r := range records {
		if err := cw.Write(MarshalRecord(r)); err != nil {
			return fmt.Errorf("writing trade %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func headerRow() []string {
	return strings.Split(Header, ",")
}

func checkHeader(rec []string) error {
	for i, name := range headerRow() {
		if strings.TrimSpace(strings.ToLower(rec[i])) != name {
			return fmt.Errorf("column %d is %q, want %q: %w", i+1, rec[i], name, ErrMissingColumn)
		}
	}
	return nil
}
