package reconcile

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrEmptyFile is returned for a sheet without data rows.
var ErrEmptyFile = errors.New("The file is empty or could not be read. Nothing to import.")

// ValidationError reports the first offending row of an import. Row is the
// 1-based sheet row, counting the header.
type ValidationError struct {
	Row     int
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Validation Error on row %d: %s", e.Row, e.Message)
}

// Validate checks the whole file before anything is classified and stops at
// the first problem.
func Validate(rows []Row) error {
	if len(rows) == 0 {
		return ErrEmptyFile
	}
	for i, row := range rows {
		line := i + 2

		name := row.Get(ColSupplierName)
		if name == "" {
			return &ValidationError{Row: line, Message: fmt.Sprintf("'%s' cannot be empty.", ColSupplierName)}
		}
		// a numeric name usually means shifted columns
		if looksNumeric(name) {
			return &ValidationError{Row: line, Message: fmt.Sprintf("'%s' cannot be a number.", ColSupplierName)}
		}

		if price, ok := parseNumber(row.Get(ColProductPrice)); ok && price < 0 {
			return &ValidationError{Row: line, Message: fmt.Sprintf("'%s' cannot be negative.", ColProductPrice)}
		}

		title := row.Get(ColProductTitle)
		if title == "" {
			continue
		}
		if looksNumeric(title) {
			return &ValidationError{Row: line, Message: fmt.Sprintf("'%s' cannot be a number.", ColProductTitle)}
		}
		if row.Get(ColAmazonCode) == "" {
			return &ValidationError{Row: line, Message: fmt.Sprintf("'%s' is required when '%s' is set.", ColAmazonCode, ColProductTitle)}
		}
	}
	return nil
}

func looksNumeric(v string) bool {
	_, ok := parseNumber(v)
	return ok
}

// parseNumber reads a plain decimal, optionally with an exponent. NaN, Inf
// and hex floats are text; values too large for a float64 fail.
func parseNumber(v string) (float64, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
