package planner

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the calendar date layout used on the wire and in storage.
const DateFormat = "2006-01-02"

// ErrNotNumeric is returned when a form value cannot be read as a finite number.
var ErrNotNumeric = errors.New("not a valid number")

// ErrNotWholeNumber is returned when a form value is numeric but has a fraction.
var ErrNotWholeNumber = errors.New("not a whole number")

// ParseNumeric reads a raw form value as a finite float. Blank input yields def.
func ParseNumeric(value string, def float64) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q", ErrNotNumeric, value)
	}
	return f, nil
}

// ParseWholeNumber reads a raw form value as an integer. Blank input yields def,
// "3.0" is accepted as 3.
func ParseWholeNumber(value string, def int) (int, error) {
	f, err := ParseNumeric(value, float64(def))
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %q", ErrNotWholeNumber, value)
	}
	return int(f), nil
}

// ParseAmount reads a monetary amount. Blank input yields nil with no error so that
// the validator can report it as missing rather than malformed.
func ParseAmount(value string) (*decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrNotNumeric, value)
	}
	return &d, nil
}

// ParseDate reads a YYYY-MM-DD date, or an RFC3339 timestamp, as a UTC calendar day.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	t, err := time.Parse(DateFormat, value)
	if err != nil {
		t, err = time.Parse(time.RFC3339, value)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse date: %w", err)
		}
	}
	return DateOnly(t), nil
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
