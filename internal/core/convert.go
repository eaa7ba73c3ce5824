package core

// convert.go turns raw text from CSV cells and API payloads into claim field
// values. Every converter trims surrounding whitespace and reports failures
// as plain errors; callers attach line or field context.

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CSVTimestampLayout is the claim_date layout written by the claims export.
// Go accepts a missing fractional part when parsing with this layout.
const CSVTimestampLayout = "2006-01-02 15:04:05.999999"

// apiTimestampLayouts are tried in order by ParseTimestamp. Layouts without a
// zone are interpreted as UTC.
var apiTimestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	CSVTimestampLayout,
	"2006-01-02",
}

var errEmptyValue = errors.New("value is empty")

// ParseCSVTimestamp parses a claim_date cell using CSVTimestampLayout.
func ParseCSVTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errEmptyValue
	}
	t, err := time.ParseInLocation(CSVTimestampLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: want YYYY-MM-DD HH:MM:SS.ffffff", s)
	}
	return t, nil
}

// ParseTimestamp parses an API timestamp: RFC 3339 with or without fractional
// seconds, the same without a zone, the CSV layout, or a bare date.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errEmptyValue
	}
	for _, layout := range apiTimestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q: want RFC 3339 or YYYY-MM-DD HH:MM:SS", s)
}

// ParseInt parses a base-10 integer cell.
func ParseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errEmptyValue
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return n, nil
}

// ParseMoney parses a fixed-point amount and rounds it to two fractional digits.
func ParseMoney(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, errEmptyValue
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal %q", s)
	}
	return NormalizeMoney(d), nil
}

// ParseFraudFlag is true only for a case-insensitive "true".
func ParseFraudFlag(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}
