package table

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind discriminates the typed cell union.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindDate
)

// Value is a single typed cell. Exactly one of the payload fields is
// meaningful, selected by Kind.
type Value struct {
	Kind Kind
	Str  string
	Num  decimal.Decimal
	Date time.Time
}

func Null() Value                     { return Value{Kind: KindNull} }
func String(s string) Value          { return Value{Kind: KindString, Str: s} }
func Number(d decimal.Decimal) Value { return Value{Kind: KindNumber, Num: d} }
func DateVal(t time.Time) Value      { return Value{Kind: KindDate, Date: t} }

func (v Value) IsNull() bool { return v.Kind == KindNull }

// AsDate returns the cell as a date, parsing string cells on the fly so
// callers work the same against coerced and raw tables.
func (v Value) AsDate() (time.Time, bool) {
	switch v.Kind {
	case KindDate:
		return v.Date, true
	case KindString:
		parsed, err := ParseDate(v.Str)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	default:
		return time.Time{}, false
	}
}

// AsNumber returns the cell as a decimal, parsing string cells on the fly.
func (v Value) AsNumber() (decimal.Decimal, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindString:
		parsed, err := ParseAmount(v.Str)
		if err != nil {
			return decimal.Zero, false
		}
		return parsed, true
	default:
		return decimal.Zero, false
	}
}

// AsString renders the cell for CSV output.
func (v Value) AsString() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return v.Num.String()
	case KindDate:
		return v.Date.Format("2006-01-02")
	default:
		return ""
	}
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"01-02-2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
}

// ParseDate accepts the date formats seen in the exports this system
// ingests: ISO variants plus the dd/mm/yyyy form used by Brazilian payment
// providers.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errEmptyDate
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, &ParseError{Input: value, Want: "date"}
}

// ParseAmount parses a monetary cell. Both "1234.56" and the Brazilian
// "1.234,56" convention are accepted; an optional R$ prefix is stripped.
func ParseAmount(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "R$")
	value = strings.ReplaceAll(value, " ", "")
	if value == "" {
		return decimal.Zero, errEmptyAmount
	}
	if strings.Contains(value, ",") {
		value = strings.ReplaceAll(value, ".", "")
		value = strings.ReplaceAll(value, ",", ".")
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, &ParseError{Input: value, Want: "amount"}
	}
	return parsed, nil
}
