// Package analytics is the customer lifetime and cancellation engine. Every
// operation is a pure function of the table passed in plus explicit
// parameters: nothing is cached between calls and the table is never
// mutated, so repeated calls with the same inputs return identical results.
package analytics

import (
	"fmt"
	"strings"

	"crm-insights/internal/table"
)

// Default candidate lists for the columns the payment exports use. Exports
// arrive in mixed Portuguese/English with inconsistent casing, so resolution
// tries each candidate in priority order against normalized header names.
var (
	clientCandidates = []string{"nome", "name", "client"}
	dateCandidates   = []string{"data_de_confirmacao", "data_de_pagamento", "payment_date", "data_confirmacao"}
	amountCandidates = []string{"valor", "amount", "value"}
)

// ColumnNotFoundError reports that none of the candidate names matched a
// column of the table. It is the only validation layer in front of the
// analytics stages; callers propagate it unchanged.
type ColumnNotFoundError struct {
	Candidates []string
	Available  []string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("no column matching any of [%s]; available columns: [%s]",
		strings.Join(e.Candidates, ", "), strings.Join(e.Available, ", "))
}

// ResolveColumn locates the actual column for the first candidate whose
// normalized form matches a normalized column name, returning the original
// (non-normalized) name. Candidates are tried in the given priority order.
func ResolveColumn(tbl *table.Table, candidates []string) (string, error) {
	mapping := make(map[string]string, len(tbl.Columns))
	for _, name := range tbl.Columns {
		normalized := table.Normalize(name)
		if _, exists := mapping[normalized]; !exists {
			mapping[normalized] = name
		}
	}
	for _, candidate := range candidates {
		if actual, ok := mapping[table.Normalize(candidate)]; ok {
			return actual, nil
		}
	}
	return "", &ColumnNotFoundError{
		Candidates: append([]string{}, candidates...),
		Available:  append([]string{}, tbl.Columns...),
	}
}

// withFallbacks prepends the caller's preferred name to a default candidate
// list, skipping it when blank.
func withFallbacks(preferred string, defaults []string) []string {
	if strings.TrimSpace(preferred) == "" {
		return defaults
	}
	return append([]string{preferred}, defaults...)
}
