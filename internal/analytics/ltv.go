package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"crm-insights/internal/table"
)

// ClientValue is the lifetime value record for one client. MonthlyAverage is
// null when the client has zero active months; it is never a division error.
type ClientValue struct {
	Client         string              `json:"client"`
	TotalValue     decimal.Decimal     `json:"total_value"`
	ActiveMonths   float64             `json:"active_months"`
	GapCount       int                 `json:"gap_count"`
	MonthlyAverage decimal.NullDecimal `json:"monthly_average"`
}

// ValueResult carries per-client LTV records sorted by total value
// descending.
type ValueResult struct {
	Clients     []ClientValue `json:"clients"`
	DroppedRows int           `json:"dropped_rows"`
}

// LifetimeValue joins the lifetime computation with the per-client sum of
// the amount column. The sum covers every row with a parseable amount,
// including rows whose dates were dropped from the lifetime side. An empty
// lifetime result (no valid dates at all) yields an empty result, not an
// error.
func LifetimeValue(tbl *table.Table, clientCol, amountCol string) (ValueResult, error) {
	clientCol, err := ResolveColumn(tbl, withFallbacks(clientCol, clientCandidates))
	if err != nil {
		return ValueResult{}, err
	}
	amountCol, err = ResolveColumn(tbl, withFallbacks(amountCol, amountCandidates))
	if err != nil {
		return ValueResult{}, err
	}
	dateCol, err := ResolveColumn(tbl, dateCandidates)
	if err != nil {
		return ValueResult{}, err
	}

	lifetime, err := CustomerLifetime(tbl, clientCol, dateCol)
	if err != nil {
		return ValueResult{}, err
	}
	result := ValueResult{DroppedRows: lifetime.DroppedRows}
	if len(lifetime.Clients) == 0 {
		return result, nil
	}

	totals := map[string]decimal.Decimal{}
	for _, row := range tbl.Rows {
		client := row[clientCol].AsString()
		amount, ok := row[amountCol].AsNumber()
		if client == "" || !ok {
			continue
		}
		totals[client] = totals[client].Add(amount)
	}

	for _, entry := range lifetime.Clients {
		value := ClientValue{
			Client:       entry.Client,
			TotalValue:   totals[entry.Client],
			ActiveMonths: entry.ActiveMonths,
			GapCount:     entry.GapCount,
		}
		if entry.ActiveMonths > 0 {
			value.MonthlyAverage = decimal.NullDecimal{
				Decimal: value.TotalValue.Div(decimal.NewFromFloat(entry.ActiveMonths)),
				Valid:   true,
			}
		}
		result.Clients = append(result.Clients, value)
	}

	sort.SliceStable(result.Clients, func(i, j int) bool {
		cmp := result.Clients[i].TotalValue.Cmp(result.Clients[j].TotalValue)
		if cmp != 0 {
			return cmp > 0
		}
		return result.Clients[i].Client < result.Clients[j].Client
	})
	return result, nil
}
