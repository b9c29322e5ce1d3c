package analytics

import (
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"crm-insights/internal/table"
)

var hundred = decimal.NewFromInt(100)

// MonthRevenue is the revenue total for one calendar month, keyed "YYYY-MM".
type MonthRevenue struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
}

// YearRevenue aggregates one year of revenue. GrowthPct is the percentage
// change against the previous year, null for the first year observed.
// MonthlyAverage is the mean of that year's monthly totals.
type YearRevenue struct {
	Year           int                 `json:"year"`
	Total          decimal.Decimal     `json:"total"`
	GrowthPct      decimal.NullDecimal `json:"growth_pct"`
	MonthlyAverage decimal.Decimal     `json:"monthly_average"`
}

// MonthlyRevenue sums the amount column per calendar month, ascending. Rows
// missing a parseable date or amount are skipped.
func MonthlyRevenue(tbl *table.Table, dateCol, amountCol string) ([]MonthRevenue, error) {
	dateCol, err := ResolveColumn(tbl, withFallbacks(dateCol, dateCandidates))
	if err != nil {
		return nil, err
	}
	amountCol, err = ResolveColumn(tbl, withFallbacks(amountCol, amountCandidates))
	if err != nil {
		return nil, err
	}

	totals := map[string]decimal.Decimal{}
	for _, row := range tbl.Rows {
		date, ok := row[dateCol].AsDate()
		if !ok {
			continue
		}
		amount, ok := row[amountCol].AsNumber()
		if !ok {
			continue
		}
		key := date.Format("2006-01")
		totals[key] = totals[key].Add(amount)
	}

	months := make([]MonthRevenue, 0, len(totals))
	for month, total := range totals {
		months = append(months, MonthRevenue{Month: month, Total: total})
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Month < months[j].Month })
	return months, nil
}

// YearlyRevenue rolls monthly revenue up to years, with year-over-year
// growth and the average monthly take per year.
func YearlyRevenue(tbl *table.Table, dateCol, amountCol string) ([]YearRevenue, error) {
	months, err := MonthlyRevenue(tbl, dateCol, amountCol)
	if err != nil {
		return nil, err
	}

	totals := map[int]decimal.Decimal{}
	monthCounts := map[int]int{}
	for _, m := range months {
		year, err := strconv.Atoi(m.Month[:4])
		if err != nil {
			continue
		}
		totals[year] = totals[year].Add(m.Total)
		monthCounts[year]++
	}

	yearsSorted := make([]int, 0, len(totals))
	for year := range totals {
		yearsSorted = append(yearsSorted, year)
	}
	sort.Ints(yearsSorted)

	result := make([]YearRevenue, 0, len(yearsSorted))
	for i, year := range yearsSorted {
		entry := YearRevenue{
			Year:           year,
			Total:          totals[year],
			MonthlyAverage: totals[year].Div(decimal.NewFromInt(int64(monthCounts[year]))),
		}
		if i > 0 {
			prev := totals[yearsSorted[i-1]]
			if !prev.IsZero() {
				entry.GrowthPct = decimal.NullDecimal{
					Decimal: entry.Total.Sub(prev).Div(prev).Mul(hundred),
					Valid:   true,
				}
			}
		}
		result = append(result, entry)
	}
	return result, nil
}
