package analytics

import (
	"time"

	"crm-insights/internal/table"
)

// MonthRanking is a fixed 12-bucket count of events keyed by calendar month,
// ignoring year. Counts[0] is January. DistinctYears records how many
// distinct years contributed observations, for averaging in the
// presentation layer.
type MonthRanking struct {
	Counts        [12]int `json:"counts"`
	DistinctYears int     `json:"distinct_years"`
}

// Count returns the bucket for a calendar month.
func (r MonthRanking) Count(month time.Month) int {
	return r.Counts[int(month)-1]
}

// Total is the sum over all twelve buckets.
func (r MonthRanking) Total() int {
	total := 0
	for _, n := range r.Counts {
		total += n
	}
	return total
}

// EnrollmentByMonth buckets each client's earliest payment by calendar
// month. DistinctYears counts the distinct years among those first-payment
// dates. An input with no valid dates returns an all-zero ranking.
func EnrollmentByMonth(tbl *table.Table, dateCol string) (MonthRanking, error) {
	clientCol, err := ResolveColumn(tbl, clientCandidates)
	if err != nil {
		return MonthRanking{}, err
	}
	dateCol, err = ResolveColumn(tbl, withFallbacks(dateCol, dateCandidates))
	if err != nil {
		return MonthRanking{}, err
	}

	payments, _ := paymentSeries(tbl, clientCol, dateCol)
	firstByClient := map[string]time.Time{}
	for _, p := range payments {
		if existing, ok := firstByClient[p.client]; !ok || p.date.Before(existing) {
			firstByClient[p.client] = p.date
		}
	}

	var ranking MonthRanking
	years := map[int]bool{}
	for _, first := range firstByClient {
		ranking.Counts[int(first.Month())-1]++
		years[first.Year()] = true
	}
	ranking.DistinctYears = len(years)
	return ranking, nil
}

// CancellationByMonth buckets, by calendar month of their last payment, the
// clients whose most recent payment predates now by more than gapMonths
// 30-day months. now is injected so results are reproducible; gapMonths is
// per-call, enabling sensitivity analysis without touching the table. When
// no client qualifies the ranking is all-zero with DistinctYears 0.
// Otherwise DistinctYears spans all valid payment dates, not just last
// payments.
func CancellationByMonth(tbl *table.Table, dateCol string, gapMonths float64, now time.Time) (MonthRanking, error) {
	clientCol, err := ResolveColumn(tbl, clientCandidates)
	if err != nil {
		return MonthRanking{}, err
	}
	dateCol, err = ResolveColumn(tbl, withFallbacks(dateCol, dateCandidates))
	if err != nil {
		return MonthRanking{}, err
	}

	payments, _ := paymentSeries(tbl, clientCol, dateCol)
	lastByClient := map[string]time.Time{}
	years := map[int]bool{}
	for _, p := range payments {
		if existing, ok := lastByClient[p.client]; !ok || p.date.After(existing) {
			lastByClient[p.client] = p.date
		}
		years[p.date.Year()] = true
	}

	var ranking MonthRanking
	cancelled := 0
	for _, last := range lastByClient {
		// Unrounded ratio: the cancellation cutoff is exact, unlike the
		// one-decimal gap measure.
		monthsSince := now.Sub(last).Hours() / 24 / 30
		if monthsSince > gapMonths {
			ranking.Counts[int(last.Month())-1]++
			cancelled++
		}
	}
	if cancelled == 0 {
		return MonthRanking{}, nil
	}
	ranking.DistinctYears = len(years)
	return ranking, nil
}
