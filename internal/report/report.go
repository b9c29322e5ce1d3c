// Package report assembles the full analytics output for one table
// snapshot: lifetimes, LTV, gaps, month rankings and revenue series, plus a
// headline summary. The CLI prints it, the JSON export serializes it, and
// the Postgres store persists it.
package report

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"crm-insights/internal/analytics"
	"crm-insights/internal/table"
)

// Options parameterize a report run. Now is injected so cancellation
// classification is reproducible.
type Options struct {
	ClientColumn       string
	DateColumn         string
	AmountColumn       string
	GapThreshold       float64
	CancellationMonths float64
	Now                time.Time
}

// Summary is the headline block of a report.
type Summary struct {
	AsOf               string  `json:"as_of"`
	GapThreshold       float64 `json:"gap_threshold_months"`
	CancellationMonths float64 `json:"cancellation_months"`
	TotalClients       int     `json:"total_clients"`
	TotalGaps          int     `json:"total_gaps"`
	DroppedRows        int     `json:"dropped_rows"`
	AvgActiveMonths    float64 `json:"avg_active_months"`
	MedianActiveMonths float64 `json:"median_active_months"`
	MaxActiveMonths    float64 `json:"max_active_months"`
}

// Report is the complete analytics output for one table snapshot.
type Report struct {
	Summary        Summary                    `json:"summary"`
	Lifetimes      []analytics.ClientLifetime `json:"lifetimes"`
	Values         []analytics.ClientValue    `json:"values"`
	Gaps           []analytics.Gap            `json:"gaps"`
	Enrollment     analytics.MonthRanking     `json:"enrollment_by_month"`
	Cancellations  analytics.MonthRanking     `json:"cancellations_by_month"`
	MonthlyRevenue []analytics.MonthRevenue   `json:"monthly_revenue"`
	YearlyRevenue  []analytics.YearRevenue    `json:"yearly_revenue"`
}

// Build runs every analytics operation against the table. Column resolution
// failures propagate; empty analytics results produce an empty (not
// missing) section.
func Build(tbl *table.Table, opts Options) (Report, error) {
	if opts.GapThreshold <= 0 {
		opts.GapThreshold = analytics.DefaultGapThreshold
	}
	if opts.CancellationMonths <= 0 {
		opts.CancellationMonths = analytics.DefaultCancellationMonths
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now().UTC()
	}

	lifetime, err := analytics.CustomerLifetime(tbl, opts.ClientColumn, opts.DateColumn)
	if err != nil {
		return Report{}, err
	}
	values, err := analytics.LifetimeValue(tbl, opts.ClientColumn, opts.AmountColumn)
	if err != nil {
		return Report{}, err
	}
	gaps, err := analytics.DetectGaps(tbl, opts.ClientColumn, opts.DateColumn, opts.GapThreshold)
	if err != nil {
		return Report{}, err
	}
	enrollment, err := analytics.EnrollmentByMonth(tbl, opts.DateColumn)
	if err != nil {
		return Report{}, err
	}
	cancellations, err := analytics.CancellationByMonth(tbl, opts.DateColumn, opts.CancellationMonths, opts.Now)
	if err != nil {
		return Report{}, err
	}
	monthly, err := analytics.MonthlyRevenue(tbl, opts.DateColumn, opts.AmountColumn)
	if err != nil {
		return Report{}, err
	}
	yearly, err := analytics.YearlyRevenue(tbl, opts.DateColumn, opts.AmountColumn)
	if err != nil {
		return Report{}, err
	}

	avg, median, max := summarizeActiveMonths(lifetime.Clients)
	return Report{
		Summary: Summary{
			AsOf:               opts.Now.Format("2006-01-02"),
			GapThreshold:       opts.GapThreshold,
			CancellationMonths: opts.CancellationMonths,
			TotalClients:       len(lifetime.Clients),
			TotalGaps:          len(gaps),
			DroppedRows:        lifetime.DroppedRows,
			AvgActiveMonths:    avg,
			MedianActiveMonths: median,
			MaxActiveMonths:    max,
		},
		Lifetimes:      lifetime.Clients,
		Values:         values.Clients,
		Gaps:           gaps,
		Enrollment:     enrollment,
		Cancellations:  cancellations,
		MonthlyRevenue: monthly,
		YearlyRevenue:  yearly,
	}, nil
}

func summarizeActiveMonths(clients []analytics.ClientLifetime) (float64, float64, float64) {
	if len(clients) == 0 {
		return 0, 0, 0
	}
	months := make([]float64, 0, len(clients))
	sum := 0.0
	for _, c := range clients {
		months = append(months, c.ActiveMonths)
		sum += c.ActiveMonths
	}
	sort.Float64s(months)
	max := months[len(months)-1]
	avg := sum / float64(len(months))
	median := 0.0
	mid := len(months) / 2
	if len(months)%2 == 0 {
		median = (months[mid-1] + months[mid]) / 2
	} else {
		median = months[mid]
	}
	return round1(avg), round1(median), max
}

func round1(value float64) float64 {
	return math.Round(value*10) / 10
}

// Print writes a human-readable report to stdout, top clients first.
func Print(rep Report, inputPath string, topN int) {
	fmt.Println("Client Lifetime & Value Report")
	fmt.Println(strings.Repeat("=", 38))
	fmt.Printf("Input: %s\n", filepath.Base(inputPath))
	fmt.Printf("As of: %s\n", rep.Summary.AsOf)
	fmt.Printf("Gap threshold: %.1f months (cancellation after %.1f months)\n",
		rep.Summary.GapThreshold, rep.Summary.CancellationMonths)
	fmt.Printf("Total clients: %d\n", rep.Summary.TotalClients)
	fmt.Printf("Active months avg/median/max: %.1f / %.1f / %.1f\n",
		rep.Summary.AvgActiveMonths, rep.Summary.MedianActiveMonths, rep.Summary.MaxActiveMonths)
	fmt.Printf("Gaps detected: %d\n", rep.Summary.TotalGaps)
	if rep.Summary.DroppedRows > 0 {
		fmt.Printf("Rows dropped (bad dates): %d\n", rep.Summary.DroppedRows)
	}

	fmt.Println("\nTop clients by lifetime value")
	fmt.Println(strings.Repeat("-", 38))
	if len(rep.Values) == 0 {
		fmt.Println("No clients found.")
	}
	top := rep.Values
	if topN > 0 && len(top) > topN {
		top = top[:topN]
	}
	for _, entry := range top {
		avgStr := "n/a"
		if entry.MonthlyAverage.Valid {
			avgStr = entry.MonthlyAverage.Decimal.StringFixed(2)
		}
		fmt.Printf("%s | total %s | %.1f active months | %d gaps | avg/month %s\n",
			entry.Client,
			entry.TotalValue.StringFixed(2),
			entry.ActiveMonths,
			entry.GapCount,
			avgStr,
		)
	}

	fmt.Println("\nEnrollments by month")
	fmt.Println(strings.Repeat("-", 38))
	printRanking(rep.Enrollment)

	fmt.Println("\nCancellations by month")
	fmt.Println(strings.Repeat("-", 38))
	if rep.Cancellations.Total() == 0 {
		fmt.Println("No cancellations detected.")
	} else {
		printRanking(rep.Cancellations)
	}
}

func printRanking(ranking analytics.MonthRanking) {
	for i, count := range ranking.Counts {
		if count == 0 {
			continue
		}
		fmt.Printf("%s: %d\n", time.Month(i+1).String(), count)
	}
	fmt.Printf("Distinct years observed: %d\n", ranking.DistinctYears)
}

// WriteJSON saves the report to disk, indented.
func WriteJSON(rep Report, path string) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
