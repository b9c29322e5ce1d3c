package analytics

import (
	"sort"
	"time"

	"crm-insights/internal/table"
)

// ClientLifetime describes one client's engaged tenure: the span of their
// payment history with inactive gap intervals excluded.
type ClientLifetime struct {
	Client       string    `json:"client"`
	FirstPayment time.Time `json:"first_payment"`
	LastPayment  time.Time `json:"last_payment"`
	ActiveMonths float64   `json:"active_months"`
	GapCount     int       `json:"gap_count"`
}

// LifetimeResult carries the computed lifetimes plus the number of rows
// dropped during date coercion, so an empty result is distinguishable from
// an input that never had usable rows.
type LifetimeResult struct {
	Clients     []ClientLifetime `json:"clients"`
	DroppedRows int              `json:"dropped_rows"`
}

// CustomerLifetime computes active tenure in months per client. Clients with
// no gaps span first to last payment; clients with gaps accumulate only the
// active periods between gap boundaries. Results are sorted by active months
// descending, client name breaking ties.
func CustomerLifetime(tbl *table.Table, clientCol, dateCol string) (LifetimeResult, error) {
	clientCol, err := ResolveColumn(tbl, withFallbacks(clientCol, clientCandidates))
	if err != nil {
		return LifetimeResult{}, err
	}
	dateCol, err = ResolveColumn(tbl, withFallbacks(dateCol, dateCandidates))
	if err != nil {
		return LifetimeResult{}, err
	}

	payments, dropped := paymentSeries(tbl, clientCol, dateCol)
	result := LifetimeResult{DroppedRows: dropped}
	if len(payments) == 0 {
		return result, nil
	}

	gaps := detectGaps(payments, DefaultGapThreshold)
	gapsByClient := map[string][]Gap{}
	for _, gap := range gaps {
		gapsByClient[gap.Client] = append(gapsByClient[gap.Client], gap)
	}

	// payments are sorted by (client, date), so each client occupies one
	// contiguous run.
	for start := 0; start < len(payments); {
		end := start
		for end < len(payments) && payments[end].client == payments[start].client {
			end++
		}
		client := payments[start].client
		first := payments[start].date
		last := payments[end-1].date
		clientGaps := gapsByClient[client]

		totalDays := 0.0
		if len(clientGaps) == 0 {
			totalDays = daysBetween(first, last)
		} else {
			periodStart := first
			for _, gap := range clientGaps {
				totalDays += daysBetween(periodStart, gap.Start)
				periodStart = gap.End
			}
			totalDays += daysBetween(periodStart, last)
		}

		result.Clients = append(result.Clients, ClientLifetime{
			Client:       client,
			FirstPayment: first,
			LastPayment:  last,
			ActiveMonths: round1(totalDays / 30),
			GapCount:     len(clientGaps),
		})
		start = end
	}

	sort.SliceStable(result.Clients, func(i, j int) bool {
		if result.Clients[i].ActiveMonths != result.Clients[j].ActiveMonths {
			return result.Clients[i].ActiveMonths > result.Clients[j].ActiveMonths
		}
		return result.Clients[i].Client < result.Clients[j].Client
	})
	return result, nil
}

func daysBetween(start, end time.Time) float64 {
	return end.Sub(start).Hours() / 24
}
