package analytics

import (
	"math"
	"sort"
	"time"

	"crm-insights/internal/table"
)

// DefaultGapThreshold is the month threshold that splits a payment history
// into active periods for lifetime measurement.
const DefaultGapThreshold = 2.0

// DefaultCancellationMonths is the inactivity threshold after which a client
// counts as cancelled.
const DefaultCancellationMonths = 3.0

// Gap is a contiguous inactive interval between two consecutive payments of
// the same client. Start is the payment preceding the gap, End the payment
// that closed it.
type Gap struct {
	Client string    `json:"client"`
	Start  time.Time `json:"gap_start"`
	End    time.Time `json:"gap_end"`
	Months float64   `json:"months_between"`
}

// payment is one valid (client, date) observation after coercion drops.
type payment struct {
	client string
	date   time.Time
}

// paymentSeries extracts the valid payments sorted by (client, date)
// ascending. Rows with an unparseable date or a blank client are dropped;
// the count of dropped rows is returned so callers can surface it.
func paymentSeries(tbl *table.Table, clientCol, dateCol string) ([]payment, int) {
	payments := make([]payment, 0, len(tbl.Rows))
	dropped := 0
	for _, row := range tbl.Rows {
		client := row[clientCol].AsString()
		date, ok := row[dateCol].AsDate()
		if client == "" || !ok {
			dropped++
			continue
		}
		payments = append(payments, payment{client: client, date: date})
	}
	sort.SliceStable(payments, func(i, j int) bool {
		if payments[i].client != payments[j].client {
			return payments[i].client < payments[j].client
		}
		return payments[i].date.Before(payments[j].date)
	})
	return payments, dropped
}

// DetectGaps finds, per client, each pair of consecutive payments separated
// by more than thresholdMonths. The elapsed time is measured in 30-day
// months rounded to one decimal, and that rounded value is what the
// threshold is compared against. A client's last payment never opens a gap.
func DetectGaps(tbl *table.Table, clientCol, dateCol string, thresholdMonths float64) ([]Gap, error) {
	clientCol, err := ResolveColumn(tbl, withFallbacks(clientCol, clientCandidates))
	if err != nil {
		return nil, err
	}
	dateCol, err = ResolveColumn(tbl, withFallbacks(dateCol, dateCandidates))
	if err != nil {
		return nil, err
	}
	payments, _ := paymentSeries(tbl, clientCol, dateCol)
	return detectGaps(payments, thresholdMonths), nil
}

func detectGaps(payments []payment, thresholdMonths float64) []Gap {
	var gaps []Gap
	for i := 0; i+1 < len(payments); i++ {
		next := payments[i+1]
		if payments[i].client != next.client {
			continue
		}
		months := monthsBetween(payments[i].date, next.date)
		if months > thresholdMonths {
			gaps = append(gaps, Gap{
				Client: payments[i].client,
				Start:  payments[i].date,
				End:    next.date,
				Months: months,
			})
		}
	}
	return gaps
}

// monthsBetween converts an interval to 30-day months, rounded to one
// decimal.
func monthsBetween(start, end time.Time) float64 {
	return round1(end.Sub(start).Hours() / 24 / 30)
}

func round1(value float64) float64 {
	return math.Round(value*10) / 10
}
