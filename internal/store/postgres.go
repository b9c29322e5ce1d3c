// Package store persists analytics report snapshots in Postgres so a run
// can be compared against earlier uploads. Tables are bootstrapped on first
// use; each run is one transaction.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"crm-insights/internal/report"
)

// Config selects the target database and schema for snapshot storage.
type Config struct {
	URL    string
	Schema string
	Tag    string
}

// URLFromEnv reads the database URL from CRM_INSIGHTS_DB_URL, falling back
// to DATABASE_URL.
func URLFromEnv(getenv func(string) string) string {
	if value := strings.TrimSpace(getenv("CRM_INSIGHTS_DB_URL")); value != "" {
		return value
	}
	return strings.TrimSpace(getenv("DATABASE_URL"))
}

var validSchema = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func sanitizeSchema(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", errors.New("db schema is required")
	}
	if !validSchema.MatchString(value) {
		return "", fmt.Errorf("invalid schema name: %s", value)
	}
	return value, nil
}

// SeedReport stores the report only when the runs table is empty, for
// first-time setup.
func SeedReport(rep report.Report, cfg Config) (string, error) {
	schema, err := sanitizeSchema(cfg.Schema)
	if err != nil {
		return "", err
	}
	db, ctx, cancel, err := open(cfg.URL)
	if err != nil {
		return "", err
	}
	defer cancel()
	defer db.Close()

	if err := ensureSchema(ctx, db, schema); err != nil {
		return "", err
	}
	var count int
	if err := db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s.analytics_runs`, schema)).Scan(&count); err != nil {
		return "", err
	}
	if count > 0 {
		return "", nil
	}
	return storeReportTx(ctx, db, rep, schema, cfg.Tag)
}

// StoreReport persists the report as a new analytics run.
func StoreReport(rep report.Report, cfg Config) (string, error) {
	schema, err := sanitizeSchema(cfg.Schema)
	if err != nil {
		return "", err
	}
	db, ctx, cancel, err := open(cfg.URL)
	if err != nil {
		return "", err
	}
	defer cancel()
	defer db.Close()

	if err := ensureSchema(ctx, db, schema); err != nil {
		return "", err
	}
	return storeReportTx(ctx, db, rep, schema, cfg.Tag)
}

func open(url string) (*sql.DB, context.Context, context.CancelFunc, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, nil, nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	if err := db.PingContext(ctx); err != nil {
		cancel()
		db.Close()
		return nil, nil, nil, err
	}
	return db, ctx, cancel, nil
}

func storeReportTx(ctx context.Context, db *sql.DB, rep report.Report, schema string, tag string) (string, error) {
	runID := uuid.New()
	asOf, err := time.Parse("2006-01-02", rep.Summary.AsOf)
	if err != nil {
		return "", err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s.analytics_runs (
			id, as_of, gap_threshold_months, cancellation_months, total_clients,
			total_gaps, dropped_rows, avg_active_months, median_active_months,
			max_active_months, run_tag
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`, schema),
		runID,
		asOf,
		rep.Summary.GapThreshold,
		rep.Summary.CancellationMonths,
		rep.Summary.TotalClients,
		rep.Summary.TotalGaps,
		rep.Summary.DroppedRows,
		rep.Summary.AvgActiveMonths,
		rep.Summary.MedianActiveMonths,
		rep.Summary.MaxActiveMonths,
		nullString(tag),
	)
	if err != nil {
		return "", err
	}

	insertLifetimeSQL := fmt.Sprintf(`
		INSERT INTO %s.client_lifetimes (
			id, run_id, client, first_payment, last_payment, active_months, gap_count
		) VALUES ($1,$2,$3,$4,$5,$6,$7)`, schema)
	for _, entry := range rep.Lifetimes {
		_, err = tx.ExecContext(ctx, insertLifetimeSQL,
			uuid.New(), runID, entry.Client,
			entry.FirstPayment, entry.LastPayment,
			entry.ActiveMonths, entry.GapCount,
		)
		if err != nil {
			return "", err
		}
	}

	insertValueSQL := fmt.Sprintf(`
		INSERT INTO %s.client_values (
			id, run_id, client, total_value, active_months, gap_count, monthly_average
		) VALUES ($1,$2,$3,$4,$5,$6,$7)`, schema)
	for _, entry := range rep.Values {
		var avg sql.NullString
		if entry.MonthlyAverage.Valid {
			avg = sql.NullString{String: entry.MonthlyAverage.Decimal.String(), Valid: true}
		}
		_, err = tx.ExecContext(ctx, insertValueSQL,
			uuid.New(), runID, entry.Client,
			entry.TotalValue.String(),
			entry.ActiveMonths, entry.GapCount, avg,
		)
		if err != nil {
			return "", err
		}
	}

	insertRankingSQL := fmt.Sprintf(`
		INSERT INTO %s.month_rankings (
			id, run_id, kind, month, count, distinct_years
		) VALUES ($1,$2,$3,$4,$5,$6)`, schema)
	rankings := []struct {
		kind    string
		ranking [12]int
		years   int
	}{
		{"enrollment", rep.Enrollment.Counts, rep.Enrollment.DistinctYears},
		{"cancellation", rep.Cancellations.Counts, rep.Cancellations.DistinctYears},
	}
	for _, r := range rankings {
		for month, count := range r.ranking {
			_, err = tx.ExecContext(ctx, insertRankingSQL,
				uuid.New(), runID, r.kind, month+1, count, r.years,
			)
			if err != nil {
				return "", err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return runID.String(), nil
}

func ensureSchema(ctx context.Context, db *sql.DB, schema string) error {
	if _, err := db.ExecContext(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, schema)); err != nil {
		return err
	}

	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.analytics_runs (
			id uuid PRIMARY KEY,
			as_of date NOT NULL,
			gap_threshold_months numeric(5,1) NOT NULL,
			cancellation_months numeric(5,1) NOT NULL,
			total_clients integer NOT NULL,
			total_gaps integer NOT NULL,
			dropped_rows integer NOT NULL,
			avg_active_months numeric(8,2) NOT NULL,
			median_active_months numeric(8,2) NOT NULL,
			max_active_months numeric(8,2) NOT NULL,
			run_tag text,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, schema))
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.client_lifetimes (
			id uuid PRIMARY KEY,
			run_id uuid NOT NULL REFERENCES %s.analytics_runs(id) ON DELETE CASCADE,
			client text NOT NULL,
			first_payment date,
			last_payment date,
			active_months numeric(8,1) NOT NULL,
			gap_count integer NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, schema, schema))
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.client_values (
			id uuid PRIMARY KEY,
			run_id uuid NOT NULL REFERENCES %s.analytics_runs(id) ON DELETE CASCADE,
			client text NOT NULL,
			total_value numeric(14,2) NOT NULL,
			active_months numeric(8,1) NOT NULL,
			gap_count integer NOT NULL,
			monthly_average numeric(14,2),
			created_at timestamptz NOT NULL DEFAULT now()
		)`, schema, schema))
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.month_rankings (
			id uuid PRIMARY KEY,
			run_id uuid NOT NULL REFERENCES %s.analytics_runs(id) ON DELETE CASCADE,
			kind text NOT NULL,
			month integer NOT NULL,
			count integer NOT NULL,
			distinct_years integer NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, schema, schema))
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_client_lifetimes_run_idx ON %s.client_lifetimes (run_id)`, schema, schema))
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_client_values_run_idx ON %s.client_values (run_id)`, schema, schema))
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_month_rankings_run_idx ON %s.month_rankings (run_id)`, schema, schema))
	return err
}

func nullString(value string) sql.NullString {
	if strings.TrimSpace(value) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
