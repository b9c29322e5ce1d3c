// crm-insights ingests a payments/clients CSV export and computes customer
// lifetime, lifetime value and enrollment/cancellation rankings. Two modes:
//
//	crm-insights -input payments.csv            one-shot report to stdout
//	crm-insights -serve -data-dir ./data        dashboard HTTP API
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"crm-insights/internal/analytics"
	"crm-insights/internal/logger"
	"crm-insights/internal/report"
	"crm-insights/internal/server"
	"crm-insights/internal/store"
	"crm-insights/internal/table"
)

const defaultTopN = 10

func main() {
	inputPath := flag.String("input", "", "Path to payments CSV for one-shot report mode")
	clientCol := flag.String("client-column", "", "Preferred client column name (falls back to nome/name/client)")
	dateCol := flag.String("date-column", "", "Preferred date column name")
	amountCol := flag.String("amount-column", "", "Preferred amount column name")
	asOf := flag.String("as-of", "", "Report as-of date (YYYY-MM-DD); defaults to today")
	gapThreshold := flag.Float64("gap-threshold", analytics.DefaultGapThreshold, "Months between payments that open a gap")
	gapMonths := flag.Float64("gap-months", analytics.DefaultCancellationMonths, "Months of inactivity before a client counts as cancelled")
	topN := flag.Int("top", defaultTopN, "Top N clients to print")
	jsonOut := flag.String("json", "", "Optional JSON output path")
	serve := flag.Bool("serve", false, "Run the dashboard HTTP API instead of a one-shot report")
	addr := flag.String("addr", getEnv("CRM_INSIGHTS_ADDR", ":8080"), "HTTP listen address in serve mode")
	dataDir := flag.String("data-dir", getEnv("CRM_INSIGHTS_DATA_DIR", "data"), "Directory for uploaded data and the lead board")
	logMode := flag.String("log", getEnv("CRM_INSIGHTS_LOG", "dev"), "Log mode: dev or prod")
	dbEnabled := flag.Bool("db", false, "Store the report in Postgres (requires CRM_INSIGHTS_DB_URL or DATABASE_URL)")
	dbSchema := flag.String("db-schema", "crm_insights", "Postgres schema for snapshot tables")
	dbTag := flag.String("db-tag", "", "Optional label for this analytics run")
	initDB := flag.Bool("init-db", false, "Initialize database schema and seed with this report if empty")
	flag.Parse()

	if *serve {
		log, err := logger.New(*logMode)
		if err != nil {
			exitWithError(err)
		}
		defer log.Sync()
		srv, err := server.New(log, *dataDir)
		if err != nil {
			exitWithError(err)
		}
		if err := srv.Run(*addr); err != nil {
			exitWithError(err)
		}
		return
	}

	if *inputPath == "" {
		exitWithError(errors.New("--input is required (or pass --serve)"))
	}
	if *gapThreshold <= 0 {
		exitWithError(errors.New("--gap-threshold must be positive"))
	}
	if *gapMonths <= 0 {
		exitWithError(errors.New("--gap-months must be positive"))
	}

	now := time.Now().UTC()
	if *asOf != "" {
		parsed, err := table.ParseDate(*asOf)
		if err != nil {
			exitWithError(fmt.Errorf("invalid --as-of date: %w", err))
		}
		now = parsed
	}

	file, err := os.Open(*inputPath)
	if err != nil {
		exitWithError(err)
	}
	tbl, err := table.ReadCSV(file)
	file.Close()
	if err != nil {
		exitWithError(err)
	}
	tbl.Coerce()

	rep, err := report.Build(tbl, report.Options{
		ClientColumn:       *clientCol,
		DateColumn:         *dateCol,
		AmountColumn:       *amountCol,
		GapThreshold:       *gapThreshold,
		CancellationMonths: *gapMonths,
		Now:                now,
	})
	if err != nil {
		exitWithError(err)
	}

	report.Print(rep, *inputPath, *topN)

	if *jsonOut != "" {
		if err := report.WriteJSON(rep, *jsonOut); err != nil {
			exitWithError(err)
		}
		fmt.Printf("\nJSON report saved to %s\n", *jsonOut)
	}

	if *dbEnabled || *initDB {
		dbURL := store.URLFromEnv(os.Getenv)
		if dbURL == "" {
			exitWithError(errors.New("database URL missing; set CRM_INSIGHTS_DB_URL or DATABASE_URL"))
		}
		cfg := store.Config{URL: dbURL, Schema: *dbSchema, Tag: *dbTag}
		seeded := false
		if *initDB {
			runID, err := store.SeedReport(rep, cfg)
			if err != nil {
				exitWithError(err)
			}
			if runID != "" {
				seeded = true
				fmt.Printf("\nSeeded Postgres with initial analytics run (run_id=%s)\n", runID)
			} else {
				fmt.Println("\nAnalytics data already present; skipping seed.")
			}
		}
		if *dbEnabled && !seeded {
			runID, err := store.StoreReport(rep, cfg)
			if err != nil {
				exitWithError(err)
			}
			fmt.Printf("\nStored analytics run in Postgres (run_id=%s)\n", runID)
		}
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
