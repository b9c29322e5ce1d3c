package report

import (
	"strings"
	"testing"
	"time"

	"crm-insights/internal/table"
)

func TestBuildReport(t *testing.T) {
	csvData := "nome,data_de_pagamento,valor\n" +
		"Ana,2024-11-01,100\n" +
		"Ana,2025-01-01,100\n" +
		"Ana,2025-02-01,100\n" +
		"Bia,2025-04-05,50\n"

	tbl, err := table.ReadCSV(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	tbl.Coerce()

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rep, err := Build(tbl, Options{Now: now})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}

	if rep.Summary.TotalClients != 2 {
		t.Fatalf("expected 2 clients, got %d", rep.Summary.TotalClients)
	}
	if rep.Summary.AsOf != "2025-06-01" {
		t.Fatalf("expected injected as-of date, got %q", rep.Summary.AsOf)
	}
	if len(rep.Values) != 2 || rep.Values[0].Client != "Ana" {
		t.Fatalf("expected Ana ranked first by value: %+v", rep.Values)
	}
	// Ana last paid 4 months before now: cancelled at the default threshold.
	if rep.Cancellations.Count(time.February) != 1 {
		t.Fatalf("expected Ana in the February cancellation bucket: %+v", rep.Cancellations)
	}
	if rep.Enrollment.Total() != 2 {
		t.Fatalf("expected 2 enrollments, got %d", rep.Enrollment.Total())
	}
	if len(rep.MonthlyRevenue) != 4 {
		t.Fatalf("expected 4 revenue months, got %d", len(rep.MonthlyRevenue))
	}
}

func TestBuildReportMissingColumn(t *testing.T) {
	tbl, err := table.ReadCSV(strings.NewReader("id,total\n1,10\n"))
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if _, err := Build(tbl, Options{}); err == nil {
		t.Fatal("expected column resolution error to propagate")
	}
}
