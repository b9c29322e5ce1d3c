package analytics

import (
	"strings"
	"testing"

	"crm-insights/internal/table"
)

// loadTable builds a coerced table from inline CSV.
func loadTable(t *testing.T, csvData string) *table.Table {
	t.Helper()
	tbl, err := table.ReadCSV(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	tbl.Coerce()
	return tbl
}

func TestDetectGapsSingleGap(t *testing.T) {
	// Payments at months 0, 1 and 5: exactly one gap, month 1 -> month 5.
	tbl := loadTable(t, "nome,data_de_pagamento\n"+
		"Ana,2025-01-01\n"+
		"Ana,2025-02-01\n"+
		"Ana,2025-06-01\n")

	gaps, err := DetectGaps(tbl, "", "", DefaultGapThreshold)
	if err != nil {
		t.Fatalf("detect gaps: %v", err)
	}
	if len(gaps) != 1 {
		t.Fatalf("expected 1 gap, got %d", len(gaps))
	}
	gap := gaps[0]
	if gap.Client != "Ana" {
		t.Fatalf("expected gap for Ana, got %q", gap.Client)
	}
	if gap.Start.Month() != 2 || gap.End.Month() != 6 {
		t.Fatalf("expected gap Feb -> Jun, got %v -> %v", gap.Start, gap.End)
	}
	if gap.Months != 4.0 {
		t.Fatalf("expected 4.0 months, got %.1f", gap.Months)
	}
}

func TestDetectGapsNoGapForRegularPayments(t *testing.T) {
	tbl := loadTable(t, "nome,data_de_pagamento\n"+
		"Ana,2025-01-01\n"+
		"Ana,2025-02-01\n"+
		"Ana,2025-03-01\n")

	gaps, err := DetectGaps(tbl, "", "", DefaultGapThreshold)
	if err != nil {
		t.Fatalf("detect gaps: %v", err)
	}
	if len(gaps) != 0 {
		t.Fatalf("expected no gaps, got %d", len(gaps))
	}
}

func TestDetectGapsMultipleClientsAndGaps(t *testing.T) {
	tbl := loadTable(t, "nome,data_de_pagamento\n"+
		"Ana,2025-01-01\n"+
		"Ana,2025-05-01\n"+
		"Ana,2025-06-01\n"+
		"Ana,2025-11-01\n"+
		"Bia,2025-01-01\n"+
		"Bia,2025-02-01\n")

	gaps, err := DetectGaps(tbl, "", "", DefaultGapThreshold)
	if err != nil {
		t.Fatalf("detect gaps: %v", err)
	}
	if len(gaps) != 2 {
		t.Fatalf("expected 2 gaps for Ana, got %d", len(gaps))
	}
	for _, gap := range gaps {
		if gap.Client != "Bia" {
			continue
		}
		t.Fatalf("Bia should have no gaps: %+v", gap)
	}
}

func TestDetectGapsNeverCrossesClients(t *testing.T) {
	// Ana's last payment and Bia's first are far apart; adjacency across
	// clients must not produce a gap.
	tbl := loadTable(t, "nome,data_de_pagamento\n"+
		"Ana,2024-01-01\n"+
		"Bia,2025-06-01\n")

	gaps, err := DetectGaps(tbl, "", "", DefaultGapThreshold)
	if err != nil {
		t.Fatalf("detect gaps: %v", err)
	}
	if len(gaps) != 0 {
		t.Fatalf("expected no gaps across clients, got %d", len(gaps))
	}
}

func TestDetectGapsDropsBadDates(t *testing.T) {
	tbl := loadTable(t, "nome,data_de_pagamento\n"+
		"Ana,2025-01-01\n"+
		"Ana,garbage\n"+
		"Ana,2025-02-01\n")

	gaps, err := DetectGaps(tbl, "", "", DefaultGapThreshold)
	if err != nil {
		t.Fatalf("detect gaps: %v", err)
	}
	if len(gaps) != 0 {
		t.Fatalf("bad-date row should be dropped, not break adjacency: %+v", gaps)
	}
}

func TestDetectGapsMissingColumn(t *testing.T) {
	tbl := loadTable(t, "id,total\n1,10\n")
	_, err := DetectGaps(tbl, "", "", DefaultGapThreshold)
	if err == nil {
		t.Fatal("expected column resolution error")
	}
}
