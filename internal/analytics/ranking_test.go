package analytics

import (
	"testing"
	"time"
)

func TestEnrollmentByMonth(t *testing.T) {
	tbl := loadTable(t, "nome,data_de_pagamento\n"+
		"Ana,2024-01-15\n"+
		"Ana,2024-05-01\n"+ // not Ana's first payment; must not count
		"Bia,2025-03-10\n"+
		"Caio,2024-03-05\n")

	ranking, err := EnrollmentByMonth(tbl, "")
	if err != nil {
		t.Fatalf("enrollment: %v", err)
	}
	if ranking.Count(time.January) != 1 {
		t.Fatalf("expected 1 January enrollment, got %d", ranking.Count(time.January))
	}
	if ranking.Count(time.March) != 2 {
		t.Fatalf("expected 2 March enrollments, got %d", ranking.Count(time.March))
	}
	if ranking.Count(time.May) != 0 {
		t.Fatalf("later payments must not count as enrollments, got %d", ranking.Count(time.May))
	}
	if ranking.Total() != 3 {
		t.Fatalf("histogram should sum to distinct clients: got %d", ranking.Total())
	}
	if ranking.DistinctYears != 2 {
		t.Fatalf("expected 2 distinct years, got %d", ranking.DistinctYears)
	}
}

func TestEnrollmentByMonthNoValidDates(t *testing.T) {
	tbl := loadTable(t, "nome,data_de_pagamento\nAna,garbage\n")

	ranking, err := EnrollmentByMonth(tbl, "")
	if err != nil {
		t.Fatalf("no valid dates must not error: %v", err)
	}
	if ranking.Total() != 0 || ranking.DistinctYears != 0 {
		t.Fatalf("expected all-zero ranking, got %+v", ranking)
	}
}

func TestCancellationByMonth(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	// Ana's last payment is 4 months before now (cancelled at gap 3);
	// Bia's is under 2 months ago (still active).
	tbl := loadTable(t, "nome,data_de_pagamento\n"+
		"Ana,2024-11-01\n"+
		"Ana,2025-02-01\n"+
		"Bia,2025-04-05\n")

	ranking, err := CancellationByMonth(tbl, "", 3, now)
	if err != nil {
		t.Fatalf("cancellation: %v", err)
	}
	if ranking.Count(time.February) != 1 {
		t.Fatalf("expected Ana cancelled in February bucket, got %d", ranking.Count(time.February))
	}
	if ranking.Total() != 1 {
		t.Fatalf("expected exactly 1 cancellation, got %d", ranking.Total())
	}
	if ranking.DistinctYears != 2 {
		t.Fatalf("expected years across all payments (2024, 2025), got %d", ranking.DistinctYears)
	}
}

func TestCancellationByMonthThresholdSensitivity(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	tbl := loadTable(t, "nome,data_de_pagamento\nAna,2025-02-01\n")

	strict, err := CancellationByMonth(tbl, "", 3, now)
	if err != nil {
		t.Fatalf("gap 3: %v", err)
	}
	if strict.Total() != 1 {
		t.Fatalf("4 months of inactivity should cancel at gap 3, got %d", strict.Total())
	}

	lenient, err := CancellationByMonth(tbl, "", 5, now)
	if err != nil {
		t.Fatalf("gap 5: %v", err)
	}
	if lenient.Total() != 0 || lenient.DistinctYears != 0 {
		t.Fatalf("no cancellations should yield the zero ranking, got %+v", lenient)
	}

	// Changing the threshold must not have touched the table.
	again, err := CancellationByMonth(tbl, "", 3, now)
	if err != nil {
		t.Fatalf("repeat gap 3: %v", err)
	}
	if again != strict {
		t.Fatalf("results changed across calls: %+v vs %+v", again, strict)
	}
}

func TestCancellationByMonthRecentClientNotCancelled(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	tbl := loadTable(t, "nome,data_de_pagamento\nBia,2025-04-05\n")

	ranking, err := CancellationByMonth(tbl, "", 3, now)
	if err != nil {
		t.Fatalf("cancellation: %v", err)
	}
	if ranking.Total() != 0 {
		t.Fatalf("client active 2 months ago must not be cancelled, got %+v", ranking)
	}
}
