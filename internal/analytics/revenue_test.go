package analytics

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMonthlyRevenue(t *testing.T) {
	tbl := loadTable(t, "nome,data_de_pagamento,valor\n"+
		"Ana,2025-01-05,100\n"+
		"Bia,2025-01-20,50\n"+
		"Ana,2025-02-01,200\n"+
		"Caio,bad-date,999\n")

	months, err := MonthlyRevenue(tbl, "", "")
	if err != nil {
		t.Fatalf("monthly revenue: %v", err)
	}
	if len(months) != 2 {
		t.Fatalf("expected 2 months, got %d", len(months))
	}
	if months[0].Month != "2025-01" || !months[0].Total.Equal(decimal.RequireFromString("150")) {
		t.Fatalf("expected 2025-01 150, got %s %s", months[0].Month, months[0].Total)
	}
	if months[1].Month != "2025-02" || !months[1].Total.Equal(decimal.RequireFromString("200")) {
		t.Fatalf("expected 2025-02 200, got %s %s", months[1].Month, months[1].Total)
	}
}

func TestYearlyRevenueGrowth(t *testing.T) {
	tbl := loadTable(t, "nome,data_de_pagamento,valor\n"+
		"Ana,2024-03-01,100\n"+
		"Ana,2024-09-01,100\n"+
		"Ana,2025-03-01,300\n")

	years, err := YearlyRevenue(tbl, "", "")
	if err != nil {
		t.Fatalf("yearly revenue: %v", err)
	}
	if len(years) != 2 {
		t.Fatalf("expected 2 years, got %d", len(years))
	}
	first := years[0]
	if first.Year != 2024 || first.GrowthPct.Valid {
		t.Fatalf("first year has no growth: %+v", first)
	}
	if !first.MonthlyAverage.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("expected monthly average 100, got %s", first.MonthlyAverage)
	}
	second := years[1]
	if !second.Total.Equal(decimal.RequireFromString("300")) {
		t.Fatalf("expected 300 total, got %s", second.Total)
	}
	if !second.GrowthPct.Valid || !second.GrowthPct.Decimal.Equal(decimal.RequireFromString("50")) {
		t.Fatalf("expected 50%% growth, got %+v", second.GrowthPct)
	}
}
