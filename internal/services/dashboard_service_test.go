package services

import (
	"context"
	"errors"
	"testing"

	"accountbook/internal/core"
	"accountbook/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestGetMonthlyStats(t *testing.T) {
	f := newFixture(t, "1000")
	ctx := context.Background()
	dashboard := NewDashboardService(f.repo)
	incomes := NewIncomeService(f.repo)

	f.spend(t, f.owner, "300", march)
	f.spend(t, f.member, "100", march)

	excluded := &core.Expense{
		FamilyUUID:        f.family.UUID,
		CategoryUUID:      f.groceries.UUID,
		Amount:            decimal.RequireFromString("999"),
		Date:              march,
		ExcludeFromBudget: true,
	}
	if err := f.expenses.CreateExpense(ctx, f.owner, excluded); err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}

	salary := &core.Income{
		FamilyUUID: f.family.UUID,
		Amount:     decimal.RequireFromString("2500"),
		Date:       march,
	}
	if err := incomes.CreateIncome(ctx, f.owner, salary); err != nil {
		t.Fatalf("CreateIncome() error = %v", err)
	}

	stats, err := dashboard.GetMonthlyStats(ctx, f.owner, f.family.UUID, march)
	if err != nil {
		t.Fatalf("GetMonthlyStats() error = %v", err)
	}

	if stats.Month != "2025-03" {
		t.Errorf("month = %s, want 2025-03", stats.Month)
	}
	if !stats.Spend.Equal(decimal.RequireFromString("400")) {
		t.Errorf("spend = %s, want 400 (excluded entry must not count)", stats.Spend)
	}
	if !stats.Income.Equal(decimal.RequireFromString("2500")) {
		t.Errorf("income = %s, want 2500", stats.Income)
	}
	if !stats.UsagePercent.Equal(decimal.RequireFromString("40")) {
		t.Errorf("usage = %s, want 40", stats.UsagePercent)
	}
	if len(stats.Categories) != 1 || !stats.Categories[0].Total.Equal(decimal.RequireFromString("400")) {
		t.Errorf("categories = %v, want one groceries row of 400", stats.Categories)
	}
}

func TestGetMonthlyStats_Forbidden(t *testing.T) {
	f := newFixture(t, "1000")
	dashboard := NewDashboardService(f.repo)

	_, err := dashboard.GetMonthlyStats(context.Background(), uuid.New(), f.family.UUID, march)
	if !errors.Is(err, core.ErrForbidden) {
		t.Errorf("outsider GetMonthlyStats() error = %v, want ErrForbidden", err)
	}
}

func TestGetCachedSummary_MissingMonthIsNil(t *testing.T) {
	f := newFixture(t, "1000")
	dashboard := NewDashboardService(f.repo)

	summary, err := dashboard.GetCachedSummary(context.Background(), f.owner, f.family.UUID, "2025-03")
	if err != nil {
		t.Fatalf("GetCachedSummary() error = %v", err)
	}
	if summary != nil {
		t.Errorf("summary = %v, want nil before worker runs", summary)
	}

	if err := f.repo.UpsertMonthlySummary(context.Background(), &storage.MonthlySummary{
		FamilyUUID: f.family.UUID,
		Month:      "2025-03",
		Total:      decimal.RequireFromString("400"),
	}); err != nil {
		t.Fatalf("UpsertMonthlySummary() error = %v", err)
	}

	summary, err = dashboard.GetCachedSummary(context.Background(), f.owner, f.family.UUID, "2025-03")
	if err != nil {
		t.Fatalf("GetCachedSummary() error = %v", err)
	}
	if summary == nil || !summary.Total.Equal(decimal.RequireFromString("400")) {
		t.Errorf("summary = %v, want total 400", summary)
	}
}
