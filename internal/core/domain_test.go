package core

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func validExpense() Expense {
	return Expense{
		UUID:         uuid.New(),
		FamilyUUID:   uuid.New(),
		CategoryUUID: uuid.New(),
		UserUUID:     uuid.New(),
		Amount:       decimal.RequireFromString("42.50"),
		Description:  "groceries",
		Date:         time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
		Status:       StatusActive,
	}
}

func TestExpenseValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		if err := validExpense().Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("zero amount", func(t *testing.T) {
		e := validExpense()
		e.Amount = decimal.Zero
		if err := e.Validate(); err != ErrInvalidAmount {
			t.Errorf("got %v, want ErrInvalidAmount", err)
		}
	})

	t.Run("negative amount", func(t *testing.T) {
		e := validExpense()
		e.Amount = decimal.RequireFromString("-1")
		if err := e.Validate(); err != ErrInvalidAmount {
			t.Errorf("got %v, want ErrInvalidAmount", err)
		}
	})

	t.Run("zero date", func(t *testing.T) {
		e := validExpense()
		e.Date = time.Time{}
		if err := e.Validate(); err == nil {
			t.Error("expected error for zero date")
		}
	})
}

func TestFamilyBudgetEnabled(t *testing.T) {
	tests := []struct {
		name   string
		budget string
		want   bool
	}{
		{name: "positive budget", budget: "1000000", want: true},
		{name: "zero budget disables alerts", budget: "0", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Family{Name: "kim", MonthlyBudget: decimal.RequireFromString(tt.budget)}
			if got := f.BudgetEnabled(); got != tt.want {
				t.Errorf("BudgetEnabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCategoryValidate(t *testing.T) {
	tests := []struct {
		name     string
		category Category
		wantErr  bool
	}{
		{name: "valid", category: Category{Name: "food", Color: "#6366f1"}},
		{name: "no color is fine", category: Category{Name: "food"}},
		{name: "empty name", category: Category{Name: "  "}, wantErr: true},
		{name: "bad color", category: Category{Name: "food", Color: "red"}, wantErr: true},
		{name: "bad hex digit", category: Category{Name: "food", Color: "#12345g"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.category.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNotificationValidate(t *testing.T) {
	n := Notification{
		Type:     "BUDGET_50_EXCEEDED",
		Title:    "Budget 50% exceeded",
		Message:  "msg",
		UserUUID: uuid.New(),
	}
	if err := n.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n.UserUUID = uuid.Nil
	if err := n.Validate(); err == nil {
		t.Error("expected error for missing recipient")
	}
}
