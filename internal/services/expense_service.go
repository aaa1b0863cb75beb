package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"accountbook/internal/amqp"
	"accountbook/internal/budget"
	"accountbook/internal/core"
	"accountbook/internal/storage"

	"github.com/google/uuid"
)

// ExpenseService orchestrates expense writes: persistence, the budget alert
// hook and the ledger event stream.
type ExpenseService struct {
	repo       *storage.Repository
	alerts     *budget.Engine
	amqpClient *amqp.Client
}

func NewExpenseService(repo *storage.Repository, alerts *budget.Engine, amqpClient *amqp.Client) *ExpenseService {
	return &ExpenseService{
		repo:       repo,
		alerts:     alerts,
		amqpClient: amqpClient,
	}
}

// CreateExpense validates and stores an expense, then runs the post-write
// hooks. Hook failures never fail the request; the expense is already saved.
func (s *ExpenseService) CreateExpense(ctx context.Context, actor uuid.UUID, e *core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if _, err := requireActiveMember(ctx, s.repo, e.FamilyUUID, actor); err != nil {
		return err
	}
	if err := s.checkCategory(ctx, e.FamilyUUID, e.CategoryUUID); err != nil {
		return err
	}

	if e.UUID == uuid.Nil {
		e.UUID = uuid.New()
	}
	e.UserUUID = actor

	if err := s.repo.CreateExpense(ctx, e); err != nil {
		return fmt.Errorf("create expense: %w", err)
	}

	s.afterLedgerWrite(ctx, e.FamilyUUID, e.Date, true)
	return nil
}

// UpdateExpense applies the changed fields of e to the stored expense. Both
// the old and the new date month may have shifted spend, so the alert hook
// runs for each.
func (s *ExpenseService) UpdateExpense(ctx context.Context, actor uuid.UUID, e *core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}

	existing, err := s.repo.FindActiveExpense(ctx, e.UUID)
	if err != nil {
		return fmt.Errorf("load expense: %w", err)
	}
	if existing == nil {
		return core.ErrNotFound
	}
	if _, err := requireActiveMember(ctx, s.repo, existing.FamilyUUID, actor); err != nil {
		return err
	}
	if err := s.checkCategory(ctx, existing.FamilyUUID, e.CategoryUUID); err != nil {
		return err
	}

	e.FamilyUUID = existing.FamilyUUID
	if err := s.repo.UpdateExpense(ctx, e); err != nil {
		return fmt.Errorf("update expense: %w", err)
	}

	s.afterLedgerWrite(ctx, existing.FamilyUUID, e.Date, true)
	if !sameMonth(existing.Date, e.Date) {
		s.afterLedgerWrite(ctx, existing.FamilyUUID, existing.Date, true)
	}
	return nil
}

// DeleteExpense soft-deletes. Removal lowers spend, so only the summary
// stream is notified; thresholds never un-fire.
func (s *ExpenseService) DeleteExpense(ctx context.Context, actor, expenseUUID uuid.UUID) error {
	existing, err := s.repo.FindActiveExpense(ctx, expenseUUID)
	if err != nil {
		return fmt.Errorf("load expense: %w", err)
	}
	if existing == nil {
		return core.ErrNotFound
	}
	if _, err := requireActiveMember(ctx, s.repo, existing.FamilyUUID, actor); err != nil {
		return err
	}

	if err := s.repo.SoftDeleteExpense(ctx, expenseUUID); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.afterLedgerWrite(ctx, existing.FamilyUUID, existing.Date, false)
	return nil
}

func (s *ExpenseService) GetExpense(ctx context.Context, actor, expenseUUID uuid.UUID) (*core.Expense, error) {
	e, err := s.repo.FindActiveExpense(ctx, expenseUUID)
	if err != nil {
		return nil, fmt.Errorf("load expense: %w", err)
	}
	if e == nil {
		return nil, core.ErrNotFound
	}
	if _, err := requireActiveMember(ctx, s.repo, e.FamilyUUID, actor); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *ExpenseService) ListExpenses(ctx context.Context, actor uuid.UUID, f storage.ExpenseFilter) ([]core.Expense, int, error) {
	if _, err := requireActiveMember(ctx, s.repo, f.FamilyUUID, actor); err != nil {
		return nil, 0, err
	}
	return s.repo.ListExpenses(ctx, f)
}

func (s *ExpenseService) checkCategory(ctx context.Context, familyUUID, categoryUUID uuid.UUID) error {
	category, err := s.repo.FindActiveCategory(ctx, categoryUUID)
	if err != nil {
		return fmt.Errorf("load category: %w", err)
	}
	if category == nil || category.FamilyUUID != familyUUID {
		return core.ErrNotFound
	}
	return nil
}

// afterLedgerWrite runs the post-commit hooks for a spend change: the budget
// alert check in its own transaction, then the ledger event for the summary
// worker. Neither can fail the originating request.
func (s *ExpenseService) afterLedgerWrite(ctx context.Context, familyUUID uuid.UUID, occurredAt time.Time, checkAlerts bool) {
	if checkAlerts && s.alerts != nil {
		s.alerts.OnLedgerChange(ctx, familyUUID, occurredAt)
	}

	if err := s.amqpClient.PublishLedgerChanged(ctx, familyUUID, occurredAt); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger change",
			"family_uuid", familyUUID, "error", err)
	}
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
