package services

import (
	"context"
	"fmt"
	"time"

	"accountbook/internal/core"
	"accountbook/internal/storage"

	"github.com/google/uuid"
)

// IncomeService handles income CRUD. Incomes never count against the
// monthly budget, so there is no alert hook.
type IncomeService struct {
	repo *storage.Repository
}

func NewIncomeService(repo *storage.Repository) *IncomeService {
	return &IncomeService{repo: repo}
}

func (s *IncomeService) CreateIncome(ctx context.Context, actor uuid.UUID, in *core.Income) error {
	if err := in.Validate(); err != nil {
		return err
	}
	if _, err := requireActiveMember(ctx, s.repo, in.FamilyUUID, actor); err != nil {
		return err
	}

	if in.UUID == uuid.Nil {
		in.UUID = uuid.New()
	}
	in.UserUUID = actor

	if err := s.repo.CreateIncome(ctx, in); err != nil {
		return fmt.Errorf("create income: %w", err)
	}
	return nil
}

func (s *IncomeService) UpdateIncome(ctx context.Context, actor uuid.UUID, in *core.Income) error {
	if err := in.Validate(); err != nil {
		return err
	}

	existing, err := s.repo.FindActiveIncome(ctx, in.UUID)
	if err != nil {
		return fmt.Errorf("load income: %w", err)
	}
	if existing == nil {
		return core.ErrNotFound
	}
	if _, err := requireActiveMember(ctx, s.repo, existing.FamilyUUID, actor); err != nil {
		return err
	}

	if err := s.repo.UpdateIncome(ctx, in); err != nil {
		return fmt.Errorf("update income: %w", err)
	}
	return nil
}

func (s *IncomeService) DeleteIncome(ctx context.Context, actor, incomeUUID uuid.UUID) error {
	existing, err := s.repo.FindActiveIncome(ctx, incomeUUID)
	if err != nil {
		return fmt.Errorf("load income: %w", err)
	}
	if existing == nil {
		return core.ErrNotFound
	}
	if _, err := requireActiveMember(ctx, s.repo, existing.FamilyUUID, actor); err != nil {
		return err
	}
	return s.repo.SoftDeleteIncome(ctx, incomeUUID)
}

func (s *IncomeService) ListIncomes(ctx context.Context, actor, familyUUID uuid.UUID, start, end time.Time, limit, offset int) ([]core.Income, error) {
	if _, err := requireActiveMember(ctx, s.repo, familyUUID, actor); err != nil {
		return nil, err
	}
	return s.repo.ListIncomes(ctx, familyUUID, start, end, limit, offset)
}
