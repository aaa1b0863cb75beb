package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"accountbook/internal/core"
	"accountbook/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const invitationTTL = 7 * 24 * time.Hour

// FamilyService manages families, membership and invitations. Budget and
// name changes are owner-only.
type FamilyService struct {
	repo *storage.Repository
}

func NewFamilyService(repo *storage.Repository) *FamilyService {
	return &FamilyService{repo: repo}
}

// CreateFamily stores the family and enrolls the creator as its owner.
func (s *FamilyService) CreateFamily(ctx context.Context, actor uuid.UUID, name string, monthlyBudget decimal.Decimal) (*core.Family, error) {
	family := &core.Family{
		UUID:          uuid.New(),
		Name:          name,
		MonthlyBudget: monthlyBudget,
	}
	if err := family.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.CreateFamily(ctx, family); err != nil {
		return nil, fmt.Errorf("create family: %w", err)
	}

	owner := &core.FamilyMember{
		FamilyUUID: family.UUID,
		UserUUID:   actor,
		Role:       core.RoleOwner,
	}
	if err := s.repo.AddMember(ctx, owner); err != nil {
		return nil, fmt.Errorf("enroll owner: %w", err)
	}

	return family, nil
}

func (s *FamilyService) GetFamily(ctx context.Context, actor, familyUUID uuid.UUID) (*core.Family, error) {
	if _, err := requireActiveMember(ctx, s.repo, familyUUID, actor); err != nil {
		return nil, err
	}

	family, err := s.repo.FindActiveFamily(ctx, familyUUID)
	if err != nil {
		return nil, fmt.Errorf("load family: %w", err)
	}
	if family == nil {
		return nil, core.ErrNotFound
	}
	return family, nil
}

func (s *FamilyService) RenameFamily(ctx context.Context, actor, familyUUID uuid.UUID, name string) error {
	if err := (core.Family{Name: name}).Validate(); err != nil {
		return err
	}
	if _, err := requireOwner(ctx, s.repo, familyUUID, actor); err != nil {
		return err
	}
	return s.repo.UpdateFamilyName(ctx, familyUUID, name)
}

// SetMonthlyBudget updates the alert threshold base. Zero disables alerts.
func (s *FamilyService) SetMonthlyBudget(ctx context.Context, actor, familyUUID uuid.UUID, amount decimal.Decimal) error {
	if amount.Sign() < 0 {
		return core.ErrInvalidAmount
	}
	if _, err := requireOwner(ctx, s.repo, familyUUID, actor); err != nil {
		return err
	}
	return s.repo.UpdateMonthlyBudget(ctx, familyUUID, amount)
}

func (s *FamilyService) DeleteFamily(ctx context.Context, actor, familyUUID uuid.UUID) error {
	if _, err := requireOwner(ctx, s.repo, familyUUID, actor); err != nil {
		return err
	}
	return s.repo.SoftDeleteFamily(ctx, familyUUID)
}

func (s *FamilyService) ListMembers(ctx context.Context, actor, familyUUID uuid.UUID) ([]core.FamilyMember, error) {
	if _, err := requireActiveMember(ctx, s.repo, familyUUID, actor); err != nil {
		return nil, err
	}
	return s.repo.ListActiveMembers(ctx, familyUUID)
}

// RemoveMember deactivates a member. Owners cannot remove themselves so a
// family is never left without an owner.
func (s *FamilyService) RemoveMember(ctx context.Context, actor, familyUUID, userUUID uuid.UUID) error {
	if _, err := requireOwner(ctx, s.repo, familyUUID, actor); err != nil {
		return err
	}
	if actor == userUUID {
		return core.ErrForbidden
	}
	return s.repo.SetMemberStatus(ctx, familyUUID, userUUID, core.MemberInactive)
}

// CreateInvitation issues a single-use join code valid for one week. Any
// active member can invite.
func (s *FamilyService) CreateInvitation(ctx context.Context, actor, familyUUID uuid.UUID) (*core.Invitation, error) {
	if _, err := requireActiveMember(ctx, s.repo, familyUUID, actor); err != nil {
		return nil, err
	}

	code, err := invitationCode()
	if err != nil {
		return nil, fmt.Errorf("generate invitation code: %w", err)
	}

	inv := &core.Invitation{
		UUID:       uuid.New(),
		FamilyUUID: familyUUID,
		Code:       code,
		CreatedBy:  actor,
		ExpiresAt:  time.Now().Add(invitationTTL),
	}
	if err := s.repo.CreateInvitation(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invitation: %w", err)
	}
	return inv, nil
}

// AcceptInvitation joins the actor to the invitation's family and consumes
// the code. An already-member actor leaves the code pending.
func (s *FamilyService) AcceptInvitation(ctx context.Context, actor uuid.UUID, code string) (*core.Family, error) {
	inv, err := s.repo.FindPendingInvitation(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("find invitation: %w", err)
	}
	if inv == nil {
		return nil, core.ErrInvitationUsed
	}

	family, err := s.repo.FindActiveFamily(ctx, inv.FamilyUUID)
	if err != nil {
		return nil, fmt.Errorf("load family: %w", err)
	}
	if family == nil {
		return nil, core.ErrNotFound
	}

	member := &core.FamilyMember{
		FamilyUUID: inv.FamilyUUID,
		UserUUID:   actor,
		Role:       core.RoleMember,
	}
	if err := s.repo.AddMember(ctx, member); err != nil {
		return nil, err
	}

	if err := s.repo.MarkInvitationAccepted(ctx, inv.UUID, actor); err != nil {
		return nil, err
	}
	return family, nil
}

// invitationCode draws 8 characters from an unambiguous alphabet.
func invitationCode() (string, error) {
	const alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buf), nil
}
