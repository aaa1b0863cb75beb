package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Lifecycle status tags. Soft deletion is an explicit status change,
// never a nullable timestamp.
const (
	StatusActive  Status = "ACTIVE"
	StatusDeleted Status = "DELETED"
)

// Family member states. Only ACTIVE members receive budget alerts.
const (
	MemberActive   MemberStatus = "ACTIVE"
	MemberInactive MemberStatus = "INACTIVE"
)

const (
	RoleOwner  MemberRole = "OWNER"
	RoleMember MemberRole = "MEMBER"
)

// Invitation states.
const (
	InvitationPending  InvitationStatus = "PENDING"
	InvitationAccepted InvitationStatus = "ACCEPTED"
)

type (
	Status           string
	MemberStatus     string
	MemberRole       string
	InvitationStatus string

	// Family is the budgeting unit. A zero MonthlyBudget disables alerts.
	Family struct {
		ID            int64
		UUID          uuid.UUID
		Name          string
		MonthlyBudget decimal.Decimal
		Status        Status
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}

	FamilyMember struct {
		ID         int64
		FamilyUUID uuid.UUID
		UserUUID   uuid.UUID
		Role       MemberRole
		Status     MemberStatus
		JoinedAt   time.Time
	}

	Category struct {
		ID                int64
		UUID              uuid.UUID
		FamilyUUID        uuid.UUID
		Name              string
		Color             string
		Icon              string
		ExcludeFromBudget bool
		Status            Status
		CreatedAt         time.Time
		UpdatedAt         time.Time
	}

	Expense struct {
		ID                int64
		UUID              uuid.UUID
		FamilyUUID        uuid.UUID
		CategoryUUID      uuid.UUID
		UserUUID          uuid.UUID
		Amount            decimal.Decimal
		Description       string
		Date              time.Time
		ExcludeFromBudget bool
		Status            Status
		CreatedAt         time.Time
		UpdatedAt         time.Time
	}

	Income struct {
		ID          int64
		UUID        uuid.UUID
		FamilyUUID  uuid.UUID
		UserUUID    uuid.UUID
		Amount      decimal.Decimal
		Description string
		Date        time.Time
		Status      Status
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	Invitation struct {
		ID         int64
		UUID       uuid.UUID
		FamilyUUID uuid.UUID
		Code       string
		CreatedBy  uuid.UUID
		AcceptedBy uuid.UUID
		Status     InvitationStatus
		ExpiresAt  time.Time
		CreatedAt  time.Time
	}

	// Notification is an alert record addressed to exactly one family member.
	// At most one row may exist per (family, user, type, alert month).
	Notification struct {
		ID            int64
		UUID          uuid.UUID
		FamilyUUID    uuid.UUID
		UserUUID      uuid.UUID
		Type          string
		Title         string
		Message       string
		ReferenceType string
		AlertMonth    string // YYYY-MM
		IsRead        bool
		CreatedAt     time.Time
	}
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrEmptyName      = errors.New("empty name")
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
	ErrAlreadyMember  = errors.New("already a family member")
	ErrInvitationUsed = errors.New("invitation no longer valid")
)

func (f Family) BudgetEnabled() bool {
	return f.MonthlyBudget.Sign() > 0
}

func (m FamilyMember) IsOwner() bool {
	return m.Role == RoleOwner
}

func (e Expense) Validate() error {
	if e.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if e.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	if len(e.Description) > 500 {
		return errors.New("description too long (max 500 characters)")
	}
	return nil
}

func (i Income) Validate() error {
	if i.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if i.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	if len(i.Description) > 500 {
		return errors.New("description too long (max 500 characters)")
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 50 {
		return errors.New("name too long (max 50 characters)")
	}
	if c.Color != "" && !validHexColor(c.Color) {
		return errors.New("invalid color code")
	}
	return nil
}

func (f Family) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return ErrEmptyName
	}
	if len(f.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if f.MonthlyBudget.Sign() < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (n Notification) Validate() error {
	if n.Type == "" || n.Title == "" || n.Message == "" {
		return errors.New("incomplete notification")
	}
	if n.UserUUID == uuid.Nil {
		return errors.New("notification requires a recipient")
	}
	return nil
}

func validHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, r := range s[1:] {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
