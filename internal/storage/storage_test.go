package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"accountbook/internal/budget"
	"accountbook/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedFamily(t *testing.T, repo *Repository, budgetAmount string) *core.Family {
	t.Helper()
	f := &core.Family{
		UUID:          uuid.New(),
		Name:          "rossi",
		MonthlyBudget: decimal.RequireFromString(budgetAmount),
	}
	if err := repo.CreateFamily(context.Background(), f); err != nil {
		t.Fatalf("CreateFamily() error = %v", err)
	}
	return f
}

func seedCategory(t *testing.T, repo *Repository, familyUUID uuid.UUID, exclude bool) *core.Category {
	t.Helper()
	c := &core.Category{
		UUID:              uuid.New(),
		FamilyUUID:        familyUUID,
		Name:              "groceries-" + uuid.NewString()[:8],
		ExcludeFromBudget: exclude,
	}
	if err := repo.CreateCategory(context.Background(), c); err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	return c
}

func seedExpense(t *testing.T, repo *Repository, familyUUID, categoryUUID uuid.UUID, amount string, exclude bool, date time.Time) *core.Expense {
	t.Helper()
	e := &core.Expense{
		UUID:              uuid.New(),
		FamilyUUID:        familyUUID,
		CategoryUUID:      categoryUUID,
		UserUUID:          uuid.New(),
		Amount:            decimal.RequireFromString(amount),
		Date:              date,
		ExcludeFromBudget: exclude,
	}
	if err := repo.CreateExpense(context.Background(), e); err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}
	return e
}

var (
	monthStart = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	monthEnd   = time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC)
	midMonth   = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
)

func TestSumCountableExpenses_ExclusionPolicy(t *testing.T) {
	tests := []struct {
		name            string
		entryExcluded   bool
		categoryExclude bool
		want            string
	}{
		{"neither excluded", false, false, "10.00"},
		{"entry excluded", true, false, "0"},
		{"category excluded", false, true, "0"},
		{"both excluded", true, true, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := openTestRepo(t)
			family := seedFamily(t, repo, "100")
			category := seedCategory(t, repo, family.UUID, tt.categoryExclude)
			seedExpense(t, repo, family.UUID, category.UUID, "10", tt.entryExcluded, midMonth)

			got, err := repo.SumCountableExpenses(context.Background(), family.UUID, monthStart, monthEnd)
			if err != nil {
				t.Fatalf("SumCountableExpenses() error = %v", err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("sum = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSumCountableExpenses_DeletedCategoryDoesNotExclude(t *testing.T) {
	repo := openTestRepo(t)
	family := seedFamily(t, repo, "100")
	category := seedCategory(t, repo, family.UUID, true)
	seedExpense(t, repo, family.UUID, category.UUID, "10", false, midMonth)

	if err := repo.SoftDeleteCategory(context.Background(), category.UUID); err != nil {
		t.Fatalf("SoftDeleteCategory() error = %v", err)
	}

	// Only ACTIVE categories participate in the exclusion join.
	got, err := repo.SumCountableExpenses(context.Background(), family.UUID, monthStart, monthEnd)
	if err != nil {
		t.Fatalf("SumCountableExpenses() error = %v", err)
	}
	if !got.Equal(decimal.RequireFromString("10")) {
		t.Errorf("sum = %s, want 10", got)
	}
}

func TestSumCountableExpenses_IgnoresDeletedAndOutOfRange(t *testing.T) {
	repo := openTestRepo(t)
	family := seedFamily(t, repo, "100")
	category := seedCategory(t, repo, family.UUID, false)

	seedExpense(t, repo, family.UUID, category.UUID, "10", false, midMonth)
	deleted := seedExpense(t, repo, family.UUID, category.UUID, "20", false, midMonth)
	if err := repo.SoftDeleteExpense(context.Background(), deleted.UUID); err != nil {
		t.Fatalf("SoftDeleteExpense() error = %v", err)
	}
	seedExpense(t, repo, family.UUID, category.UUID, "30", false, monthEnd.AddDate(0, 0, 1))

	got, err := repo.SumCountableExpenses(context.Background(), family.UUID, monthStart, monthEnd)
	if err != nil {
		t.Fatalf("SumCountableExpenses() error = %v", err)
	}
	if !got.Equal(decimal.RequireFromString("10")) {
		t.Errorf("sum = %s, want 10", got)
	}
}

func TestSumCountableExpenses_EmptyLedgerIsZero(t *testing.T) {
	repo := openTestRepo(t)
	family := seedFamily(t, repo, "100")

	got, err := repo.SumCountableExpenses(context.Background(), family.UUID, monthStart, monthEnd)
	if err != nil {
		t.Fatalf("SumCountableExpenses() error = %v", err)
	}
	if !got.IsZero() {
		t.Errorf("sum = %s, want 0", got)
	}
}

func TestInsertNotification_DedupIndex(t *testing.T) {
	repo := openTestRepo(t)
	family := seedFamily(t, repo, "100")
	user := uuid.New()

	n := &core.Notification{
		UUID:       uuid.New(),
		FamilyUUID: family.UUID,
		UserUUID:   user,
		Type:       "BUDGET_50_EXCEEDED",
		Title:      "Budget 50% exceeded",
		Message:    "half spent",
		AlertMonth: "2025-03",
	}
	if err := repo.InsertNotification(context.Background(), n); err != nil {
		t.Fatalf("InsertNotification() error = %v", err)
	}

	dup := &core.Notification{
		UUID:       uuid.New(),
		FamilyUUID: family.UUID,
		UserUUID:   user,
		Type:       "BUDGET_50_EXCEEDED",
		Title:      "Budget 50% exceeded",
		Message:    "half spent again",
		AlertMonth: "2025-03",
	}
	err := repo.InsertNotification(context.Background(), dup)
	if !errors.Is(err, budget.ErrDuplicateAlert) {
		t.Fatalf("duplicate insert error = %v, want ErrDuplicateAlert", err)
	}

	// Different month, type or user must not collide.
	for _, variant := range []*core.Notification{
		{UUID: uuid.New(), FamilyUUID: family.UUID, UserUUID: user, Type: "BUDGET_50_EXCEEDED", Title: "t", Message: "m", AlertMonth: "2025-04"},
		{UUID: uuid.New(), FamilyUUID: family.UUID, UserUUID: user, Type: "BUDGET_80_EXCEEDED", Title: "t", Message: "m", AlertMonth: "2025-03"},
		{UUID: uuid.New(), FamilyUUID: family.UUID, UserUUID: uuid.New(), Type: "BUDGET_50_EXCEEDED", Title: "t", Message: "m", AlertMonth: "2025-03"},
	} {
		if err := repo.InsertNotification(context.Background(), variant); err != nil {
			t.Errorf("variant insert error = %v", err)
		}
	}
}

func TestInsertNotification_NonAlertRowsDoNotCollide(t *testing.T) {
	repo := openTestRepo(t)
	family := seedFamily(t, repo, "100")
	user := uuid.New()

	// Rows without an alert month sit outside the partial unique index.
	for i := 0; i < 2; i++ {
		n := &core.Notification{
			UUID:       uuid.New(),
			FamilyUUID: family.UUID,
			UserUUID:   user,
			Type:       "INVITE_ACCEPTED",
			Title:      "t",
			Message:    "m",
		}
		if err := repo.InsertNotification(context.Background(), n); err != nil {
			t.Fatalf("insert %d error = %v", i, err)
		}
	}
}

func TestListActiveMembers_FiltersInactive(t *testing.T) {
	repo := openTestRepo(t)
	family := seedFamily(t, repo, "100")

	owner := uuid.New()
	gone := uuid.New()
	for _, m := range []*core.FamilyMember{
		{FamilyUUID: family.UUID, UserUUID: owner, Role: core.RoleOwner},
		{FamilyUUID: family.UUID, UserUUID: gone, Role: core.RoleMember},
	} {
		if err := repo.AddMember(context.Background(), m); err != nil {
			t.Fatalf("AddMember() error = %v", err)
		}
	}
	if err := repo.SetMemberStatus(context.Background(), family.UUID, gone, core.MemberInactive); err != nil {
		t.Fatalf("SetMemberStatus() error = %v", err)
	}

	members, err := repo.ListActiveMembers(context.Background(), family.UUID)
	if err != nil {
		t.Fatalf("ListActiveMembers() error = %v", err)
	}
	if len(members) != 1 || members[0].UserUUID != owner {
		t.Errorf("active members = %v, want only owner", members)
	}
}

func TestAddMember_Duplicate(t *testing.T) {
	repo := openTestRepo(t)
	family := seedFamily(t, repo, "100")
	user := uuid.New()

	m := &core.FamilyMember{FamilyUUID: family.UUID, UserUUID: user, Role: core.RoleMember}
	if err := repo.AddMember(context.Background(), m); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}
	again := &core.FamilyMember{FamilyUUID: family.UUID, UserUUID: user, Role: core.RoleMember}
	if err := repo.AddMember(context.Background(), again); !errors.Is(err, core.ErrAlreadyMember) {
		t.Errorf("duplicate AddMember() error = %v, want ErrAlreadyMember", err)
	}
}

func TestAlertUnitOfWork_CommitsAndRollsBack(t *testing.T) {
	repo := openTestRepo(t)
	family := seedFamily(t, repo, "100")
	user := uuid.New()
	ctx := context.Background()

	uow := repo.AlertUnitOfWork()
	err := uow.Run(ctx, func(s budget.Store) error {
		return s.InsertNotification(ctx, &core.Notification{
			UUID: uuid.New(), FamilyUUID: family.UUID, UserUUID: user,
			Type: "BUDGET_50_EXCEEDED", Title: "t", Message: "m", AlertMonth: "2025-03",
		})
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	boom := errors.New("boom")
	err = uow.Run(ctx, func(s budget.Store) error {
		if err := s.InsertNotification(ctx, &core.Notification{
			UUID: uuid.New(), FamilyUUID: family.UUID, UserUUID: user,
			Type: "BUDGET_80_EXCEEDED", Title: "t", Message: "m", AlertMonth: "2025-03",
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want boom", err)
	}

	notifications, total, err := repo.ListNotificationsByUser(ctx, user, 0, 0)
	if err != nil {
		t.Fatalf("ListNotificationsByUser() error = %v", err)
	}
	if total != 1 || len(notifications) != 1 {
		t.Fatalf("notifications = %d, want 1 (rolled back insert must not persist)", total)
	}
	if notifications[0].Type != "BUDGET_50_EXCEEDED" {
		t.Errorf("surviving notification type = %s", notifications[0].Type)
	}
}

func TestFindActiveFamily_NotFoundIsNilNil(t *testing.T) {
	repo := openTestRepo(t)

	f, err := repo.FindActiveFamily(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("FindActiveFamily() error = %v", err)
	}
	if f != nil {
		t.Errorf("family = %v, want nil", f)
	}
}

func TestExpenseRoundTrip(t *testing.T) {
	repo := openTestRepo(t)
	family := seedFamily(t, repo, "100")
	category := seedCategory(t, repo, family.UUID, false)
	ctx := context.Background()

	e := seedExpense(t, repo, family.UUID, category.UUID, "42.50", false, midMonth)

	got, err := repo.FindActiveExpense(ctx, e.UUID)
	if err != nil {
		t.Fatalf("FindActiveExpense() error = %v", err)
	}
	if got == nil {
		t.Fatal("expense not found after insert")
	}
	if !got.Amount.Equal(decimal.RequireFromString("42.50")) {
		t.Errorf("amount = %s, want 42.50", got.Amount)
	}
	if !got.Date.Equal(midMonth) {
		t.Errorf("date = %v, want %v", got.Date, midMonth)
	}

	got.Amount = decimal.RequireFromString("50")
	got.Description = "updated"
	if err := repo.UpdateExpense(ctx, got); err != nil {
		t.Fatalf("UpdateExpense() error = %v", err)
	}

	if err := repo.SoftDeleteExpense(ctx, e.UUID); err != nil {
		t.Fatalf("SoftDeleteExpense() error = %v", err)
	}
	gone, err := repo.FindActiveExpense(ctx, e.UUID)
	if err != nil {
		t.Fatalf("FindActiveExpense() after delete error = %v", err)
	}
	if gone != nil {
		t.Error("soft-deleted expense still visible")
	}
}

func TestListExpenses_FilterAndPaging(t *testing.T) {
	repo := openTestRepo(t)
	family := seedFamily(t, repo, "100")
	groceries := seedCategory(t, repo, family.UUID, false)
	transport := seedCategory(t, repo, family.UUID, false)
	ctx := context.Background()

	for day := 1; day <= 5; day++ {
		seedExpense(t, repo, family.UUID, groceries.UUID, "10",
			false, time.Date(2025, 3, day, 12, 0, 0, 0, time.UTC))
	}
	seedExpense(t, repo, family.UUID, transport.UUID, "99", false, midMonth)

	expenses, total, err := repo.ListExpenses(ctx, ExpenseFilter{
		FamilyUUID:   family.UUID,
		CategoryUUID: groceries.UUID,
		Limit:        2,
		Offset:       0,
	})
	if err != nil {
		t.Fatalf("ListExpenses() error = %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(expenses) != 2 {
		t.Fatalf("page size = %d, want 2", len(expenses))
	}
	if !expenses[0].Date.After(expenses[1].Date) {
		t.Error("expenses not ordered newest first")
	}
}

func TestCategoryExpenseStats(t *testing.T) {
	repo := openTestRepo(t)
	family := seedFamily(t, repo, "100")
	groceries := seedCategory(t, repo, family.UUID, false)
	transport := seedCategory(t, repo, family.UUID, false)
	excluded := seedCategory(t, repo, family.UUID, true)
	ctx := context.Background()

	seedExpense(t, repo, family.UUID, groceries.UUID, "30", false, midMonth)
	seedExpense(t, repo, family.UUID, groceries.UUID, "20", false, midMonth)
	seedExpense(t, repo, family.UUID, transport.UUID, "15", false, midMonth)
	seedExpense(t, repo, family.UUID, excluded.UUID, "999", false, midMonth)

	stats, err := repo.CategoryExpenseStats(ctx, family.UUID, monthStart, monthEnd)
	if err != nil {
		t.Fatalf("CategoryExpenseStats() error = %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("stats rows = %d, want 2", len(stats))
	}
	if stats[0].CategoryUUID != groceries.UUID || !stats[0].Total.Equal(decimal.RequireFromString("50")) {
		t.Errorf("top category = %s %s, want groceries 50", stats[0].Name, stats[0].Total)
	}
	if stats[1].CategoryUUID != transport.UUID {
		t.Errorf("second category = %s, want transport", stats[1].Name)
	}
}

func TestInvitationLifecycle(t *testing.T) {
	repo := openTestRepo(t)
	family := seedFamily(t, repo, "100")
	ctx := context.Background()

	inv := &core.Invitation{
		UUID:       uuid.New(),
		FamilyUUID: family.UUID,
		Code:       "JOIN1234",
		CreatedBy:  uuid.New(),
		ExpiresAt:  time.Now().Add(48 * time.Hour),
	}
	if err := repo.CreateInvitation(ctx, inv); err != nil {
		t.Fatalf("CreateInvitation() error = %v", err)
	}

	found, err := repo.FindPendingInvitation(ctx, "JOIN1234")
	if err != nil {
		t.Fatalf("FindPendingInvitation() error = %v", err)
	}
	if found == nil || found.FamilyUUID != family.UUID {
		t.Fatalf("invitation lookup = %v", found)
	}

	joiner := uuid.New()
	if err := repo.MarkInvitationAccepted(ctx, inv.UUID, joiner); err != nil {
		t.Fatalf("MarkInvitationAccepted() error = %v", err)
	}
	if err := repo.MarkInvitationAccepted(ctx, inv.UUID, uuid.New()); !errors.Is(err, core.ErrInvitationUsed) {
		t.Errorf("second accept error = %v, want ErrInvitationUsed", err)
	}

	if found, _ := repo.FindPendingInvitation(ctx, "JOIN1234"); found != nil {
		t.Error("accepted invitation still pending")
	}
}

func TestFindPendingInvitation_Expired(t *testing.T) {
	repo := openTestRepo(t)
	family := seedFamily(t, repo, "100")
	ctx := context.Background()

	inv := &core.Invitation{
		UUID:       uuid.New(),
		FamilyUUID: family.UUID,
		Code:       "OLDCODE1",
		CreatedBy:  uuid.New(),
		ExpiresAt:  time.Now().Add(-time.Hour),
	}
	if err := repo.CreateInvitation(ctx, inv); err != nil {
		t.Fatalf("CreateInvitation() error = %v", err)
	}

	found, err := repo.FindPendingInvitation(ctx, "OLDCODE1")
	if err != nil {
		t.Fatalf("FindPendingInvitation() error = %v", err)
	}
	if found != nil {
		t.Error("expired invitation returned")
	}
}

func TestMonthlySummaryUpsert(t *testing.T) {
	repo := openTestRepo(t)
	family := seedFamily(t, repo, "100")
	ctx := context.Background()

	s := &MonthlySummary{
		FamilyUUID: family.UUID,
		Month:      "2025-03",
		Total:      decimal.RequireFromString("120.50"),
	}
	if err := repo.UpsertMonthlySummary(ctx, s); err != nil {
		t.Fatalf("UpsertMonthlySummary() error = %v", err)
	}

	s.Total = decimal.RequireFromString("200")
	if err := repo.UpsertMonthlySummary(ctx, s); err != nil {
		t.Fatalf("second UpsertMonthlySummary() error = %v", err)
	}

	got, err := repo.GetMonthlySummary(ctx, family.UUID, "2025-03")
	if err != nil {
		t.Fatalf("GetMonthlySummary() error = %v", err)
	}
	if got == nil || !got.Total.Equal(decimal.RequireFromString("200")) {
		t.Errorf("summary = %v, want total 200", got)
	}

	missing, err := repo.GetMonthlySummary(ctx, family.UUID, "2025-04")
	if err != nil {
		t.Fatalf("GetMonthlySummary() missing month error = %v", err)
	}
	if missing != nil {
		t.Error("unexpected summary for empty month")
	}
}

func TestMarkNotificationRead_WrongUser(t *testing.T) {
	repo := openTestRepo(t)
	family := seedFamily(t, repo, "100")
	owner := uuid.New()
	ctx := context.Background()

	n := &core.Notification{
		UUID: uuid.New(), FamilyUUID: family.UUID, UserUUID: owner,
		Type: "BUDGET_50_EXCEEDED", Title: "t", Message: "m", AlertMonth: "2025-03",
	}
	if err := repo.InsertNotification(ctx, n); err != nil {
		t.Fatalf("InsertNotification() error = %v", err)
	}

	if err := repo.MarkNotificationRead(ctx, n.UUID, uuid.New()); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("foreign MarkNotificationRead() error = %v, want ErrNotFound", err)
	}
	if err := repo.MarkNotificationRead(ctx, n.UUID, owner); err != nil {
		t.Fatalf("MarkNotificationRead() error = %v", err)
	}

	unread, err := repo.CountUnreadNotifications(ctx, owner)
	if err != nil {
		t.Fatalf("CountUnreadNotifications() error = %v", err)
	}
	if unread != 0 {
		t.Errorf("unread = %d, want 0", unread)
	}
}
