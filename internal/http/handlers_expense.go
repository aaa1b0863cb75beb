package http

import (
	"net/http"
	"time"

	"accountbook/internal/core"
	"accountbook/internal/storage"

	"github.com/google/uuid"
)

type expenseView struct {
	UUID              string `json:"uuid"`
	CategoryUUID      string `json:"category_uuid"`
	UserUUID          string `json:"user_uuid"`
	Amount            string `json:"amount"`
	Description       string `json:"description"`
	Date              string `json:"date"`
	ExcludeFromBudget bool   `json:"exclude_from_budget"`
}

func newExpenseView(e *core.Expense) expenseView {
	return expenseView{
		UUID:              e.UUID.String(),
		CategoryUUID:      e.CategoryUUID.String(),
		UserUUID:          e.UserUUID.String(),
		Amount:            e.Amount.String(),
		Description:       e.Description,
		Date:              e.Date.UTC().Format("2006-01-02"),
		ExcludeFromBudget: e.ExcludeFromBudget,
	}
}

type expenseRequest struct {
	CategoryUUID      string `json:"category_uuid"`
	Amount            string `json:"amount"`
	Description       string `json:"description"`
	Date              string `json:"date"`
	ExcludeFromBudget bool   `json:"exclude_from_budget"`
}

func (req expenseRequest) toExpense() (*core.Expense, error) {
	categoryUUID, err := uuid.Parse(req.CategoryUUID)
	if err != nil {
		return nil, errBadField("category_uuid")
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		return nil, core.ErrInvalidAmount
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, errBadField("date")
	}
	return &core.Expense{
		CategoryUUID:      categoryUUID,
		Amount:            amount,
		Description:       req.Description,
		Date:              date,
		ExcludeFromBudget: req.ExcludeFromBudget,
	}, nil
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	actor, err := actingUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	familyUUID, err := pathUUID(r, "uuid")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req expenseRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	expense, err := req.toExpense()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	expense.FamilyUUID = familyUUID

	if err := s.expenses.CreateExpense(r.Context(), actor, expense); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newExpenseView(expense))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	actor, err := actingUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	familyUUID, err := pathUUID(r, "uuid")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit, offset := parsePagination(r)
	filter := storage.ExpenseFilter{
		FamilyUUID: familyUUID,
		Limit:      limit,
		Offset:     offset,
	}
	if v := r.URL.Query().Get("category"); v != "" {
		categoryUUID, err := uuid.Parse(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid category")
			return
		}
		filter.CategoryUUID = categoryUUID
	}
	if v := r.URL.Query().Get("from"); v != "" {
		if filter.Start, err = parseDate(v); err != nil {
			writeError(w, http.StatusBadRequest, "invalid from date")
			return
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		to, err := parseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to date")
			return
		}
		filter.End = to.Add(24*time.Hour - time.Second)
	}

	expenses, total, err := s.expenses.ListExpenses(r.Context(), actor, filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	views := make([]expenseView, 0, len(expenses))
	for i := range expenses {
		views = append(views, newExpenseView(&expenses[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"expenses": views,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	actor, err := actingUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	expenseUUID, err := pathUUID(r, "uuid")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	expense, err := s.expenses.GetExpense(r.Context(), actor, expenseUUID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newExpenseView(expense))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	actor, err := actingUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	expenseUUID, err := pathUUID(r, "uuid")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req expenseRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	expense, err := req.toExpense()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	expense.UUID = expenseUUID

	if err := s.expenses.UpdateExpense(r.Context(), actor, expense); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newExpenseView(expense))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	actor, err := actingUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	expenseUUID, err := pathUUID(r, "uuid")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.expenses.DeleteExpense(r.Context(), actor, expenseUUID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
