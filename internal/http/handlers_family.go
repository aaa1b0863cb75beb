package http

import (
	"net/http"
	"time"

	"accountbook/internal/core"

	"github.com/shopspring/decimal"
)

type familyView struct {
	UUID          string `json:"uuid"`
	Name          string `json:"name"`
	MonthlyBudget string `json:"monthly_budget"`
	BudgetEnabled bool   `json:"budget_enabled"`
	CreatedAt     string `json:"created_at"`
}

func newFamilyView(f *core.Family) familyView {
	return familyView{
		UUID:          f.UUID.String(),
		Name:          f.Name,
		MonthlyBudget: f.MonthlyBudget.String(),
		BudgetEnabled: f.BudgetEnabled(),
		CreatedAt:     f.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type memberView struct {
	UserUUID string `json:"user_uuid"`
	Role     string `json:"role"`
	JoinedAt string `json:"joined_at"`
}

func (s *Server) handleCreateFamily(w http.ResponseWriter, r *http.Request) {
	actor, err := actingUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req struct {
		Name          string `json:"name"`
		MonthlyBudget string `json:"monthly_budget"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	monthlyBudget := decimal.Zero
	if req.MonthlyBudget != "" {
		monthlyBudget, err = core.ParseAmount(req.MonthlyBudget)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid monthly budget")
			return
		}
	}

	family, err := s.families.CreateFamily(r.Context(), actor, req.Name, monthlyBudget)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newFamilyView(family))
}

func (s *Server) handleGetFamily(w http.ResponseWriter, r *http.Request) {
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

	family, err := s.families.GetFamily(r.Context(), actor, familyUUID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newFamilyView(family))
}

func (s *Server) handleRenameFamily(w http.ResponseWriter, r *http.Request) {
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

	var req struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.families.RenameFamily(r.Context(), actor, familyUUID, req.Name); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDeleteFamily(w http.ResponseWriter, r *http.Request) {
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

	if err := s.families.DeleteFamily(r.Context(), actor, familyUUID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleSetMonthlyBudget(w http.ResponseWriter, r *http.Request) {
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

	var req struct {
		MonthlyBudget string `json:"monthly_budget"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// "0" is a valid value and disables alerts.
	amount := decimal.Zero
	if req.MonthlyBudget != "" && req.MonthlyBudget != "0" {
		amount, err = core.ParseAmount(req.MonthlyBudget)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid monthly budget")
			return
		}
	}

	if err := s.families.SetMonthlyBudget(r.Context(), actor, familyUUID, amount); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
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

	members, err := s.families.ListMembers(r.Context(), actor, familyUUID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	views := make([]memberView, 0, len(members))
	for _, m := range members {
		views = append(views, memberView{
			UserUUID: m.UserUUID.String(),
			Role:     string(m.Role),
			JoinedAt: m.JoinedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": views})
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
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
	userUUID, err := pathUUID(r, "user")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.families.RemoveMember(r.Context(), actor, familyUUID, userUUID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleCreateInvitation(w http.ResponseWriter, r *http.Request) {
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

	inv, err := s.families.CreateInvitation(r.Context(), actor, familyUUID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"code":       inv.Code,
		"expires_at": inv.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleAcceptInvitation(w http.ResponseWriter, r *http.Request) {
	actor, err := actingUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	family, err := s.families.AcceptInvitation(r.Context(), actor, req.Code)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newFamilyView(family))
}
