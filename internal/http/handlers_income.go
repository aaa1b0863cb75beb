package http

import (
	"net/http"
	"time"

	"accountbook/internal/core"
)

type incomeView struct {
	UUID        string `json:"uuid"`
	UserUUID    string `json:"user_uuid"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

func newIncomeView(in *core.Income) incomeView {
	return incomeView{
		UUID:        in.UUID.String(),
		UserUUID:    in.UserUUID.String(),
		Amount:      in.Amount.String(),
		Description: in.Description,
		Date:        in.Date.UTC().Format("2006-01-02"),
	}
}

type incomeRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

func (req incomeRequest) toIncome() (*core.Income, error) {
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		return nil, core.ErrInvalidAmount
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, errBadField("date")
	}
	return &core.Income{
		Amount:      amount,
		Description: req.Description,
		Date:        date,
	}, nil
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
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

	var req incomeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	income, err := req.toIncome()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	income.FamilyUUID = familyUUID

	if err := s.incomes.CreateIncome(r.Context(), actor, income); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newIncomeView(income))
}

func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request) {
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

	var start, end time.Time
	if v := r.URL.Query().Get("from"); v != "" {
		if start, err = parseDate(v); err != nil {
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
		end = to.Add(24*time.Hour - time.Second)
	}
	limit, offset := parsePagination(r)

	incomes, err := s.incomes.ListIncomes(r.Context(), actor, familyUUID, start, end, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	views := make([]incomeView, 0, len(incomes))
	for i := range incomes {
		views = append(views, newIncomeView(&incomes[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"incomes": views})
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	actor, err := actingUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	incomeUUID, err := pathUUID(r, "uuid")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req incomeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	income, err := req.toIncome()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	income.UUID = incomeUUID

	if err := s.incomes.UpdateIncome(r.Context(), actor, income); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newIncomeView(income))
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	actor, err := actingUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	incomeUUID, err := pathUUID(r, "uuid")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.incomes.DeleteIncome(r.Context(), actor, incomeUUID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
