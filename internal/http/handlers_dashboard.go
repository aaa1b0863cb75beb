package http

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

type categoryStatView struct {
	CategoryUUID string `json:"category_uuid"`
	Name         string `json:"name"`
	Total        string `json:"total"`
	Percent      string `json:"percent"`
}

func (s *Server) handleMonthlyStats(w http.ResponseWriter, r *http.Request) {
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

	stats, err := s.dashboard.GetMonthlyStats(r.Context(), actor, familyUUID, parseMonthRef(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	categories := make([]categoryStatView, 0, len(stats.Categories))
	for _, c := range stats.Categories {
		percent := decimal.Zero
		if stats.Spend.Sign() > 0 {
			percent = c.Total.DivRound(stats.Spend, 3).Mul(decimal.NewFromInt(100)).Round(1)
		}
		categories = append(categories, categoryStatView{
			CategoryUUID: c.CategoryUUID.String(),
			Name:         c.Name,
			Total:        c.Total.String(),
			Percent:      percent.String(),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"month":         stats.Month,
		"budget":        stats.Budget.String(),
		"spend":         stats.Spend.String(),
		"income":        stats.Income.String(),
		"usage_percent": stats.UsagePercent.String(),
		"categories":    categories,
	})
}

func (s *Server) handleCachedSummary(w http.ResponseWriter, r *http.Request) {
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
	month, err := parsePeriodKey(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := s.dashboard.GetCachedSummary(r.Context(), actor, familyUUID, month)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if summary == nil {
		writeError(w, http.StatusNotFound, "no summary for month")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"month":        summary.Month,
		"total":        summary.Total.String(),
		"refreshed_at": summary.RefreshedAt.UTC().Format(time.RFC3339),
	})
}
