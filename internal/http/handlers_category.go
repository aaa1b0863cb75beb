package http

import (
	"net/http"

	"accountbook/internal/core"
)

type categoryView struct {
	UUID              string `json:"uuid"`
	Name              string `json:"name"`
	Color             string `json:"color"`
	Icon              string `json:"icon"`
	ExcludeFromBudget bool   `json:"exclude_from_budget"`
}

func newCategoryView(c *core.Category) categoryView {
	return categoryView{
		UUID:              c.UUID.String(),
		Name:              c.Name,
		Color:             c.Color,
		Icon:              c.Icon,
		ExcludeFromBudget: c.ExcludeFromBudget,
	}
}

type categoryRequest struct {
	Name              string `json:"name"`
	Color             string `json:"color"`
	Icon              string `json:"icon"`
	ExcludeFromBudget bool   `json:"exclude_from_budget"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
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

	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	category := &core.Category{
		FamilyUUID:        familyUUID,
		Name:              req.Name,
		Color:             req.Color,
		Icon:              req.Icon,
		ExcludeFromBudget: req.ExcludeFromBudget,
	}
	if err := s.categories.CreateCategory(r.Context(), actor, category); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCategoryView(category))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
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

	categories, err := s.categories.ListCategories(r.Context(), actor, familyUUID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	views := make([]categoryView, 0, len(categories))
	for i := range categories {
		views = append(views, newCategoryView(&categories[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": views})
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	actor, err := actingUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	categoryUUID, err := pathUUID(r, "uuid")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	category := &core.Category{
		UUID:              categoryUUID,
		Name:              req.Name,
		Color:             req.Color,
		Icon:              req.Icon,
		ExcludeFromBudget: req.ExcludeFromBudget,
	}
	if err := s.categories.UpdateCategory(r.Context(), actor, category); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newCategoryView(category))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	actor, err := actingUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	categoryUUID, err := pathUUID(r, "uuid")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.categories.DeleteCategory(r.Context(), actor, categoryUUID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
