package http

import (
	"net/http"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// handleListBudgets serves both budget list routes with the same shape,
// always scoped to the session user.
func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Budgets.List(r.Context(), session(r).UserID)
	if err != nil {
		s.fail(w, r, err, applog.OpList)
		return
	}
	NewJSONResponse().Body(map[string]any{"budgets": list}).Write(w)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	p, ok := s.parseBody(w, r, maxJSONBytes)
	if !ok {
		return
	}
	defer p.Close()
	if p.Get("category") == "" || !p.Has("limit") {
		BadRequestError("Missing fields: category or limit").Write(w)
		return
	}
	limit, err := parseAmount(p, "limit")
	if err != nil {
		s.fail(w, r, err, applog.OpCreate)
		return
	}

	b, err := s.svc.Budgets.Create(r.Context(), core.Budget{
		UserID:   session(r).UserID,
		Category: p.Get("category"),
		Limit:    limit,
	})
	if err != nil {
		s.fail(w, r, err, applog.OpCreate)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(map[string]any{
		"message": "Budget created successfully",
		"id":      b.ID,
		"budget":  b,
	}).Write(w)
}

// handleEditBudget changes the limit of one budget. A category in the body
// is ignored; categories are fixed once created.
func (s *Server) handleEditBudget(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err, applog.OpUpdate)
		return
	}
	p, ok := s.parseBody(w, r, maxJSONBytes)
	if !ok {
		return
	}
	defer p.Close()
	if !p.Has("limit") {
		BadRequestError("Missing field: limit").Write(w)
		return
	}
	limit, err := parseAmount(p, "limit")
	if err != nil {
		s.fail(w, r, err, applog.OpUpdate)
		return
	}

	b, err := s.svc.Budgets.UpdateLimit(r.Context(), session(r).UserID, id, limit)
	if err != nil {
		s.fail(w, r, err, applog.OpUpdate)
		return
	}
	NewJSONResponse().Body(map[string]any{
		"message": "Budget updated successfully",
		"budget":  b,
	}).Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	p, ok := s.parseBody(w, r, maxJSONBytes)
	if !ok {
		return
	}
	defer p.Close()
	id, err := p.ID("id")
	if err != nil {
		s.fail(w, r, err, applog.OpDelete)
		return
	}
	if err := s.svc.Budgets.Delete(r.Context(), session(r).UserID, id); err != nil {
		s.fail(w, r, err, applog.OpDelete)
		return
	}
	NewJSONResponse().Message("Budget deleted successfully").Write(w)
}
