package http

import (
	"net/http"
	"path/filepath"
	"strings"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	criteria := core.ParseCriteria(r.URL.Query())
	list, summary, err := s.svc.Expenses.List(r.Context(), session(r).UserID, criteria)
	if err != nil {
		s.fail(w, r, err, applog.OpList)
		return
	}
	NewJSONResponse().Body(map[string]any{
		"expenses": list,
		"summary":  summary,
	}).Write(w)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.URL.Query().Get("id"))
	if err != nil {
		s.fail(w, r, err, applog.OpRead)
		return
	}
	e, err := s.svc.Expenses.Get(r.Context(), session(r).UserID, id)
	if err != nil {
		s.fail(w, r, err, applog.OpRead)
		return
	}
	NewJSONResponse().Body(map[string]any{"expense": e}).Write(w)
}

// applyExpenseFields copies the submitted fields onto e. With partial set,
// absent fields keep their current value.
func applyExpenseFields(p *RequestBodyParser, e *core.Expense, partial bool) error {
	if !partial || p.Has("name") {
		e.Name = p.Get("name")
	}
	if !partial || p.Has("category") {
		e.Category = p.Get("category")
	}
	if !partial || p.Has("amount") {
		m, err := parseAmount(p, "amount")
		if err != nil {
			return err
		}
		e.Amount = m
	}
	if !partial || p.Has("date") {
		d, err := parseDate(p, "date")
		if err != nil {
			return err
		}
		e.Date = d
	}
	if !partial || p.Has("notes") {
		e.Notes = p.Get("notes")
	}
	return nil
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	p, ok := s.parseBody(w, r, s.maxUpload)
	if !ok {
		return
	}
	defer p.Close()

	e := core.Expense{UserID: session(r).UserID}
	if err := applyExpenseFields(p, &e, false); err != nil {
		s.fail(w, r, err, applog.OpCreate)
		return
	}
	receipt, closeReceipt, err := upload(p)
	if err != nil {
		s.fail(w, r, err, applog.OpCreate)
		return
	}
	defer closeReceipt()

	created, err := s.svc.Expenses.Create(r.Context(), e, receipt)
	if err != nil {
		s.fail(w, r, err, applog.OpCreate)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(map[string]any{
		"message": "Expense added successfully",
		"expense": created,
	}).Write(w)
}

func (s *Server) handleEditExpense(w http.ResponseWriter, r *http.Request) {
	p, ok := s.parseBody(w, r, s.maxUpload)
	if !ok {
		return
	}
	defer p.Close()

	userID := session(r).UserID
	id, err := p.ID("id")
	if err != nil {
		s.fail(w, r, err, applog.OpUpdate)
		return
	}
	e, err := s.svc.Expenses.Get(r.Context(), userID, id)
	if err != nil {
		s.fail(w, r, err, applog.OpUpdate)
		return
	}
	if err := applyExpenseFields(p, &e, true); err != nil {
		s.fail(w, r, err, applog.OpUpdate)
		return
	}
	receipt, closeReceipt, err := upload(p)
	if err != nil {
		s.fail(w, r, err, applog.OpUpdate)
		return
	}
	defer closeReceipt()

	updated, err := s.svc.Expenses.Update(r.Context(), e, receipt, truthy(p.Get("remove_receipt")))
	if err != nil {
		s.fail(w, r, err, applog.OpUpdate)
		return
	}
	NewJSONResponse().Body(map[string]any{
		"message": "Expense updated successfully",
		"expense": updated,
	}).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
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
	if err := s.svc.Expenses.Delete(r.Context(), session(r).UserID, id); err != nil {
		s.fail(w, r, err, applog.OpDelete)
		return
	}
	NewJSONResponse().Message("Expense deleted successfully").Write(w)
}

// handleReceipt streams the receipt file of an expense to its owner.
func (s *Server) handleReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.URL.Query().Get("id"))
	if err != nil {
		s.fail(w, r, err, applog.OpRead)
		return
	}
	f, err := s.svc.Expenses.Receipt(r.Context(), session(r).UserID, id)
	if err != nil {
		s.fail(w, r, err, applog.OpRead)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.fail(w, r, err, applog.OpRead)
		return
	}
	w.Header().Set("Content-Disposition", `inline; filename="receipt`+filepath.Ext(info.Name())+`"`)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func truthy(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
