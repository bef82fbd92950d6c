package http

import (
	"net/http"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request) {
	criteria := core.ParseCriteria(r.URL.Query())
	list, summary, err := s.svc.Incomes.List(r.Context(), session(r).UserID, criteria)
	if err != nil {
		s.fail(w, r, err, applog.OpList)
		return
	}
	NewJSONResponse().Body(map[string]any{
		"incomes": list,
		"summary": summary,
	}).Write(w)
}

func (s *Server) handleGetIncome(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.URL.Query().Get("id"))
	if err != nil {
		s.fail(w, r, err, applog.OpRead)
		return
	}
	in, err := s.svc.Incomes.Get(r.Context(), session(r).UserID, id)
	if err != nil {
		s.fail(w, r, err, applog.OpRead)
		return
	}
	NewJSONResponse().Body(map[string]any{"income": in}).Write(w)
}

func applyIncomeFields(p *RequestBodyParser, in *core.Income, partial bool) error {
	if !partial || p.Has("name") {
		in.Name = p.Get("name")
	}
	if !partial || p.Has("source") {
		in.Source = p.Get("source")
	}
	if !partial || p.Has("amount") {
		m, err := parseAmount(p, "amount")
		if err != nil {
			return err
		}
		in.Amount = m
	}
	if !partial || p.Has("date") {
		d, err := parseDate(p, "date")
		if err != nil {
			return err
		}
		in.Date = d
	}
	if !partial || p.Has("notes") {
		in.Notes = p.Get("notes")
	}
	return nil
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	p, ok := s.parseBody(w, r, maxJSONBytes)
	if !ok {
		return
	}
	defer p.Close()

	in := core.Income{UserID: session(r).UserID}
	if err := applyIncomeFields(p, &in, false); err != nil {
		s.fail(w, r, err, applog.OpCreate)
		return
	}
	created, err := s.svc.Incomes.Create(r.Context(), in)
	if err != nil {
		s.fail(w, r, err, applog.OpCreate)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(map[string]any{
		"message": "Income added successfully",
		"income":  created,
	}).Write(w)
}

func (s *Server) handleEditIncome(w http.ResponseWriter, r *http.Request) {
	p, ok := s.parseBody(w, r, maxJSONBytes)
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
	in, err := s.svc.Incomes.Get(r.Context(), userID, id)
	if err != nil {
		s.fail(w, r, err, applog.OpUpdate)
		return
	}
	if err := applyIncomeFields(p, &in, true); err != nil {
		s.fail(w, r, err, applog.OpUpdate)
		return
	}
	updated, err := s.svc.Incomes.Update(r.Context(), in)
	if err != nil {
		s.fail(w, r, err, applog.OpUpdate)
		return
	}
	NewJSONResponse().Body(map[string]any{
		"message": "Income updated successfully",
		"income":  updated,
	}).Write(w)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
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
	if err := s.svc.Incomes.Delete(r.Context(), session(r).UserID, id); err != nil {
		s.fail(w, r, err, applog.OpDelete)
		return
	}
	NewJSONResponse().Message("Income deleted successfully").Write(w)
}
