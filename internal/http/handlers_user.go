package http

import (
	"errors"
	"net/http"
	"time"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

type userView struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func viewOf(u core.User) userView {
	return userView{ID: u.ID, Username: u.Username, Email: u.Email}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	p, ok := s.parseBody(w, r, maxJSONBytes)
	if !ok {
		return
	}
	defer p.Close()

	reg := services.Registration{
		Username:        p.Get("name"),
		Email:           p.Get("email"),
		Password:        p.Raw("password"),
		ConfirmPassword: p.Raw("confirm_password"),
	}
	if reg.Username == "" || reg.Email == "" || reg.Password == "" {
		BadRequestError("All fields are required.").Write(w)
		return
	}

	u, err := s.svc.Users.Register(r.Context(), reg)
	if err != nil {
		s.fail(w, r, err, applog.OpRegister)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(map[string]any{
		"message": "User registered successfully.",
		"user":    viewOf(u),
	}).Write(w)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	p, ok := s.parseBody(w, r, maxJSONBytes)
	if !ok {
		return
	}
	defer p.Close()
	name, password := p.Get("name"), p.Raw("password")
	if name == "" || password == "" {
		BadRequestError("Username and password required.").Write(w)
		return
	}

	u, err := s.svc.Users.Authenticate(r.Context(), name, password)
	if err != nil {
		s.fail(w, r, err, applog.OpLogin)
		return
	}
	token, sess, err := s.tokens.Issue(u.ID, u.Username)
	if err != nil {
		s.fail(w, r, err, applog.OpLogin)
		return
	}

	s.authn.SetCookie(w, token, sess.ExpiresAt)
	if _, err := s.csrf.SetCookie(w, s.tokens.TTL()); err != nil {
		s.fail(w, r, err, applog.OpLogin)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "User logged in",
		applog.FieldUserID, u.ID, applog.FieldOperation, applog.OpLogin)

	NewJSONResponse().Body(map[string]any{
		"message":    "Login successful",
		"user":       viewOf(u),
		"token":      token,
		"expires_at": sess.ExpiresAt.UTC().Format(time.RFC3339),
	}).Write(w)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Users.Logout(r.Context(), session(r)); err != nil {
		s.fail(w, r, err, applog.OpLogout)
		return
	}
	s.authn.ClearCookie(w)
	s.csrf.ClearCookie(w)
	NewJSONResponse().Message("Logged out successfully.").Write(w)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.Users.Profile(r.Context(), session(r).UserID)
	if err != nil {
		s.fail(w, r, err, applog.OpRead)
		return
	}
	NewJSONResponse().Body(viewOf(u)).Write(w)
}

// handlePasswordStrength scores a candidate password. It needs no session
// so that the sign-up form can use it.
func (s *Server) handlePasswordStrength(w http.ResponseWriter, r *http.Request) {
	p, ok := s.parseBody(w, r, maxJSONBytes)
	if !ok {
		return
	}
	defer p.Close()
	score := core.ScorePassword(p.Raw("password"))
	NewJSONResponse().Body(map[string]any{
		"strength": score.Strength,
		"label":    score.Label(),
		"hints":    score.Hints,
	}).Write(w)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.Users.Profile(r.Context(), session(r).UserID)
	if err != nil {
		s.fail(w, r, err, applog.OpRead)
		return
	}
	NewJSONResponse().Body(map[string]any{"profile": u}).Write(w)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := s.parseBody(w, r, maxJSONBytes)
	if !ok {
		return
	}
	defer p.Close()
	var upd services.ProfileUpdate
	if p.Has("name") {
		name := p.Get("name")
		upd.Username = &name
	}
	if p.Has("email") {
		email := p.Get("email")
		upd.Email = &email
	}

	u, err := s.svc.Users.UpdateProfile(r.Context(), session(r).UserID, upd)
	if err != nil {
		s.fail(w, r, err, applog.OpUpdate)
		return
	}
	NewJSONResponse().Body(map[string]any{
		"message": "Profile updated successfully.",
		"profile": u,
	}).Write(w)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	p, ok := s.parseBody(w, r, maxJSONBytes)
	if !ok {
		return
	}
	defer p.Close()
	current, next := p.Raw("current_password"), p.Raw("new_password")
	if current == "" || next == "" {
		BadRequestError("Current and new password are required.").Write(w)
		return
	}

	err := s.svc.Users.ChangePassword(r.Context(), session(r).UserID, current, next, p.Raw("confirm_password"))
	if errors.Is(err, core.ErrUnauthorized) {
		// the session is valid, only the old password was wrong
		BadRequestError("Current password is incorrect.").Write(w)
		return
	}
	if err != nil {
		s.fail(w, r, err, applog.OpUpdate)
		return
	}
	NewJSONResponse().Message("Password changed successfully.").Write(w)
}
