package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

// UserStore is the storage needed for accounts and logout.
type UserStore interface {
	storage.UserStore
	storage.TokenStore
}

// UserService manages accounts and their credentials.
type UserService struct {
	store       UserStore
	minStrength int
	logger      *applog.Logger
}

func NewUserService(store UserStore, minStrength int) *UserService {
	return &UserService{
		store:       store,
		minStrength: minStrength,
		logger:      applog.Default(applog.ComponentAuth),
	}
}

// Registration is a sign-up request. ConfirmPassword is checked when set.
type Registration struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: %q", core.ErrInvalidEmail, email)
	}
	return nil
}

func validateUsername(name string) error {
	if name == "" {
		return core.ErrEmptyUsername
	}
	if len([]rune(name)) > 150 {
		return core.ErrNameTooLong
	}
	return nil
}

func (s *UserService) checkNewPassword(password, confirm string) error {
	if confirm != "" && confirm != password {
		return core.ErrPasswordMatch
	}
	if len(password) > core.MaxPasswordBytes {
		return core.ErrPasswordTooLong
	}
	score := core.ScorePassword(password)
	if score.Strength < s.minStrength {
		return fmt.Errorf("%w: %s", core.ErrWeakPassword, strings.Join(score.Hints, " "))
	}
	return nil
}

// Register creates the account and seeds a zero-limit budget for every category.
func (s *UserService) Register(ctx context.Context, reg Registration) (core.User, error) {
	username := strings.TrimSpace(reg.Username)
	email := strings.TrimSpace(reg.Email)
	if err := validateUsername(username); err != nil {
		return core.User{}, err
	}
	if err := validateEmail(email); err != nil {
		return core.User{}, err
	}
	if err := s.checkNewPassword(reg.Password, reg.ConfirmPassword); err != nil {
		return core.User{}, err
	}

	hash, err := auth.HashPassword(reg.Password)
	if err != nil {
		return core.User{}, err
	}
	u, err := s.store.CreateUser(ctx, core.User{Username: username, Email: email, PasswordHash: hash}, core.Categories)
	if err != nil {
		return core.User{}, fmt.Errorf("register %q: %w", username, err)
	}

	s.logger.InfoContext(ctx, "User registered", applog.FieldUserID, u.ID, applog.FieldOperation, applog.OpRegister)
	return u, nil
}

// Authenticate returns the user for valid credentials and
// core.ErrUnauthorized otherwise, without telling which part was wrong.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (core.User, error) {
	u, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, core.ErrNotFound) {
		return core.User{}, core.ErrUnauthorized
	}
	if err != nil {
		return core.User{}, err
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		return core.User{}, err
	}
	return u, nil
}

func (s *UserService) Profile(ctx context.Context, userID int64) (core.User, error) {
	return s.store.GetUserByID(ctx, userID)
}

// ProfileUpdate changes the fields that are set.
type ProfileUpdate struct {
	Username *string
	Email    *string
}

func (s *UserService) UpdateProfile(ctx context.Context, userID int64, upd ProfileUpdate) (core.User, error) {
	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return core.User{}, err
	}
	if upd.Username != nil {
		name := strings.TrimSpace(*upd.Username)
		if err := validateUsername(name); err != nil {
			return core.User{}, err
		}
		u.Username = name
	}
	if upd.Email != nil {
		email := strings.TrimSpace(*upd.Email)
		if err := validateEmail(email); err != nil {
			return core.User{}, err
		}
		u.Email = email
	}
	return s.store.UpdateUser(ctx, u)
}

// ChangePassword requires the current password and a new one that passes
// the strength check.
func (s *UserService) ChangePassword(ctx context.Context, userID int64, current, next, confirm string) error {
	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := auth.CheckPassword(u.PasswordHash, current); err != nil {
		return err
	}
	if err := s.checkNewPassword(next, confirm); err != nil {
		return err
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	if _, err := s.store.UpdateUser(ctx, u); err != nil {
		return fmt.Errorf("store new password: %w", err)
	}
	s.logger.InfoContext(ctx, "Password changed", applog.FieldUserID, userID)
	return nil
}

// Logout revokes the session token until it would have expired anyway.
func (s *UserService) Logout(ctx context.Context, session auth.Session) error {
	if err := s.store.RevokeToken(ctx, session.TokenID, session.ExpiresAt); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	s.logger.InfoContext(ctx, "User logged out", applog.FieldUserID, session.UserID, applog.FieldOperation, applog.OpLogout)
	return nil
}
