package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Categories is the fixed set of expense and budget categories.
var Categories = []string{
	"Food & Dining",
	"Transportation",
	"Housing",
	"Utilities",
	"Entertainment",
	"Shopping",
	"Healthcare",
	"Personal Care",
	"Education",
	"Travel",
	"Gifts & Donations",
	"Other",
}

const (
	maxNameLength  = 100
	maxNotesLength = 1000
)

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Expense struct {
		ID       int64  `json:"id"`
		UserID   int64  `json:"-"`
		Name     string `json:"name"`
		Category string `json:"category"`
		Amount   Money  `json:"amount"`
		Date     Date   `json:"date"`
		Notes    string `json:"notes"`
		Receipt  string `json:"receipt,omitempty"` // stored receipt key, empty when none
	}

	Income struct {
		ID     int64  `json:"id"`
		UserID int64  `json:"-"`
		Name   string `json:"name"`
		Source string `json:"source"`
		Amount Money  `json:"amount"`
		Date   Date   `json:"date"`
		Notes  string `json:"notes"`
	}

	// Budget caps spending in one category. Spent is derived from the
	// owner's expenses and never written by clients.
	Budget struct {
		ID       int64  `json:"id"`
		UserID   int64  `json:"-"`
		Category string `json:"category"`
		Limit    Money  `json:"limit"`
		Spent    Money  `json:"spent"`
	}

	User struct {
		ID           int64     `json:"id"`
		Username     string    `json:"username"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"created_at"`
	}
)

var (
	ErrInvalidDay      = errors.New("invalid day")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyName       = errors.New("empty name")
	ErrNameTooLong     = errors.New("name too long (max 100 characters)")
	ErrNotesTooLong    = errors.New("notes too long (max 1000 characters)")
	ErrInvalidCategory = errors.New("invalid category")
	ErrEmptySource     = errors.New("empty source")
	ErrInvalidRange    = errors.New("invalid range")
	ErrInvalidEmail    = errors.New("invalid email")
	ErrEmptyUsername   = errors.New("empty username")
	ErrWeakPassword    = errors.New("password too weak")
	ErrPasswordMatch   = errors.New("passwords do not match")
	ErrPasswordTooLong = errors.New("password too long (max 72 bytes)")

	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrUnauthorized = errors.New("unauthorized")
)

var validationErrors = []error{
	ErrInvalidDay, ErrInvalidMonth, ErrInvalidDate, ErrInvalidAmount,
	ErrEmptyName, ErrNameTooLong, ErrNotesTooLong, ErrInvalidCategory,
	ErrEmptySource, ErrInvalidRange, ErrInvalidEmail, ErrEmptyUsername,
	ErrWeakPassword, ErrPasswordMatch, ErrPasswordTooLong,
}

// IsValidation reports whether err is caused by invalid user input.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsCategory reports whether name belongs to Categories.
func IsCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return ErrNameTooLong
	}
	return nil
}

func validateNotes(notes string) error {
	if utf8.RuneCountInString(notes) > maxNotesLength {
		return ErrNotesTooLong
	}
	return nil
}

func (e Expense) Validate() error {
	if err := validateName(e.Name); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if !IsCategory(e.Category) {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, e.Category)
	}
	return validateNotes(e.Notes)
}

func (i Income) Validate() error {
	if err := validateName(i.Name); err != nil {
		return err
	}
	if err := i.Amount.Validate(); err != nil {
		return err
	}
	if err := i.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(i.Source) == "" {
		return ErrEmptySource
	}
	if utf8.RuneCountInString(i.Source) > maxNameLength {
		return ErrNameTooLong
	}
	return validateNotes(i.Notes)
}

// Validate checks a budget as submitted by a client. A zero limit is
// allowed here because registration seeds every category with one.
func (b Budget) Validate() error {
	if !IsCategory(b.Category) {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, b.Category)
	}
	if b.Limit.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Remaining is the limit minus what was spent; negative when exceeded.
func (b Budget) Remaining() Money {
	return Money{Cents: b.Limit.Cents - b.Spent.Cents}
}

func (b Budget) Exceeded() bool {
	return b.Limit.Cents > 0 && b.Spent.Cents > b.Limit.Cents
}

// Record accessors used by Filter and Summarize.

func (e Expense) RecordName() string     { return e.Name }
func (e Expense) RecordCategory() string { return e.Category }
func (e Expense) RecordAmount() Money    { return e.Amount }
func (e Expense) RecordDate() Date       { return e.Date }

func (i Income) RecordName() string     { return i.Name }
func (i Income) RecordCategory() string { return i.Source }
func (i Income) RecordAmount() Money    { return i.Amount }
func (i Income) RecordDate() Date       { return i.Date }

// CellText prefixes user text with a quote when a spreadsheet would
// otherwise evaluate it as a formula.
func CellText(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}
