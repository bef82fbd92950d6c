package core

import "unicode/utf8"

const (
	HintLength    = "Password should be at least 8 characters"
	HintUppercase = "Include at least one uppercase letter"
	HintLowercase = "Include at least one lowercase letter"
	HintNumber    = "Include at least one number"
	HintSpecial   = "Include at least one special character"
)

// MaxPasswordStrength is the score of a password meeting every rule.
const MaxPasswordStrength = 5

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// PasswordScore is the result of ScorePassword. Hints lists unmet rules in
// rule order.
type PasswordScore struct {
	Strength int      `json:"strength"`
	Hints    []string `json:"hints"`
}

type passwordRule struct {
	hint string
	ok   func(string) bool
}

var passwordRules = []passwordRule{
	{HintLength, func(pw string) bool { return utf8.RuneCountInString(pw) >= 8 }},
	{HintUppercase, containsRune(func(r rune) bool { return r >= 'A' && r <= 'Z' })},
	{HintLowercase, containsRune(func(r rune) bool { return r >= 'a' && r <= 'z' })},
	{HintNumber, containsRune(func(r rune) bool { return r >= '0' && r <= '9' })},
	{HintSpecial, containsRune(func(r rune) bool { return !isASCIIAlnum(r) })},
}

func containsRune(pred func(rune) bool) func(string) bool {
	return func(s string) bool {
		for _, r := range s {
			if pred(r) {
				return true
			}
		}
		return false
	}
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

// ScorePassword rates pw from 0 to 5, one point per satisfied rule.
func ScorePassword(pw string) PasswordScore {
	score := PasswordScore{Hints: []string{}}
	for _, rule := range passwordRules {
		if rule.ok(pw) {
			score.Strength++
		} else {
			score.Hints = append(score.Hints, rule.hint)
		}
	}
	return score
}

// Label classifies the score for display.
func (p PasswordScore) Label() string {
	switch {
	case p.Strength < 3:
		return "Weak"
	case p.Strength < 4:
		return "Moderate"
	default:
		return "Strong"
	}
}
