package auth

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"taskmgr/config"
	"taskmgr/internal/domain/service"
)

// passwordPolicy enforces minimum character-class counts, checked in a fixed order.
type passwordPolicy struct {
	minLength    int
	minUppercase int
	minLowercase int
	minDigits    int
	minSpecial   int
}

// NewPasswordPolicy builds the policy from configured thresholds.
func NewPasswordPolicy(cfg config.PasswordPolicyConfig) service.PasswordPolicy {
	return &passwordPolicy{
		minLength:    cfg.MinLength,
		minUppercase: cfg.MinUppercase,
		minLowercase: cfg.MinLowercase,
		minDigits:    cfg.MinDigits,
		minSpecial:   cfg.MinSpecial,
	}
}

// Validate checks length, uppercase, lowercase, digit and symbol counts in that
// order and reports the first gate that fails. Upper and lower case count ASCII
// letters only.
func (p *passwordPolicy) Validate(password string) (bool, string) {
	if utf8.RuneCountInString(password) < p.minLength {
		return false, fmt.Sprintf("Password must be at least %d characters long.", p.minLength)
	}

	var upper, lower, digits, special int
	for _, r := range password {
		switch {
		case 'A' <= r && r <= 'Z':
			upper++
		case 'a' <= r && r <= 'z':
			lower++
		case unicode.IsDigit(r):
			digits++
		case r == '_' || !isWordRune(r):
			special++
		}
	}

	gates := []struct {
		have, want int
		class      string
	}{
		{upper, p.minUppercase, "uppercase letter"},
		{lower, p.minLowercase, "lowercase letter"},
		{digits, p.minDigits, "digit"},
		{special, p.minSpecial, "special character"},
	}
	for _, g := range gates {
		if g.have < g.want {
			return false, fmt.Sprintf("Password must contain at least %d %s(s).", g.want, g.class)
		}
	}

	return true, ""
}

// isWordRune reports letters, digits, combining marks and connector punctuation.
// Everything else, plus '_', counts as a symbol.
func isWordRune(r rune) bool {
	return unicode.In(r, unicode.L, unicode.Mn, unicode.Nd, unicode.Pc)
}
