package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"taskmgr/config"
)

func defaultPolicy() config.PasswordPolicyConfig {
	return config.PasswordPolicyConfig{MinLength: 8, MinUppercase: 1, MinLowercase: 1, MinDigits: 1, MinSpecial: 1}
}

func TestPasswordPolicy_Validate(t *testing.T) {
	policy := NewPasswordPolicy(defaultPolicy())

	tests := []struct {
		password string
		accepted bool
		reason   string
	}{
		{"Passw0rd!", true, ""},
		{"Pässwörd1_", true, ""},
		{"", false, "Password must be at least 8 characters long."},
		{"Ab1!", false, "Password must be at least 8 characters long."},
		{"password1!", false, "Password must contain at least 1 uppercase letter(s)."},
		{"PASSWORD1!", false, "Password must contain at least 1 lowercase letter(s)."},
		{"Password!!", false, "Password must contain at least 1 digit(s)."},
		{"Password12", false, "Password must contain at least 1 special character(s)."},
		// Length is checked before anything else.
		{"abc", false, "Password must be at least 8 characters long."},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			accepted, reason := policy.Validate(tt.password)
			assert.Equal(t, tt.accepted, accepted)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestPasswordPolicy_CountsRunes(t *testing.T) {
	policy := NewPasswordPolicy(defaultPolicy())

	// Seven runes but more than eight bytes.
	accepted, reason := policy.Validate("Ää1!äää")
	assert.False(t, accepted)
	assert.Equal(t, "Password must be at least 8 characters long.", reason)
}

func TestPasswordPolicy_CaseGatesCountASCIIOnly(t *testing.T) {
	policy := NewPasswordPolicy(defaultPolicy())

	accepted, reason := policy.Validate("ÉÉÉÉéééé1!")
	assert.False(t, accepted)
	assert.Equal(t, "Password must contain at least 1 uppercase letter(s).", reason)

	accepted, reason = policy.Validate("AÉÉÉéééé1!")
	assert.False(t, accepted)
	assert.Equal(t, "Password must contain at least 1 lowercase letter(s).", reason)

	accepted, _ = policy.Validate("Aaéééééé1!")
	assert.True(t, accepted)
}

func TestPasswordPolicy_SymbolClass(t *testing.T) {
	policy := NewPasswordPolicy(defaultPolicy())

	tests := []struct {
		password string
		accepted bool
	}{
		{"Password1_", true},
		{"Password1 ", true},
		{"Password1€", true},
		{"Password1é", false},
		{"Password1‿", false},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			accepted, _ := policy.Validate(tt.password)
			assert.Equal(t, tt.accepted, accepted)
		})
	}
}

func TestPasswordPolicy_CustomThresholds(t *testing.T) {
	policy := NewPasswordPolicy(config.PasswordPolicyConfig{MinLength: 4, MinUppercase: 2, MinDigits: 3})

	accepted, reason := policy.Validate("Abc123")
	assert.False(t, accepted)
	assert.Equal(t, "Password must contain at least 2 uppercase letter(s).", reason)

	accepted, reason = policy.Validate("ABc12")
	assert.False(t, accepted)
	assert.Equal(t, "Password must contain at least 3 digit(s).", reason)

	accepted, _ = policy.Validate("AB123")
	assert.True(t, accepted)
}
