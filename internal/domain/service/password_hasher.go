// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within a single entity.
package service

import "context"

// PasswordHasher turns passwords into opaque artifacts and checks them.
// Artifacts carry their own salt and cost parameters.
type PasswordHasher interface {
	// Hash derives a fresh salted artifact for password.
	Hash(ctx context.Context, password string) (string, error)

	// Verify reports whether password matches artifact. Malformed artifacts never match.
	Verify(ctx context.Context, password, artifact string) bool
}

// PasswordPolicy is the acceptance rule for new passwords.
type PasswordPolicy interface {
	// Validate runs the policy gates in order and stops at the first failure,
	// returning a human readable reason. Accepted passwords return an empty reason.
	Validate(password string) (accepted bool, reason string)
}
