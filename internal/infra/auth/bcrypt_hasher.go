package auth

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"taskmgr/internal/errors"
)

// bcryptHasher is a concrete implementation of the PasswordHasher interface using bcrypt.
type bcryptHasher struct {
	cost int
}

// NewBcryptHasherWithCost returns a bcrypt hasher. Costs outside bcrypt's range fall back to the default.
func NewBcryptHasherWithCost(cost int) *bcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	return &bcryptHasher{cost: cost}
}

// Hash generates a salted hash from a plaintext password using bcrypt.
// bcrypt automatically handles salt generation.
func (h *bcryptHasher) Hash(_ context.Context, password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", errors.Wrap(err, "bcrypt hash failed")
	}

	return string(bytes), nil
}

func (h *bcryptHasher) Verify(_ context.Context, password, artifact string) bool {
	return bcrypt.CompareHashAndPassword([]byte(artifact), []byte(password)) == nil
}

func (h *bcryptHasher) Owns(artifact string) bool {
	return strings.HasPrefix(artifact, "$2a$") ||
		strings.HasPrefix(artifact, "$2b$") ||
		strings.HasPrefix(artifact, "$2y$")
}
