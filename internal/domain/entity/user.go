// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account. Username and Email are each globally unique.
type User struct {
	ID           uuid.UUID `json:"id"`        // Opaque unique identity.
	Username     string    `json:"userName"`  // Unique login name.
	Email        string    `json:"email"`     // Unique email, accepted as an alternative login identifier.
	PasswordHash string    `json:"-"`         // Encoded hash artifact. Never serialized or logged.
	CreatedAt    time.Time `json:"createdAt"` // Timestamp of registration.
	UpdatedAt    time.Time `json:"updatedAt"` // Timestamp of the last profile or credential change.
}

// Touch refreshes UpdatedAt, keeping it at or after CreatedAt.
func (u *User) Touch(now time.Time) {
	if now.Before(u.CreatedAt) {
		now = u.CreatedAt
	}
	u.UpdatedAt = now
}

// NewID returns a time-ordered (v7) identifier, so IDs created later sort after earlier ones.
func NewID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}
