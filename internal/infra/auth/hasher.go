// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"context"

	"taskmgr/config"
	"taskmgr/internal/domain/service"
	"taskmgr/internal/errors"
)

// formatHasher is a PasswordHasher that can recognize its own artifacts.
type formatHasher interface {
	service.PasswordHasher
	Owns(artifact string) bool
}

// dispatchingHasher hashes with one algorithm and verifies artifacts of every known format.
type dispatchingHasher struct {
	primary formatHasher
	formats []formatHasher
}

// NewPasswordHasher builds the configured hasher. New artifacts use cfg.Auth.HashAlgorithm;
// stored artifacts of any supported format keep verifying after the algorithm changes.
// Calls are bounded by cfg.Auth.MaxConcurrentHashes.
func NewPasswordHasher(cfg *config.Config) (service.PasswordHasher, error) {
	pbkdf2Hasher, err := NewPBKDF2Hasher(cfg.Auth.PBKDF2Iterations)
	if err != nil {
		return nil, err
	}
	bcryptHasher := NewBcryptHasherWithCost(cfg.Auth.BcryptCost)
	argon2Hasher := NewArgon2idHasher(cfg.Auth.Argon2.Time, cfg.Auth.Argon2.Memory, cfg.Auth.Argon2.Threads)

	// pbkdf2 goes last: it also claims the legacy bare base64 artifact.
	formats := []formatHasher{argon2Hasher, bcryptHasher, pbkdf2Hasher}

	var primary formatHasher
	switch cfg.Auth.HashAlgorithm {
	case config.HashAlgorithmPBKDF2, "":
		primary = pbkdf2Hasher
	case config.HashAlgorithmBcrypt:
		primary = bcryptHasher
	case config.HashAlgorithmArgon2id:
		primary = argon2Hasher
	default:
		return nil, errors.Errorf("unsupported hash algorithm %q", cfg.Auth.HashAlgorithm)
	}

	hasher := &dispatchingHasher{primary: primary, formats: formats}

	return NewBoundedHasher(hasher, cfg.Auth.MaxConcurrentHashes), nil
}

func (h *dispatchingHasher) Hash(ctx context.Context, password string) (string, error) {
	return h.primary.Hash(ctx, password)
}

func (h *dispatchingHasher) Verify(ctx context.Context, password, artifact string) bool {
	for _, f := range h.formats {
		if f.Owns(artifact) {
			return f.Verify(ctx, password, artifact)
		}
	}

	return false
}
