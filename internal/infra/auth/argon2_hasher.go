package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"taskmgr/internal/errors"
)

const (
	argon2Prefix   = "$argon2id$"
	argon2SaltSize = 16
	argon2KeySize  = 32
	// Verify refuses artifacts asking for more memory than this (KiB).
	argon2MaxMemory = 1 << 20
)

// argon2idHasher produces PHC-style artifacts:
// $argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<key>
type argon2idHasher struct {
	time    uint32
	memory  uint32
	threads uint8
}

// NewArgon2idHasher returns an argon2id hasher. Zero parameters take the
// RFC 9106 second recommended values (t=1, m=64MiB, p=4).
func NewArgon2idHasher(time, memory uint32, threads uint8) *argon2idHasher {
	if time == 0 {
		time = 1
	}
	if memory == 0 {
		memory = 64 * 1024
	}
	if threads == 0 {
		threads = 4
	}

	return &argon2idHasher{time: time, memory: memory, threads: threads}
}

func (h *argon2idHasher) Hash(_ context.Context, password string) (string, error) {
	salt := make([]byte, argon2SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Wrap(err, "failed to generate salt")
	}

	key := argon2.IDKey([]byte(password), salt, h.time, h.memory, h.threads, argon2KeySize)

	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Prefix, argon2.Version, h.memory, h.time, h.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h *argon2idHasher) Verify(_ context.Context, password, artifact string) bool {
	p, ok := parseArgon2Artifact(artifact)
	if !ok {
		return false
	}

	derived := argon2.IDKey([]byte(password), p.salt, p.time, p.memory, p.threads, uint32(len(p.key)))

	return subtle.ConstantTimeCompare(derived, p.key) == 1
}

func (h *argon2idHasher) Owns(artifact string) bool {
	return strings.HasPrefix(artifact, argon2Prefix)
}

type argon2Params struct {
	time    uint32
	memory  uint32
	threads uint8
	salt    []byte
	key     []byte
}

func parseArgon2Artifact(artifact string) (argon2Params, bool) {
	var p argon2Params

	parts := strings.Split(artifact, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, false
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return p, false
	}
	if p.time == 0 || p.threads == 0 || p.memory == 0 || p.memory > argon2MaxMemory {
		return p, false
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(p.salt) == 0 {
		return p, false
	}
	if p.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(p.key) == 0 {
		return p, false
	}

	return p, true
}
