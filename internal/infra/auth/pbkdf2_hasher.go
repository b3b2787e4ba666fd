package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"taskmgr/internal/errors"
)

const (
	pbkdf2Prefix        = "pbkdf2-sha256$"
	pbkdf2SaltSize      = 16
	pbkdf2KeySize       = 32
	pbkdf2MinIterations = 10000
	// Artifacts claiming more work than this are treated as malformed.
	pbkdf2MaxIterations = 10_000_000
)

// pbkdf2Hasher derives PBKDF2-HMAC-SHA256 keys.
// Artifact: pbkdf2-sha256$<iterations>$<base64(salt || key)>.
// A bare base64(salt || key) artifact is read as 10000 iterations.
type pbkdf2Hasher struct {
	iterations int
}

// NewPBKDF2Hasher returns a PBKDF2-SHA256 hasher. Fewer than 10000 iterations is rejected.
func NewPBKDF2Hasher(iterations int) (*pbkdf2Hasher, error) {
	if iterations < pbkdf2MinIterations {
		return nil, errors.Errorf("pbkdf2 iterations must be at least %d, got %d", pbkdf2MinIterations, iterations)
	}

	return &pbkdf2Hasher{iterations: iterations}, nil
}

func (h *pbkdf2Hasher) Hash(_ context.Context, password string) (string, error) {
	salt := make([]byte, pbkdf2SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Wrap(err, "failed to generate salt")
	}

	key := pbkdf2.Key([]byte(password), salt, h.iterations, pbkdf2KeySize, sha256.New)
	blob := append(salt, key...)

	return pbkdf2Prefix + strconv.Itoa(h.iterations) + "$" + base64.StdEncoding.EncodeToString(blob), nil
}

func (h *pbkdf2Hasher) Verify(_ context.Context, password, artifact string) bool {
	iterations, salt, key, ok := parsePBKDF2Artifact(artifact)
	if !ok {
		return false
	}

	derived := pbkdf2.Key([]byte(password), salt, iterations, len(key), sha256.New)

	return subtle.ConstantTimeCompare(derived, key) == 1
}

func (h *pbkdf2Hasher) Owns(artifact string) bool {
	_, _, _, ok := parsePBKDF2Artifact(artifact)

	return ok
}

func parsePBKDF2Artifact(artifact string) (iterations int, salt, key []byte, ok bool) {
	encoded := artifact
	iterations = pbkdf2MinIterations

	if rest, found := strings.CutPrefix(artifact, pbkdf2Prefix); found {
		rawIter, blob, found := strings.Cut(rest, "$")
		if !found {
			return 0, nil, nil, false
		}
		n, err := strconv.Atoi(rawIter)
		if err != nil || n < 1 || n > pbkdf2MaxIterations {
			return 0, nil, nil, false
		}
		iterations, encoded = n, blob
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(raw) != pbkdf2SaltSize+pbkdf2KeySize {
		return 0, nil, nil, false
	}

	return iterations, raw[:pbkdf2SaltSize], raw[pbkdf2SaltSize:], true
}
