package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the fixed claim set of a session token. The registered subject
// carries the user ID; ID carries the unique token id (jti).
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// IssuedToken is a signed bearer token and its metadata.
type IssuedToken struct {
	Token     string
	TokenID   string
	ExpiresAt time.Time
}

// TokenService issues and verifies stateless session tokens.
type TokenService interface {
	// Issue mints a token for the given identity.
	Issue(userID uuid.UUID, username string) (*IssuedToken, error)

	// Validate verifies signature, expiry, issuer and audience.
	Validate(tokenString string) (*Claims, error)

	// TTL returns the lifetime of issued tokens.
	TTL() time.Duration
}
