package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"taskmgr/config"
	domainerrors "taskmgr/internal/domain/errors"
	"taskmgr/internal/domain/service"
	"taskmgr/internal/errors"
)

// jwtService is a concrete implementation of the TokenService interface using HS256 JWTs.
type jwtService struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// NewJWTService is the constructor for jwtService.
// The token configuration is copied and never changes afterwards.
func NewJWTService(cfg config.TokenConfig) (service.TokenService, error) {
	return newJWTService(cfg)
}

func newJWTService(cfg config.TokenConfig) (*jwtService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token secret must be provided")
	}
	if cfg.TTL <= 0 {
		return nil, errors.Errorf("token ttl must be positive, got %s", cfg.TTL)
	}

	return &jwtService{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      cfg.TTL,
		now:      time.Now,
	}, nil
}

// Issue signs a token for the user. Every token gets a fresh jti.
func (s *jwtService) Issue(userID uuid.UUID, username string) (*service.IssuedToken, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.ttl)
	tokenID := uuid.NewString()

	claims := service.Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        tokenID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if s.audience != "" {
		claims.Audience = jwt.ClaimStrings{s.audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign token")
	}

	return &service.IssuedToken{Token: signed, TokenID: tokenID, ExpiresAt: expiresAt}, nil
}

// Validate parses tokenString and checks signature, algorithm, expiry, issuer and audience.
// Every failure is reported as ErrTokenInvalid.
func (s *jwtService) Validate(tokenString string) (*service.Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		opts = append(opts, jwt.WithAudience(s.audience))
	}

	claims := &service.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, domainerrors.ErrTokenInvalid.WrapMessage(err.Error())
	}
	if !token.Valid {
		return nil, domainerrors.ErrTokenInvalid
	}
	if _, err := claims.UserID(); err != nil {
		return nil, domainerrors.ErrTokenInvalid.WrapMessage("subject is not a user id")
	}

	return claims, nil
}

func (s *jwtService) TTL() time.Duration {
	return s.ttl
}
