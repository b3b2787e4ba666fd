package middleware

import (
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"

	deliverycontext "taskmgr/internal/delivery/context"
	domainerrors "taskmgr/internal/domain/errors"
	"taskmgr/internal/domain/service"
)

const bearerPrefix = "Bearer "

// AuthMiddleware authenticates requests carrying a session token.
type AuthMiddleware struct {
	tokenSvc service.TokenService
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(tokenSvc service.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc}
}

// Authenticate requires a valid bearer token and stores its identity on the context.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if len(authHeader) <= len(bearerPrefix) || !strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			return domainerrors.ErrTokenInvalid.WithDetails("missing bearer token")
		}

		claims, err := m.tokenSvc.Validate(strings.TrimSpace(authHeader[len(bearerPrefix):]))
		if err != nil {
			return err
		}

		userID, err := claims.UserID()
		if err != nil {
			return domainerrors.ErrTokenInvalid
		}

		deliverycontext.SetUser(c, userID, claims.Username)

		req := c.Request()
		if logger := deliverycontext.GetLogger(req.Context()); logger != nil {
			ctx := deliverycontext.WithLogger(req.Context(), logger.With(slog.String("user_id", userID.String())))
			c.SetRequest(req.WithContext(ctx))
		}

		return next(c)
	}
}
