package context

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// KeyUserID is the echo.Context key holding the authenticated user's ID.
	KeyUserID ContextKey = "user_id"

	// KeyUsername is the echo.Context key holding the authenticated username.
	KeyUsername ContextKey = "username"
)

// SetUser stores the authenticated identity in echo.Context.
func SetUser(c echo.Context, userID uuid.UUID, username string) {
	c.Set(string(KeyUserID), userID)
	c.Set(string(KeyUsername), username)
}

// GetUserID returns the authenticated user's ID, if any.
func GetUserID(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get(string(KeyUserID)).(uuid.UUID)

	return id, ok && id != uuid.Nil
}
