package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// userIDKey is where middleware.Auth stores the token subject.
const userIDKey = "user_id"

// tokenUser returns the user id proven by the bearer token, or "" when the
// request carried none.
func tokenUser(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}

func invalidPayload(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
}
