package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/minimal/storefront/internal/core/ports"
	"github.com/minimal/storefront/internal/metrics"
)

// RoleLookup answers the role of a user id.
type RoleLookup interface {
	GetRole(ctx context.Context, id string) (*ports.RoleInfo, error)
}

// RequireAdmin guards catalog mutations. The acting user is named by the
// userId query parameter and must hold the admin role in the user store. When
// Auth verified a token, its subject must be that same user.
func RequireAdmin(roles RoleLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := strings.TrimSpace(c.QueryParam("userId"))
			if userID == "" {
				metrics.AdminRejectionsTotal.WithLabelValues("missing_user").Inc()
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "userId is required"})
			}

			if sub, _ := c.Get(userIDKey).(string); sub != "" && sub != userID {
				metrics.AdminRejectionsTotal.WithLabelValues("token_mismatch").Inc()
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}

			info, err := roles.GetRole(c.Request().Context(), userID)
			if err != nil {
				return err
			}
			if !info.IsAdmin {
				metrics.AdminRejectionsTotal.WithLabelValues("not_admin").Inc()
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
