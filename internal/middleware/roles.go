package middleware

import (
	"fixflow/internal/common"
	"fixflow/internal/models"

	"github.com/labstack/echo/v4"
)

// RequireRole rejects callers whose role is not in the allow list.
// Fine-grained checks still live in the services; this is the outer
// gate for route groups with an obvious role boundary.
func RequireRole(roles ...models.Role) echo.MiddlewareFunc {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller, ok := common.CallerFromContext(c.Request().Context())
			if !ok {
				return common.SendError(c, common.Unauthenticated("missing caller identity"))
			}
			if _, ok := allowed[caller.Role]; !ok {
				return common.SendError(c, common.Forbidden("role %s may not access this resource", caller.Role))
			}
			return next(c)
		}
	}
}
