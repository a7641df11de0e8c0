package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/yamdb/yamdb-api/internal/core/permission"
)

// Require applies the collection-level check of p to every request on the
// route. Object-level checks need the record and run in the service layer.
func Require(p permission.Policy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			action := permission.ActionFromMethod(c.Request().Method)
			if err := permission.Check(p, CurrentUser(c), action); err != nil {
				return err
			}
			return next(c)
		}
	}
}
