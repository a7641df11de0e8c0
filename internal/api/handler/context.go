package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yamdb/yamdb-api/internal/api/middleware"
	"github.com/yamdb/yamdb-api/internal/core/domain"
	"github.com/yamdb/yamdb-api/internal/core/ports"
)

// actor returns the authenticated caller, or nil for anonymous requests.
func actor(c echo.Context) *domain.User {
	return middleware.CurrentUser(c)
}

// bindAndValidate decodes the request body into req and runs its
// validate tags.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}

// bindQuery runs the fluent echo query binder and turns its errors into
// field errors.
func bindQuery(c echo.Context, bind func(b *echo.ValueBinder) *echo.ValueBinder) error {
	err := bind(echo.QueryParamsBinder(c)).BindError()
	if err == nil {
		return nil
	}
	var be *echo.BindingError
	if errors.As(err, &be) {
		return domain.NewFieldError(be.Field, "must be an integer")
	}
	return err
}

// pageParams binds ?page= and ?limit=. Normalization happens in the service.
func pageParams(b *echo.ValueBinder, p *ports.Page) *echo.ValueBinder {
	return b.Int("page", &p.Page).Int("limit", &p.Limit)
}
