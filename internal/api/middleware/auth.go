package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/yamdb/yamdb-api/internal/api/metrics"
	"github.com/yamdb/yamdb-api/internal/core/domain"
	"github.com/yamdb/yamdb-api/internal/core/ports"
)

const userKey = "user"

// UserFinder is the slice of the user store the auth middleware needs.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// Authenticate resolves an optional bearer token to the caller's account.
// Requests without an Authorization header pass through anonymously; a
// header that does not verify is rejected. The user, and with it the role,
// is reloaded from the store on every request.
func Authenticate(signer ports.TokenSigner, users UserFinder, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return next(c)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return reject("malformed_header")
			}

			claims, err := signer.Verify(strings.TrimSpace(parts[1]))
			if err != nil {
				return reject("invalid_token")
			}

			user, err := users.FindByID(c.Request().Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					return reject("unknown_user")
				}
				log.Error().Err(err).Str("user_id", claims.UserID).Msg("load token subject")
				return err
			}

			SetCurrentUser(c, user)
			return next(c)
		}
	}
}

func reject(reason string) error {
	metrics.AuthRejectionsTotal.WithLabelValues(reason).Inc()
	return domain.ErrAuthenticationRequired
}

// CurrentUser returns the authenticated caller, or nil for anonymous requests.
func CurrentUser(c echo.Context) *domain.User {
	u, _ := c.Get(userKey).(*domain.User)
	return u
}

// SetCurrentUser attaches the authenticated caller to the request context.
func SetCurrentUser(c echo.Context, u *domain.User) {
	c.Set(userKey, u)
}
