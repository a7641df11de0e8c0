package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/yamdb/yamdb-api/internal/api/handler"
	"github.com/yamdb/yamdb-api/internal/api/middleware"
	"github.com/yamdb/yamdb-api/internal/core/permission"
	"github.com/yamdb/yamdb-api/internal/core/ports"
)

// Dependencies is everything the router wires into handlers and middleware.
type Dependencies struct {
	Auth    ports.AuthService
	Catalog ports.CatalogService
	Reviews ports.ReviewService
	Users   ports.UserService

	Signer   ports.TokenSigner
	Accounts middleware.UserFinder

	// Limiter throttles /auth. Nil disables rate limiting.
	Limiter middleware.RateLimiter

	Health map[string]handler.Check
	Log    zerolog.Logger

	// Registerer receives the HTTP metrics. Nil means the default registry.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	registerer := deps.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "yamdb",
		Registerer: registerer,
	}))

	// --- Operational endpoints (no auth required) ---
	health := handler.NewHealthHandler(deps.Health)
	e.GET("/health", health.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", health.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	v1 := e.Group("/api/v1", middleware.Authenticate(deps.Signer, deps.Accounts, deps.Log))

	// --- Auth ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	var authMW []echo.MiddlewareFunc
	if deps.Limiter != nil {
		authMW = append(authMW, middleware.RateLimit(deps.Limiter, deps.Log))
	}
	auth := v1.Group("/auth", authMW...)
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/token", authHandler.Token)

	// --- Catalog ---
	catalog := handler.NewCatalogHandler(deps.Catalog)
	readOnlyOrAdmin := middleware.Require(permission.ReadOnlyOrAdmin{})

	v1.GET("/categories", catalog.ListCategories, readOnlyOrAdmin)
	v1.POST("/categories", catalog.CreateCategory, readOnlyOrAdmin)
	v1.DELETE("/categories/:slug", catalog.DeleteCategory, readOnlyOrAdmin)

	v1.GET("/genres", catalog.ListGenres, readOnlyOrAdmin)
	v1.POST("/genres", catalog.CreateGenre, readOnlyOrAdmin)
	v1.DELETE("/genres/:slug", catalog.DeleteGenre, readOnlyOrAdmin)

	v1.GET("/titles", catalog.ListTitles, readOnlyOrAdmin)
	v1.POST("/titles", catalog.CreateTitle, readOnlyOrAdmin)
	v1.GET("/titles/:title_id", catalog.GetTitle, readOnlyOrAdmin)
	v1.PATCH("/titles/:title_id", catalog.UpdateTitle, readOnlyOrAdmin)
	v1.DELETE("/titles/:title_id", catalog.DeleteTitle, readOnlyOrAdmin)

	// --- Reviews and comments ---
	reviews := handler.NewReviewHandler(deps.Reviews)
	authorModeratorAdmin := middleware.Require(permission.AuthorModeratorAdmin{})

	rv := v1.Group("/titles/:title_id/reviews")
	rv.GET("", reviews.ListReviews, authorModeratorAdmin)
	rv.POST("", reviews.CreateReview, authorModeratorAdmin)
	rv.GET("/:review_id", reviews.GetReview, authorModeratorAdmin)
	rv.PATCH("/:review_id", reviews.UpdateReview, authorModeratorAdmin)
	rv.DELETE("/:review_id", reviews.DeleteReview, authorModeratorAdmin)

	rv.GET("/:review_id/comments", reviews.ListComments, authorModeratorAdmin)
	rv.POST("/:review_id/comments", reviews.CreateComment, authorModeratorAdmin)
	rv.GET("/:review_id/comments/:comment_id", reviews.GetComment, authorModeratorAdmin)
	rv.PATCH("/:review_id/comments/:comment_id", reviews.UpdateComment, authorModeratorAdmin)
	rv.DELETE("/:review_id/comments/:comment_id", reviews.DeleteComment, authorModeratorAdmin)

	// --- Users ---
	users := handler.NewUserHandler(deps.Users)
	adminOnly := middleware.Require(permission.AdminOnly{})
	authenticated := middleware.Require(permission.Authenticated{})

	// Static /users/me wins over /users/:username in echo's router.
	v1.GET("/users/me", users.Me, authenticated)
	v1.PATCH("/users/me", users.UpdateMe, authenticated)

	v1.GET("/users", users.List, adminOnly)
	v1.POST("/users", users.Create, adminOnly)
	v1.GET("/users/:username", users.Get, adminOnly)
	v1.PATCH("/users/:username", users.Update, adminOnly)
	v1.DELETE("/users/:username", users.Delete, adminOnly)

	return e
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
