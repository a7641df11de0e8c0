// Command server runs the YaMDb HTTP API.
//
// @title                       YaMDb API
// @version                     1.0
// @description                 Catalog of works with user reviews, comments and ratings.
// @BasePath                    /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 "Bearer <token>" from POST /auth/token
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	_ "github.com/yamdb/yamdb-api/docs"
	"github.com/yamdb/yamdb-api/internal/api"
	"github.com/yamdb/yamdb-api/internal/api/handler"
	"github.com/yamdb/yamdb-api/internal/core/ports"
	"github.com/yamdb/yamdb-api/internal/core/service"
	mongostore "github.com/yamdb/yamdb-api/internal/infrastructure/db/mongo"
	redisstore "github.com/yamdb/yamdb-api/internal/infrastructure/db/redis"
	"github.com/yamdb/yamdb-api/internal/infrastructure/mail"
	"github.com/yamdb/yamdb-api/internal/infrastructure/queue"
	"github.com/yamdb/yamdb-api/internal/infrastructure/token"
	"github.com/yamdb/yamdb-api/internal/pkg/config"
	"github.com/yamdb/yamdb-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "yamdb-api",
	})

	// --- Storage ---
	mongoClient, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()
	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	users := mongostore.NewUserRepository(db)
	categories := mongostore.NewCategoryRepository(db)
	genres := mongostore.NewGenreRepository(db)
	titles := mongostore.NewTitleRepository(db)
	reviews := mongostore.NewReviewRepository(db)
	comments := mongostore.NewCommentRepository(db)

	health := map[string]handler.Check{"mongodb": handler.MongoCheck(db)}

	// --- Rate limiting (optional) ---
	var limiter *redisstore.RateLimiter
	rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, auth rate limiting disabled")
	} else {
		defer rdb.Close()
		limiter = redisstore.NewRateLimiter(rdb, "yamdb:ratelimit", cfg.RateLimit.Capacity, cfg.RateLimit.Interval)
		health["redis"] = handler.RedisCheck(rdb)
	}

	// --- Mail ---
	transport, closeTransport, err := newMailTransport(cfg, logger.For("mail"))
	if err != nil {
		return err
	}
	defer closeTransport()

	dispatcher := queue.NewDispatcher(cfg.Mail.Workers, transport, logger.For("mail"))
	dispatcher.From = cfg.Mail.From
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher.Start(workerCtx)

	// --- Services ---
	signer := token.NewJWTSigner(cfg.SecretKey, cfg.Auth.TokenTTL)
	codes := service.NewConfirmationCodes(cfg.SecretKey, cfg.Auth.ConfirmationCodeTTL)

	deps := api.Dependencies{
		Auth:     service.NewAuthService(users, codes, signer, dispatcher, logger.For("auth")),
		Catalog:  service.NewCatalogService(categories, genres, titles, reviews, logger.For("catalog")),
		Reviews:  service.NewReviewService(titles, reviews, comments, users, logger.For("reviews")),
		Users:    service.NewUserService(users, logger.For("users")),
		Signer:   signer,
		Accounts: users,
		Health:   health,
		Log:      log,
	}
	if limiter != nil {
		deps.Limiter = limiter
	}

	e := api.NewRouter(deps)

	// --- Serve ---
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		stopWorkers()
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}

	stopWorkers()
	dispatcher.Wait()
	return nil
}

// newMailTransport builds the configured transport and its cleanup func.
func newMailTransport(cfg *config.Config, log zerolog.Logger) (ports.Mailer, func(), error) {
	switch cfg.Mail.Transport {
	case config.MailTransportAMQP:
		m, err := mail.NewAMQPMailer(cfg.Mail.AMQPURL, cfg.Mail.Queue)
		if err != nil {
			return nil, nil, err
		}
		return m, func() { _ = m.Close() }, nil
	default:
		return mail.NewLogMailer(log), func() {}, nil
	}
}
