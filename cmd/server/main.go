package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/phishing-awareness/internal/admin"
	"github.com/iliyamo/phishing-awareness/internal/config"
	"github.com/iliyamo/phishing-awareness/internal/database"
	"github.com/iliyamo/phishing-awareness/internal/dispatch"
	"github.com/iliyamo/phishing-awareness/internal/handler"
	"github.com/iliyamo/phishing-awareness/internal/logger"
	"github.com/iliyamo/phishing-awareness/internal/mail"
	"github.com/iliyamo/phishing-awareness/internal/metrics"
	"github.com/iliyamo/phishing-awareness/internal/middleware"
	"github.com/iliyamo/phishing-awareness/internal/queue"
	"github.com/iliyamo/phishing-awareness/internal/repository"
	"github.com/iliyamo/phishing-awareness/internal/router"
	"github.com/iliyamo/phishing-awareness/internal/service"
	"github.com/iliyamo/phishing-awareness/internal/storage"
	"github.com/iliyamo/phishing-awareness/internal/tenant"
	"github.com/iliyamo/phishing-awareness/internal/validation"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()
	log := logger.New(cfg.Env)
	zerolog.DefaultContextLogger = &log

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if err := database.Migrate(migrateCtx, db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}
	cancel()

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	store, err := newStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("init storage")
	}

	clients := repository.NewClientRepo(db)
	users := repository.NewUserRepo(db)
	groups := repository.NewGroupRepo(db)
	attachments := repository.NewAttachmentRepo(db)
	templates := repository.NewTemplateRepo(db)
	campaigns := repository.NewCampaignRepo(db)
	logs := repository.NewLogRepo(db)

	directory := tenant.NewCachedDirectory(clients, rdb, cfg.Tenancy.CacheTTL)
	resolver := tenant.NewResolver(directory, cfg.Tenancy.AdminPathPrefix)
	surface := admin.NewSurface(clients, groups, attachments, templates)

	smtp := mail.NewSMTP(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password)
	dispatcher := dispatch.New(users, templates, smtp, cfg.Mail.DefaultFrom,
		dispatch.WithConcurrency(cfg.Dispatch.Concurrency))

	var events handler.EventPublisher
	if cfg.AMQPURL != "" {
		events = service.NewPublisher(cfg.AMQPURL)
		go func() {
			if err := queue.StartDispatchConsumer(ctx, cfg.AMQPURL, "logs", log); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("dispatch consumer stopped")
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.New()
	e.Use(middleware.RequestLogger(log))
	e.Use(metrics.HTTPMiddleware())
	e.Use(middleware.ResolveTenant(resolver))

	if cfg.Storage.Driver == "local" && strings.HasPrefix(cfg.Storage.MediaURL, "/") {
		e.Static(strings.TrimRight(cfg.Storage.MediaURL, "/"), cfg.Storage.MediaRoot)
	}

	// Rate limiting is attached per route group, after authentication.
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	router.RegisterRoutes(e)
	router.RegisterAuth(e,
		handler.NewAuthHandler(cfg, users, clients),
		handler.NewCampaignHandler(campaigns, logs),
		cfg.JWTSecret, limit)
	router.RegisterAdmin(e, cfg.Tenancy.AdminPathPrefix, router.AdminHandlers{
		Clients:     handler.NewClientHandler(clients, directory),
		Users:       handler.NewUserHandler(users, surface, cfg.BcryptCost),
		Groups:      handler.NewGroupHandler(groups, surface),
		Attachments: handler.NewAttachmentHandler(attachments, surface, store),
		Templates:   handler.NewTemplateHandler(templates, surface, store),
		Campaigns:   handler.NewCampaignAdminHandler(campaigns, surface, dispatcher, events, logs),
		Forms:       handler.NewFormHandler(surface),
		Logs:        handler.NewLogHandler(logs),
	}, cfg.JWTSecret, limit, middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	addr := ":" + cfg.Port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}

func newStore(ctx context.Context, sc config.StorageConfig) (storage.Store, error) {
	if sc.Driver == "s3" {
		return storage.NewS3(ctx, storage.S3Options{
			Endpoint:  sc.S3Endpoint,
			Region:    sc.S3Region,
			Bucket:    sc.S3Bucket,
			AccessKey: sc.S3Key,
			SecretKey: sc.S3Secret,
			PathStyle: sc.S3PathStyle,
		})
	}
	return storage.NewLocal(sc.MediaRoot, sc.MediaURL), nil
}
