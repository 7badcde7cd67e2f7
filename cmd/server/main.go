package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/chobar-cart/internal/config"
	"github.com/iliyamo/chobar-cart/internal/database"
	"github.com/iliyamo/chobar-cart/internal/handler"
	"github.com/iliyamo/chobar-cart/internal/logging"
	"github.com/iliyamo/chobar-cart/internal/middleware"
	"github.com/iliyamo/chobar-cart/internal/queue"
	"github.com/iliyamo/chobar-cart/internal/repository"
	"github.com/iliyamo/chobar-cart/internal/response"
	"github.com/iliyamo/chobar-cart/internal/router"
	"github.com/iliyamo/chobar-cart/internal/service"
	"github.com/iliyamo/chobar-cart/internal/storage"
	"github.com/iliyamo/chobar-cart/internal/utils"
)

func main() {
	_ = godotenv.Load() // .env is optional
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.IsDev())
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.DBMigrate {
		if err := database.Migrate(db.DB); err != nil {
			return err
		}
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable; rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}

	var images handler.ImageStorage
	if s3cfg := config.LoadS3Config(); s3cfg.Enabled() {
		store, err := storage.NewImageStore(ctx, s3cfg)
		if err != nil {
			return err
		}
		images = store
	} else {
		log.Warn("S3_BUCKET not set; image uploads disabled")
	}

	var pub service.EmailPublisher
	if cfg.AMQPURL != "" {
		pub = queue.NewPublisher(cfg.AMQPURL, log)
	}

	users := repository.NewUserRepo(db)
	auth := service.NewAuthService(users, pub, service.TokenConfig{
		AccessSecret:  cfg.AccessSecret,
		RefreshSecret: cfg.RefreshSecret,
		AccessTTL:     cfg.AccessTTL(),
		RefreshTTL:    cfg.RefreshTTL(),
		BcryptCost:    cfg.BcryptCost,
	}, log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := middleware.NewMetrics(reg)
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb, log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = response.ErrorHandler(log)
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: utils.RequestID}))
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: true,
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echomw.BodyLimit(cfg.BodyLimit))
	e.Use(metrics.Middleware())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log, middleware.AccessTokenUser(cfg.AccessSecret)))

	cookies := handler.CookieConfig{Secure: cfg.CookieSecure, FailStatus: cfg.AuthFailureStatus}
	router.Register(e, router.Handlers{
		Auth:          handler.NewAuthHandler(auth, images, cookies),
		Users:         handler.NewUserHandler(users, images, cache, log),
		Products:      handler.NewProductHandler(repository.NewProductRepo(db), images, cache, log),
		Categories:    handler.NewCategoryHandler(repository.NewCategoryRepo(db), cache),
		Comments:      handler.NewCommentHandler(repository.NewCommentRepo(db)),
		Likes:         handler.NewLikeHandler(repository.NewLikeRepo(db)),
		Subscriptions: handler.NewSubscriptionHandler(repository.NewSubscriptionRepo(db)),
		Ready:         handler.Ready(db),
		Metrics:       metrics.Handler(),
		AuthGate:      middleware.JWTAuth(auth, cfg.AuthFailureStatus),
		Cache:         cache.Middleware(),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", "addr", ":"+cfg.Port, "env", cfg.Env)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if cfg.AMQPURL != "" {
		g.Go(func() error {
			err := queue.StartEmailConsumer(gctx, cfg.AMQPURL, cfg.NotificationLogDir, log)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
