package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-calendar-portlet/api/swagger"
	"github.com/noah-isme/sma-calendar-portlet/internal/adapter"
	"github.com/noah-isme/sma-calendar-portlet/internal/adapter/ical"
	"github.com/noah-isme/sma-calendar-portlet/internal/adapter/portal"
	"github.com/noah-isme/sma-calendar-portlet/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-calendar-portlet/internal/middleware"
	"github.com/noah-isme/sma-calendar-portlet/internal/repository"
	"github.com/noah-isme/sma-calendar-portlet/internal/service"
	"github.com/noah-isme/sma-calendar-portlet/pkg/cache"
	"github.com/noah-isme/sma-calendar-portlet/pkg/config"
	"github.com/noah-isme/sma-calendar-portlet/pkg/database"
	"github.com/noah-isme/sma-calendar-portlet/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-calendar-portlet/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-calendar-portlet/pkg/middleware/requestid"
	"github.com/noah-isme/sma-calendar-portlet/pkg/signing"
)

// @title Calendar Portlet API
// @version 1.0.0
// @description Aggregated calendar view for portal windows
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}
	defer redisClient.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	calendarSetRepo := repository.NewCalendarSetRepository(db)
	preferenceRepo := repository.NewPreferenceRepository(db)
	eventRepo := repository.NewCalendarEventRepository(db)
	sessionRepo := repository.NewSessionRepository(redisClient, cfg.Session.KeyPrefix, cfg.Session.TTL)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Adapters.ICalCacheTTL, logr)
	preferenceSvc := service.NewPreferenceService(preferenceRepo, service.PreferenceDefaults{
		Days:     cfg.Calendar.DefaultDays,
		Timezone: cfg.Calendar.DefaultTimezone,
	}, logr)
	feedSigner := signing.NewFeedSigner(cfg.Feeds.SigningSecret, cfg.Feeds.LinkTTL)

	adapterCfg, err := adapter.LoadConfig(cfg.Adapters.ConfigFile)
	if err != nil {
		logr.Fatal("failed to load adapter config", zap.Error(err))
	}
	registry, err := adapter.Build(adapterCfg, map[string]adapter.Factory{
		adapter.TypeICal: func(settings map[string]string) (adapter.Adapter, error) {
			return ical.New(ical.Options{
				Cache:    cacheSvc,
				CacheTTL: cfg.Adapters.ICalCacheTTL,
				Timeout:  cfg.Adapters.ICalFetchTimeout,
				Logger:   logr.Named("ical"),
			}, settings)
		},
		adapter.TypePortal: func(settings map[string]string) (adapter.Adapter, error) {
			return portal.New(portal.Options{
				Events:      eventRepo,
				Signer:      feedSigner,
				FeedBaseURL: cfg.PublicBaseURL + cfg.APIPrefix,
			}, settings)
		},
	})
	if err != nil {
		logr.Fatal("failed to build adapter registry", zap.Error(err))
	}
	logr.Info("calendar adapters registered", zap.Strings("adapters", registry.Names()))

	viewOpts := service.CalendarViewOptions{AdapterTimeout: cfg.Adapters.Timeout, Metrics: metricsSvc}
	viewSvc := service.NewCalendarViewService(calendarSetRepo, registry, sessionRepo, preferenceSvc, viewOpts, logr)
	eventSvc := service.NewCalendarEventService(calendarSetRepo, registry, preferenceSvc, viewOpts, logr)
	sessionSvc := service.NewSessionService(sessionRepo, preferenceSvc, validate, cfg.Session.Bootstrap, logr)
	feedSvc := service.NewCalendarFeedService(calendarSetRepo, registry, feedSigner, logr)
	authSvc := service.NewAuthService(service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	calendarHandler := handler.NewCalendarHandler(viewSvc, eventSvc, sessionSvc)
	feedHandler := handler.NewFeedHandler(feedSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, map[string]handler.ReadinessCheck{
		"postgres": db.PingContext,
		"redis": func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/feeds/:token", feedHandler.Export)

	portlets := api.Group("/portlets/:windowId/calendar")
	portlets.Use(internalmiddleware.OptionalJWT(authSvc))
	portlets.Use(internalmiddleware.Session(sessionSvc, internalmiddleware.SessionCookie{
		Name:   cfg.Session.CookieName,
		TTL:    cfg.Session.TTL,
		Secure: cfg.Env == config.EnvProduction,
	}))
	portlets.GET("", calendarHandler.View)
	portlets.GET("/events", calendarHandler.Events)
	portlets.PUT("/session", calendarHandler.UpdateSession)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
