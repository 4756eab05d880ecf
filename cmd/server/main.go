package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/simolima/sportlink-demo-sub001/internal/affiliations"
	"github.com/simolima/sportlink-demo-sub001/internal/auth"
	"github.com/simolima/sportlink-demo-sub001/internal/cache"
	"github.com/simolima/sportlink-demo-sub001/internal/config"
	"github.com/simolima/sportlink-demo-sub001/internal/database"
	"github.com/simolima/sportlink-demo-sub001/internal/email"
	"github.com/simolima/sportlink-demo-sub001/internal/handlers"
	"github.com/simolima/sportlink-demo-sub001/internal/jobs"
	"github.com/simolima/sportlink-demo-sub001/internal/kernel"
	"github.com/simolima/sportlink-demo-sub001/internal/logger"
	"github.com/simolima/sportlink-demo-sub001/internal/metrics"
	"github.com/simolima/sportlink-demo-sub001/internal/middleware"
	"github.com/simolima/sportlink-demo-sub001/internal/notifications"
	"github.com/simolima/sportlink-demo-sub001/internal/realtime"
	"github.com/simolima/sportlink-demo-sub001/internal/repository"
	"github.com/simolima/sportlink-demo-sub001/internal/search"
	"github.com/simolima/sportlink-demo-sub001/internal/storage"
	"github.com/simolima/sportlink-demo-sub001/internal/telemetry"
	"github.com/simolima/sportlink-demo-sub001/internal/validation"
	"go.uber.org/zap"
)

const serviceName = "sprinta-backend"

// streamPaths are long-lived responses that must not be buffered by gzip or
// flood the access log.
var streamPaths = []string{
	"/api/v1/notifications/stream",
	"/api/v1/notifications/ws",
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("Sprinta server starting",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port))

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics.Initialize()

	tp, err := telemetry.InitTracer(telemetry.Config{
		ServiceName:  serviceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Enabled:      cfg.TracingEnabled,
		SamplingRate: cfg.TracingSampleRate,
	})
	if err != nil {
		logger.Log.Warn("Tracing disabled", zap.Error(err))
	}

	k := kernel.New()
	validator := validation.NewServiceValidator(cfg.RequiredServices)
	k.SetValidator(validator)
	if tp != nil {
		k.OnCleanup("tracer", func(context.Context) error {
			return telemetry.Shutdown(tp, 5*time.Second)
		})
	}

	// Database
	if err := database.Initialize(cfg.DatabaseURL, cfg.Environment); err != nil {
		logger.FatalWithFields("Failed to initialize database", err)
	}
	if err := database.Migrate(); err != nil {
		logger.FatalWithFields("Failed to run migrations", err)
	}
	k.SetDB(database.DB)
	k.OnCleanup("database", func(context.Context) error { return database.Close() })

	users := repository.NewUserRepository(database.DB)
	k.SetUsers(users)

	// Redis backs the unread-count cache and shared rate limits
	var notifyOpts []notifications.Option
	if cfg.RedisEnabled() {
		rc, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		if err != nil {
			logger.Log.Warn("Redis unavailable, using in-process rate limits", zap.Error(err))
		} else {
			k.SetCache(rc)
			notifyOpts = append(notifyOpts, notifications.WithCache(rc))
			validator.Register(validation.ServiceRedis, rc.Ping)
			k.OnCleanup("redis", func(context.Context) error { return rc.Close() })
		}
	}

	// Elasticsearch powers profile search; the database answers without it
	var searchBackend search.Backend
	var reindexer jobs.UserReindexer
	if cfg.ElasticsearchURL != "" {
		es, err := search.NewClient(cfg.ElasticsearchURL)
		if err != nil {
			logger.Log.Warn("Elasticsearch client failed, searching the database", zap.Error(err))
		} else {
			initCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			if err := es.InitializeIndices(initCtx); err != nil {
				logger.Log.Warn("Failed to initialize search indices", zap.Error(err))
			}
			cancel()
			searchBackend = es
			reindexer = es
			validator.Register(validation.ServiceElasticsearch, es.Ping)
		}
	}
	k.SetSearch(search.NewService(searchBackend, users, search.DefaultBreakerConfig()))

	// S3 image uploads
	if cfg.S3Enabled() {
		uploader, err := storage.NewS3Uploader(cfg.AWSRegion, cfg.AWSBucket, cfg.CDNBaseURL)
		if err != nil {
			logger.Log.Warn("S3 uploader unavailable, uploads disabled", zap.Error(err))
		} else {
			k.SetUploader(uploader)
			validator.Register(validation.ServiceS3, uploader.CheckBucketAccess)
		}
	}

	// SES mirrors selected notifications to email
	if cfg.SESEnabled() {
		mailer, err := email.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.WebBaseURL)
		if err != nil {
			logger.Log.Warn("SES unavailable, notification emails disabled", zap.Error(err))
		} else {
			notifyOpts = append(notifyOpts, notifications.WithMailer(mailer))
			validator.Register(validation.ServiceSES, mailer.CheckAccess)
		}
	}

	// Realtime hub and domain services
	hub := realtime.NewHub(cfg.HeartbeatInterval)
	k.SetHub(hub)

	notifier := notifications.NewService(database.DB, hub, notifyOpts...)
	k.SetNotifications(notifier)
	k.OnCleanup("notification emails", func(context.Context) error {
		notifier.Wait()
		return nil
	})
	k.SetAffiliations(affiliations.NewService(database.DB, notifier))

	if cfg.AuthJWTSecret != "" {
		authService, err := auth.NewService([]byte(cfg.AuthJWTSecret))
		if err != nil {
			logger.FatalWithFields("Failed to initialize auth", err)
		}
		k.SetAuth(authService)
	}

	if err := k.Validate(); err != nil {
		logger.FatalWithFields("Kernel validation failed", err)
	}

	validateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := validator.ValidateServices(validateCtx); err != nil {
		cancel()
		logger.FatalWithFields("Required service unavailable", err)
	}
	cancel()

	// Scheduled maintenance
	var scheduler *jobs.Scheduler
	if cfg.CronEnabled {
		scheduler = jobs.NewScheduler()
		err := jobs.RegisterMaintenance(scheduler, jobs.Deps{
			DB:            database.DB,
			Notifications: notifier,
			Reindexer:     reindexer,
		})
		if err != nil {
			logger.FatalWithFields("Failed to register jobs", err)
		}
		scheduler.Start()
	}

	h := handlers.NewHandlers(k)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.CorrelationMiddleware())
	r.Use(middleware.GinLoggerMiddleware(append([]string{"/health", "/metrics"}, streamPaths...)...))
	r.Use(middleware.MetricsMiddleware())
	if cfg.TracingEnabled {
		r.Use(middleware.TracingMiddleware(serviceName))
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID", "X-Correlation-ID"}
	r.Use(cors.New(corsConfig))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths(streamPaths)))

	r.Use(middleware.OptionalAuth(k.Auth(), cfg.AuthRequired))

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h.RegisterRoutes(r.Group("/api/v1", middleware.RateLimit(middleware.DefaultRateLimitConfig())))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Sprinta backend listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.FatalWithFields("Failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Streams never finish on their own, so close them before draining HTTP.
	hub.Shutdown()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
	if scheduler != nil {
		scheduler.Stop(ctx)
	}
	if err := k.Cleanup(ctx); err != nil {
		logger.Log.Warn("Cleanup finished with errors", zap.Error(err))
	}

	logger.Log.Info("Server exited")
}
