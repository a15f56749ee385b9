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

	"github.com/gin-gonic/gin"

	"quizai/aiclient"
	"quizai/config"
	"quizai/filestore"
	"quizai/handlers"
	"quizai/logger"
	"quizai/mailer"
	"quizai/middleware"
	"quizai/ratelimit"
	"quizai/routes"
	"quizai/security"
	"quizai/services"
	"quizai/store"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	appLog, err := logger.New(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer appLog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		appLog.Fatal("failed to connect to database", "error", err)
	}
	st := store.New(db)
	if err := st.AutoMigrate(); err != nil {
		appLog.Fatal("failed to migrate database", "error", err)
	}

	limiter := newLimiter(ctx, cfg, appLog)

	files, diskPath, err := newFileStore(ctx, cfg)
	if err != nil {
		appLog.Fatal("failed to initialize file storage", "mode", cfg.Storage.Mode, "error", err)
	}
	if closer, ok := files.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	ai, err := aiclient.New(aiclient.Options{
		BaseURL:    cfg.AI.BaseURL,
		Timeout:    cfg.AI.Timeout,
		MaxRetries: cfg.AI.MaxRetries,
		Logger:     appLog,
	})
	if err != nil {
		appLog.Fatal("failed to create ai client", "error", err)
	}

	mail := mailer.New(cfg.Mail, appLog)
	tokens := security.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL)

	// Initialize WebSocket hub
	hub := services.NewHub(appLog)
	go hub.Run(ctx)

	// Initialize services
	authService := services.NewAuthService(st, tokens, mail, limiter, services.AuthConfig{
		VerificationTTL: cfg.VerificationTTL,
		ResetTTL:        cfg.ResetTTL,
		FrontendURL:     cfg.FrontendURL,
	}, appLog)
	quizService := services.NewQuizService(st, ai, files, hub, cfg.MaxUploadBytes(), appLog)
	shareService := services.NewShareService(st, hub, cfg.ShareTTL, appLog)
	submissionService := services.NewSubmissionService(st, cfg.PassPercent, appLog)
	healthService := services.NewHealthService(st, ai, diskPath, int64(cfg.Storage.MinFreeDiskMB), appLog)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	quizHandler := handlers.NewQuizHandler(quizService, shareService, cfg.MaxUploadBytes())
	submissionHandler := handlers.NewSubmissionHandler(submissionService)
	healthHandler := handlers.NewHealthHandler(healthService)
	eventsHandler := handlers.NewEventsHandler(hub, cfg.AllowedOrigins, appLog)

	if cfg.LogMode != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.MaxMultipartMemory = cfg.MaxUploadBytes()
	router.Use(middleware.Recovery(appLog))
	router.Use(middleware.RequestLogger(appLog))
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	routes.SetupRoutes(router, authHandler, quizHandler, submissionHandler, healthHandler, eventsHandler, tokens)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLog.Info("server starting", "addr", cfg.Addr(), "storage", cfg.Storage.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	appLog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("graceful shutdown failed", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// newLimiter returns the redis limiter, or the in-process one when redis
// cannot be reached at startup.
func newLimiter(ctx context.Context, cfg *config.Config, log *logger.Logger) ratelimit.Limiter {
	if !cfg.RateLimitEnabled {
		log.Warn("rate limiting disabled")
		return ratelimit.Noop{}
	}

	client := config.InitRedis(cfg)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unavailable, using in-memory rate limiter", "error", err)
		_ = client.Close()
		return ratelimit.NewMemory()
	}
	return ratelimit.NewRedis(client)
}

// newFileStore also returns the directory whose free space the health check
// watches.
func newFileStore(ctx context.Context, cfg *config.Config) (filestore.Store, string, error) {
	switch cfg.Storage.Mode {
	case "gcs":
		gcs, err := filestore.NewGCS(ctx, filestore.GCSConfig{
			Bucket:   cfg.Storage.GCSBucket,
			Prefix:   cfg.Storage.GCSPrefix,
			Endpoint: cfg.Storage.GCSEndpoint,
		})
		if err != nil {
			return nil, "", err
		}
		return gcs, os.TempDir(), nil
	default:
		local, err := filestore.NewLocal(cfg.Storage.UploadDir)
		if err != nil {
			return nil, "", err
		}
		return local, local.Root(), nil
	}
}
