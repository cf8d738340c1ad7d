package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"marketplace/sellerhub/internal/api"
	"marketplace/sellerhub/internal/api/middleware"
	"marketplace/sellerhub/internal/cache"
	"marketplace/sellerhub/internal/config"
	"marketplace/sellerhub/internal/db"
	"marketplace/sellerhub/internal/logging"
	"marketplace/sellerhub/internal/marketplace"
	"marketplace/sellerhub/internal/places"
	"marketplace/sellerhub/internal/services"
	"marketplace/sellerhub/internal/storage"
	"marketplace/sellerhub/internal/tasks"
	"marketplace/sellerhub/internal/validation"
	"marketplace/sellerhub/internal/verification"
)

var runMode = flag.String("m", "all", "Run mode: 'api', 'bg' (verification poll worker), 'all' (default)")

func main() {
	flag.Parse()

	cfg, err := config.Load(*runMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogFormat, cfg.AppName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	if cfg.LogFormat != "console" {
		gin.SetMode(gin.ReleaseMode)
	}

	mongoClient, mongoDb, err := db.ConnectDB(cfg.MongoURI, cfg.MongoDbName, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.DisconnectDB(mongoClient, logger); err != nil {
			logger.Error("error disconnecting from MongoDB", zap.Error(err))
		}
	}()
	if err := services.EnsureIndexes(context.Background(), mongoDb); err != nil {
		logger.Fatal("failed to ensure indexes", zap.Error(err))
	}

	redisClient, err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
	if err != nil {
		logger.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := cache.DisconnectRedis(redisClient, logger); err != nil {
			logger.Error("error disconnecting from Redis", zap.Error(err))
		}
	}()

	// Verification pipeline
	provider := verification.NewHTTPProvider(verification.HTTPProviderConfig{
		BaseURL:    cfg.VerificationBaseURL,
		APIKey:     cfg.VerificationAPIKey,
		GSTPath:    cfg.VerificationGSTPath,
		BankPath:   cfg.VerificationBankPath,
		StatusPath: cfg.VerificationStatusPath,
		Timeout:    cfg.HTTPTimeout,
	}, logger)
	poller := verification.NewPoller(provider, map[verification.SubjectType]verification.Policy{
		verification.SubjectGST:  {MaxAttempts: cfg.GSTPollMaxAttempts, Delay: cfg.GSTPollDelay},
		verification.SubjectBank: {MaxAttempts: cfg.BankPollMaxAttempts, Delay: cfg.BankPollDelay},
	}, logger)
	stateStore := verification.NewRedisStateStore(redisClient, verification.DefaultStateTTL)

	var taskClient *asynq.Client
	var scheduler services.PollScheduler
	if cfg.VerificationExecutor == "asynq" {
		taskClient = tasks.NewClient(redisClient)
		defer taskClient.Close()
		scheduler = tasks.NewScheduler(taskClient, logger)
	}

	sellerService := services.NewSellerService(mongoDb, logger)
	verificationService := services.NewVerificationService(
		sellerService, verification.NewInitiator(provider, logger), poller, stateStore, scheduler, logger)
	defer verificationService.Shutdown()

	var wg sync.WaitGroup
	shutdownChan := make(chan struct{}, 1)

	serviceSrv := &http.Server{
		Addr:    ":" + cfg.ServiceApiPort,
		Handler: api.SetupServiceRouter(shutdownChan, logger),
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("service API listening", zap.String("port", cfg.ServiceApiPort))
		if err := serviceSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("service API ListenAndServe error", zap.Error(err))
		}
	}()

	var mainApiSrv *http.Server
	var verifyLimiter *middleware.RateLimiterMiddleware
	var backgroundTaskSrv *asynq.Server

	logger.Info("starting application",
		zap.String("mode", cfg.RunMode), zap.String("executor", cfg.VerificationExecutor))

	apiMode := func() {
		market := marketplace.NewClient(cfg.MarketplaceBaseURL, cfg.MarketplaceAPIKey, cfg.HTTPTimeout, logger)
		placesClient := places.NewClient(cfg.PlacesBaseURL, cfg.PlacesAPIKey, cfg.PlacesCountry, cfg.HTTPTimeout, logger)
		s3Storage, err := storage.NewS3Storage(cfg, logger)
		if err != nil {
			logger.Fatal("failed to initialize S3 storage", zap.Error(err))
		}
		validator := validation.New()
		locationService := services.NewLocationService(placesClient, cache.NewJSONCache(redisClient, "places", cfg.GetCacheTTL), logger)

		svcs := api.Services{
			Sellers:      sellerService,
			Verification: verificationService,
			Locations:    locationService,
			Catalog:      services.NewCatalogService(market, cache.NewJSONCache(redisClient, "catalog", cfg.GetCacheTTL), logger),
			Account:      services.NewAccountService(sellerService, market, validator, logger),
			Registration: services.NewRegistrationService(
				sellerService, verificationService, locationService, market, s3Storage, services.NewWizard(validator), logger),
		}
		verifyLimiter = middleware.NewRateLimiterMiddleware(cfg.VerifyRateLimitPerMinute, cfg.VerifyRateLimitBurst, logger)

		mainApiSrv = &http.Server{
			Addr:    ":" + cfg.ApiPort,
			Handler: api.SetupRouter(cfg, svcs, verifyLimiter, logger),
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("main API listening", zap.String("port", cfg.ApiPort))
			if err := mainApiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("main API ListenAndServe error", zap.Error(err))
			}
		}()
	}

	bgMode := func() {
		if scheduler == nil {
			logger.Info("inline verification executor, no background worker started")
			return
		}
		processor := tasks.NewTaskProcessor(verificationService, scheduler, logger)
		backgroundTaskSrv = tasks.SetupServer(redisClient, cfg.WorkerConcurrency, logger)
		if err := backgroundTaskSrv.Start(processor.Mux()); err != nil {
			logger.Fatal("background task server error", zap.Error(err))
		}
		logger.Info("background task server started")
	}

	switch cfg.RunMode {
	case "api":
		apiMode()
	case "bg":
		bgMode()
	case "all":
		apiMode()
		bgMode()
	default:
		logger.Fatal("invalid run mode", zap.String("mode", cfg.RunMode))
	}

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case <-shutdownChan:
		logger.Info("shutdown requested via service API")
	}

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if err := serviceSrv.Shutdown(ctxShutdown); err != nil {
		logger.Error("service API shutdown error", zap.Error(err))
	}
	if mainApiSrv != nil {
		if err := mainApiSrv.Shutdown(ctxShutdown); err != nil {
			logger.Error("main API shutdown error", zap.Error(err))
		}
		verifyLimiter.Close()
	}
	if backgroundTaskSrv != nil {
		backgroundTaskSrv.Shutdown()
	}

	wg.Wait()
	logger.Info("server gracefully stopped")
}
