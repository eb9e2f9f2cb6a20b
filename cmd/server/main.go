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

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"lead-radar/internal/ai"
	"lead-radar/internal/archiver"
	"lead-radar/internal/auth"
	"lead-radar/internal/config"
	apphttp "lead-radar/internal/http"
	"lead-radar/internal/metrics"
	"lead-radar/internal/repository/sqlite"
	"lead-radar/internal/service"
	"lead-radar/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	configureLogger(logger, cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := sqlite.Migrate(ctx, db, logger); err != nil {
		logger.Fatalf("migrate database: %v", err)
	}

	userRepo := sqlite.NewUserRepository(db)
	businessRepo := sqlite.NewBusinessRepository(db)
	leadRepo := sqlite.NewLeadRepository(db)
	campaignRepo := sqlite.NewCampaignRepository(db)
	pageRepo := sqlite.NewLandingPageRepository(db)
	insightRepo := sqlite.NewInsightRepository(db)
	reportRepo := sqlite.NewReportRepository(db)

	hasher, err := auth.NewPasswordHasher(cfg.Auth.PasswordScheme)
	if err != nil {
		logger.Fatalf("password hasher: %v", err)
	}
	tokens, err := auth.NewTokenIssuer(auth.TokenConfig{
		Secret:    cfg.Auth.JWTSecret,
		Algorithm: cfg.Auth.JWTAlgorithm,
		TTL:       cfg.TokenTTL(),
	})
	if err != nil {
		logger.Fatalf("token issuer: %v", err)
	}

	assistant := ai.NewAssistant(buildGenerator(cfg, logger), logger, cfg.AI.SurfaceErrors)
	if !assistant.Configured() {
		logger.Warn("generative provider not configured; insights and reports will carry a placeholder text")
	}

	storageSvc, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}

	reportDeps := service.ReportDeps{
		Businesses: businessRepo,
		Leads:      leadRepo,
		Campaigns:  campaignRepo,
		Pages:      pageRepo,
		Reports:    reportRepo,
		Assistant:  assistant,
		Bucket:     cfg.Storage.Bucket,
		KeyPrefix:  cfg.Storage.KeyPrefix,
		Logger:     logger,
	}

	var manager archiver.Manager
	if storageSvc != nil {
		manager = archiver.NewManager(archiver.Config{
			Bucket:        cfg.Storage.Bucket,
			KeyPrefix:     cfg.Storage.KeyPrefix,
			MaxConcurrent: 3,
			Logger:        logger,
		}, reportRepo, storageSvc)
		if err := manager.Start(ctx); err != nil {
			logger.Fatalf("start archiver: %v", err)
		}
		if err := manager.Resume(ctx); err != nil {
			logger.Warnf("resume archives: %v", err)
		}
		reportDeps.Archiver = manager
		reportDeps.Storage = storageSvc
	}

	services := apphttp.Services{
		Users:        service.NewUserService(userRepo, hasher, logger),
		Businesses:   service.NewBusinessService(businessRepo),
		Leads:        service.NewLeadService(businessRepo, leadRepo),
		Campaigns:    service.NewCampaignService(businessRepo, campaignRepo),
		LandingPages: service.NewLandingPageService(businessRepo, pageRepo, leadRepo, cfg.Server.PublicURL),
		Insights:     service.NewInsightService(businessRepo, insightRepo, assistant),
		Reports:      service.NewReportService(reportDeps),
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.RegisterCollectors(registry)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	handler := apphttp.NewHandler(services, tokens, logger, apphttp.Options{
		CORSOrigins: cfg.AllowedOrigins(),
		RateRPS:     cfg.RateLimit.RPS,
		RateBurst:   cfg.RateLimit.Burst,
	})
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	if manager != nil {
		manager.Shutdown()
	}

	logger.Info("bye")
}

func configureLogger(logger *logrus.Logger, level, format string) {
	if lvl, err := logrus.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.Warnf("unknown log level %q, keeping %s", level, logger.GetLevel())
	}
	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
}

func buildGenerator(cfg config.Config, logger *logrus.Logger) ai.Generator {
	if cfg.AI.APIKey == "" {
		return nil
	}
	client, err := ai.NewGeminiClient(ai.GeminiConfig{
		APIKey:  cfg.AI.APIKey,
		Model:   cfg.AI.Model,
		BaseURL: cfg.AI.BaseURL,
		Timeout: cfg.AITimeout(),
	})
	if err != nil {
		logger.Warnf("generative provider disabled: %v", err)
		return nil
	}
	logger.Infof("using generative model %s", cfg.AI.Model)
	return client
}

// buildStorage returns nil when no bucket is configured; reports then stay pending.
func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Bucket == "" {
		logger.Info("storage bucket not set; report archiving disabled")
		return nil, nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}
