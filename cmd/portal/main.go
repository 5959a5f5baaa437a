package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/club-portal/internal/client"
	"github.com/noah-isme/club-portal/internal/handler"
	"github.com/noah-isme/club-portal/internal/repository"
	"github.com/noah-isme/club-portal/internal/server"
	"github.com/noah-isme/club-portal/internal/service"
	"github.com/noah-isme/club-portal/pkg/cache"
	"github.com/noah-isme/club-portal/pkg/config"
	"github.com/noah-isme/club-portal/pkg/database"
	"github.com/noah-isme/club-portal/pkg/export"
	"github.com/noah-isme/club-portal/pkg/format"
	"github.com/noah-isme/club-portal/pkg/logger"
	"github.com/noah-isme/club-portal/pkg/storage"
)

const shutdownTimeout = 15 * time.Second

// @title Club Portal API
// @version 1.0.0
// @description Screen backend for the sports club portal
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsSvc := service.NewMetricsService()
	var checks []handler.ReadinessCheck

	var cacheRepo service.CacheRepository = repository.NewMemoryCache()
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}
	if redisClient != nil {
		redisRepo := repository.NewCacheRepository(redisClient, logr)
		defer redisRepo.Close() //nolint:errcheck
		cacheRepo = redisRepo
		checks = append(checks, handler.ReadinessCheck{Name: "redis", Check: redisRepo.Ping})
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Roles.CacheTTL, logr)

	var auditSvc *service.AuditService
	if cfg.Audit.Enabled {
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			logr.Fatal("failed to connect database", zap.Error(err))
		}
		defer db.Close() //nolint:errcheck
		auditRepo := repository.NewAuditRepository(db)
		auditSvc = service.NewAuditService(auditRepo, metricsSvc, logr)
		auditSvc.Start(ctx)
		defer auditSvc.Stop()
		checks = append(checks, handler.ReadinessCheck{Name: "database", Check: auditRepo.Ping})
	}

	clubClient := client.New(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, metricsSvc, logr)
	formatter := format.New(cfg.Account.Locale, cfg.Account.Currency)
	signer := storage.NewSignedURLSigner(cfg.Receipts.SignedURLSecret, cfg.Receipts.TTL)
	receipts := service.NewReceiptService(cacheSvc, signer, export.NewPDFExporter(), formatter,
		cfg.Receipts.PublicBaseURL+cfg.APIPrefix+"/receipts", logr)

	srv := server.New(cfg, server.Deps{
		Logger:    logr,
		Metrics:   metricsSvc,
		Client:    clubClient,
		Tokens:    service.NewTokenValidator(cfg.JWT.Secret, cfg.JWT.Issuer),
		Roles:     service.NewRoleSource(clubClient, cacheSvc, cfg.Roles.CacheTTL, logr),
		Receipts:  receipts,
		Audit:     auditSvc,
		Formatter: formatter,
		Checks:    checks,
	})
	srv.Run(ctx)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", httpServer.Addr, "env", cfg.Env, "upstream", cfg.Upstream.BaseURL)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
