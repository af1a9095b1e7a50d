package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/zastore/gateway"
	"github.com/example/zastore/pkg/auth"
	"github.com/example/zastore/pkg/catalog"
	"github.com/example/zastore/pkg/config"
	"github.com/example/zastore/pkg/discovery"
	"github.com/example/zastore/pkg/grpcserver"
	"github.com/example/zastore/pkg/logging"
	"github.com/example/zastore/pkg/notify"
	"github.com/example/zastore/pkg/orders"
	"github.com/example/zastore/pkg/pricing"
	"github.com/example/zastore/pkg/repository"
	"github.com/example/zastore/pkg/settings"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting storefront",
		zap.String("name", cfg.Server.Name),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Int("grpc_port", cfg.Server.Port))

	ctx := context.Background()

	db, err := repository.Open(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	if err := repository.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("Failed to access database pool", zap.Error(err))
	}
	defer sqlDB.Close()

	catalogRepo := repository.NewCatalogRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	userRepo := repository.NewUserRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	// Audit trail is optional; without MongoDB the services skip it.
	var (
		auditRepo     *repository.AuditRepository
		settingsAudit settings.AuditRecorder
		orderAudit    orders.AuditLog
	)
	if cfg.MongoDB.URI != "" {
		auditRepo, err = repository.NewAuditRepository(ctx, &cfg.MongoDB)
		if err != nil {
			logger.Warn("MongoDB unavailable, audit trail disabled", zap.Error(err))
		} else {
			settingsAudit = auditRepo
			orderAudit = auditRepo
			logger.Info("MongoDB connected successfully")
		}
	}

	settingsSvc, err := settings.NewService(settingsRepo, settingsAudit, cfg.Store, logger)
	if err != nil {
		logger.Fatal("Failed to create settings service", zap.Error(err))
	}
	if err := settingsSvc.Seed(ctx); err != nil {
		logger.Fatal("Failed to seed store settings", zap.Error(err))
	}

	countSeq := orders.NewCountSequencer(orderRepo)
	var (
		sequencer orders.Sequencer = countSeq
		cache     orders.Cache
	)
	redisRepo := repository.NewRedisRepository(&cfg.Redis)
	defer redisRepo.Close()
	if err := redisRepo.Ping(ctx); err != nil {
		logger.Warn("Redis connection failed, tracker cache disabled", zap.Error(err))
	} else {
		logger.Info("Redis connected successfully")
		sequencer = orders.NewFallbackSequencer(orders.NewRedisSequencer(redisRepo), countSeq, logger)
		cache = redisRepo
	}

	mailer := notify.NewMailer(cfg.Mail, logger)
	dispatcher, err := notify.NewDispatcher(mailer, cfg.Mail.SendTimeout, logger)
	if err != nil {
		logger.Fatal("Failed to start mail dispatcher", zap.Error(err))
	}
	defer dispatcher.Close()
	notifier := notify.NewNotifier(dispatcher, cfg.Mail.From)

	engine := pricing.NewEngine(catalogRepo, settingsSvc)
	catalogSvc := catalog.NewService(catalogRepo, logger)
	orderSvc := orders.NewService(orders.Deps{
		Orders:    orderRepo,
		Users:     userRepo,
		Pricer:    engine,
		Settings:  settingsSvc,
		Sequencer: sequencer,
		Cache:     cache,
		Audit:     orderAudit,
		Notifier:  notifier,
		Config:    cfg.Store,
		Logger:    logger,
	})

	verifier, err := auth.NewVerifier(cfg.Auth)
	if err != nil {
		logger.Fatal("Failed to create token verifier", zap.Error(err))
	}

	gw := gateway.NewGateway(&cfg.HTTP, logger, gateway.Services{
		Catalog:  catalogSvc,
		Pricer:   engine,
		Orders:   orderSvc,
		Settings: settingsSvc,
		Verifier: verifier,
	})
	gw.SetupRoutes()

	serverErr := make(chan error, 2)
	go func() {
		if err := gw.Start(); err != nil {
			serverErr <- fmt.Errorf("http: %w", err)
		}
	}()

	health := grpcserver.NewServer(&cfg.Server, logger)
	go func() {
		if err := health.Start(); err != nil {
			serverErr <- fmt.Errorf("grpc: %w", err)
		}
	}()

	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()
	checks := map[string]grpcserver.Check{
		"database": sqlDB.PingContext,
	}
	if auditRepo != nil {
		checks["mongodb"] = auditRepo.Ping
	}
	go health.Monitor(monitorCtx, 10*time.Second, checks)

	instance := &discovery.ServiceInstance{
		Name:     cfg.Server.Name,
		Host:     cfg.Server.Host,
		GRPCPort: cfg.Server.Port,
		HTTPPort: cfg.HTTP.Port,
	}
	var sd *discovery.ServiceDiscovery
	if cfg.Etcd.Enabled {
		sd, err = discovery.NewServiceDiscovery(&cfg.Etcd, logger)
		if err != nil {
			logger.Fatal("Failed to connect to etcd", zap.Error(err))
		}
		defer sd.Close()
		if err := sd.Register(monitorCtx, instance); err != nil {
			logger.Fatal("Failed to register service", zap.Error(err))
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-serverErr:
		logger.Error("Server error", zap.Error(err))
	}

	stopMonitor()
	health.SetServing(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := gw.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shut down HTTP server", zap.Error(err))
	}
	if sd != nil {
		if err := sd.Deregister(shutdownCtx, instance); err != nil {
			logger.Error("Failed to deregister service", zap.Error(err))
		}
	}
	health.Stop()
	if auditRepo != nil {
		if err := auditRepo.Close(shutdownCtx); err != nil {
			logger.Error("Failed to disconnect MongoDB", zap.Error(err))
		}
	}

	logger.Info("Storefront stopped")
}
