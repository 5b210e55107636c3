package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/shopcore/gateway"
	"github.com/example/shopcore/pkg/catalog"
	"github.com/example/shopcore/pkg/config"
	"github.com/example/shopcore/pkg/directory"
	"github.com/example/shopcore/pkg/discovery"
	"github.com/example/shopcore/pkg/inventory"
	"github.com/example/shopcore/pkg/models"
	"github.com/example/shopcore/pkg/notify"
	"github.com/example/shopcore/pkg/order"
	"github.com/example/shopcore/pkg/repository"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	// Load config
	cfg, err := config.Load("config/server-config.yaml")
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting order service",
		zap.String("name", cfg.Server.Name),
		zap.Int("port", cfg.HTTP.Port))

	// Connect to MySQL
	db, err := gorm.Open(mysql.Open(cfg.MySQL.DSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to MySQL", zap.Error(err))
	}
	if err := db.AutoMigrate(&models.Order{}, &models.Product{}, &models.User{}); err != nil {
		logger.Fatal("Failed to migrate", zap.Error(err))
	}

	// Redis
	redisRepo := repository.NewRedisRepository(&cfg.Redis)
	defer redisRepo.Close()

	// MongoDB
	mongoRepo, err := repository.NewMongoRepository(&cfg.MongoDB)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}

	// Notifications
	notifier, err := notify.NewNotifier(logger)
	if err != nil {
		logger.Fatal("Failed to start notifier", zap.Error(err))
	}
	defer notifier.Stop()

	// Core services
	cat := catalog.NewCatalog(db)
	dir := directory.NewDirectory(db)
	ledger := inventory.NewLedger(db)
	pricer := order.NewPricer(cat, dir)
	svc := order.NewService(db, pricer, ledger, redisRepo, mongoRepo, notifier, logger)
	query := order.NewQuery(db, svc, cat, dir)

	gw := gateway.NewGateway(cfg, logger, svc, query)
	gw.SetupRoutes()

	// Connect to etcd for service discovery
	registrar, err := discovery.NewRegistrar(&cfg.Etcd)
	if err != nil {
		logger.Fatal("Failed to connect to etcd", zap.Error(err))
	}
	defer registrar.Close()

	ctx := context.Background()
	instance := &discovery.ServiceInstance{
		Name: cfg.Server.Name,
		Host: cfg.HTTP.Host,
		Port: cfg.HTTP.Port,
	}
	if err := registrar.Register(ctx, instance); err != nil {
		logger.Fatal("Failed to register service", zap.Error(err))
	}

	logger.Info("Service registered in etcd",
		zap.String("name", cfg.Server.Name),
		zap.String("address", fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)))

	// Ping dependencies
	if err := redisRepo.Ping(ctx); err != nil {
		logger.Warn("Redis connection failed", zap.Error(err))
	} else {
		logger.Info("Redis connected successfully")
	}
	if err := mongoRepo.Ping(ctx); err != nil {
		logger.Warn("MongoDB connection failed", zap.Error(err))
	} else {
		logger.Info("MongoDB connected successfully")
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		if err := gw.Start(); err != nil {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-serverErr:
		logger.Fatal("Server error", zap.Error(err))
	}

	// Deregister service
	if err := registrar.Deregister(ctx, instance); err != nil {
		logger.Error("Failed to deregister service", zap.Error(err))
	}

	if err := mongoRepo.Close(ctx); err != nil {
		logger.Error("Failed to close MongoDB", zap.Error(err))
	}

	logger.Info("Service stopped")
}
