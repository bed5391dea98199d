package main

import (
	"context"
	_ "leadflow/docs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"leadflow/internal/campaign"
	"leadflow/internal/config"
	"leadflow/internal/db"
	"leadflow/internal/deposit"
	"leadflow/internal/lead"
	"leadflow/internal/logger"
	"leadflow/internal/monitor"
	"leadflow/internal/notify"
	"leadflow/internal/payment"
	"leadflow/internal/server"
)

// @title LeadFlow API
// @version 1.0
// @description API for lead generation with commission-backed merchant deposits.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {

	logger.Init()
	logger.Info("Starting LeadFlow application")
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	if err := lead.RegisterValidators(); err != nil {
		logger.Fatalf("Failed to register validators: %v", err)
	}

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	depositRepo := deposit.NewRepository(database)
	ledger := deposit.NewLedger(depositRepo, rdb)

	campaignRepo := campaign.NewRepository(database)
	leadRepo := lead.NewRepository(database)

	notifier := notify.New(
		rdb,
		cfg.EmailFrom,
		cfg.EmailFromName,
		cfg.AlertEmail,
		cfg.SMTPHost,
		cfg.SMTPPort,
		cfg.SMTPUser,
		cfg.SMTPPass,
	)
	logger.Info("Notification service initialized")

	manager := lead.NewManager(leadRepo, campaignRepo, ledger, notifier)

	gateway := payment.NewClient(cfg.PaymentGatewayURL, cfg.PaymentGatewayKey)

	depositHandler := deposit.NewHandler(ledger, gateway)
	leadHandler := lead.NewHandler(manager)
	campaignHandler := campaign.NewHandler(campaignRepo)
	paymentHandler := payment.NewHandler(ledger, cfg.PaymentGatewayKey)

	sweeper := monitor.NewSweeper(ledger, notifier, gateway)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go notifier.Start(ctx)
	go sweeper.Start(ctx)

	srv := server.New(cfg, depositHandler, leadHandler, campaignHandler, paymentHandler)

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(cfg.Port); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}
