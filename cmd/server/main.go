package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	httpapi "careconnect-backend/internal/api/http"
	"careconnect-backend/internal/config"
	"careconnect-backend/internal/logger"
	"careconnect-backend/internal/processor"
	"careconnect-backend/internal/repository/postgres"
	"careconnect-backend/internal/security"
	"careconnect-backend/internal/service"
	"careconnect-backend/internal/storage"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting CareConnect Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Security
	tokenManager := security.NewTokenManager(
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute,
		time.Duration(cfg.JWT.RefreshTokenExpiry)*time.Minute,
	)

	// Initialize Blob Storage
	var blobStore storage.BlobStore
	if cfg.Storage.Type == "" || cfg.Storage.Type == "mock" {
		logger.Info("Using mock blob storage (local filesystem)", "upload_dir", cfg.Storage.UploadDir)
		blobStore, err = storage.NewMockBlobStore(cfg.Storage.BaseURL, cfg.Storage.UploadDir)
		if err != nil {
			log.Fatalf("Failed to initialize mock storage: %v", err)
		}
	} else {
		log.Fatalf("Storage type '%s' not yet implemented", cfg.Storage.Type)
	}

	// Initialize Email Sender
	emailSender := buildEmailSender(cfg)

	// Initialize Payment Processor
	// The mock processor stands in for a real card processor integration;
	// it shares the webhook secret used to sign callback payloads.
	paymentProcessor := processor.NewMockProcessor(cfg.Payment.WebhookSecret)

	// Initialize Services
	notificationSvc := service.NewNotificationService(store.NotificationRepository, store.UserRepository, emailSender)
	authSvc := service.NewAuthService(store.UserRepository, tokenManager)
	listingSvc := service.NewListingService(store.ListingRepository)
	escrowSvc := service.NewEscrowService(store.EscrowRepository, notificationSvc, service.EscrowConfig{
		HoldDays:          cfg.Escrow.HoldDays,
		ClientFeeBps:      cfg.Escrow.ClientFeeBps,
		ProviderFeeBps:    cfg.Escrow.ProviderFeeBps,
		PlatformAccountID: cfg.Escrow.PlatformAccountID,
		Currency:          cfg.Escrow.Currency,
	})
	paymentSvc := service.NewPaymentService(store.PaymentRepository, store.BookingRepository, paymentProcessor, notificationSvc, service.PaymentConfig{
		MinChargeCents: cfg.Payment.MinChargeCents,
		Currency:       cfg.Escrow.Currency,
		ClientFeeBps:   cfg.Escrow.ClientFeeBps,
		ProviderFeeBps: cfg.Escrow.ProviderFeeBps,
	})
	bookingSvc := service.NewBookingService(store.BookingRepository, store.ListingRepository, paymentSvc, escrowSvc, notificationSvc)
	ledgerSvc := service.NewLedgerService(store.LedgerRepository)
	bidSvc := service.NewBidService(store.BidRepository, store.ListingRepository, notificationSvc)

	// Assemble the router
	router := httpapi.NewRouter(httpapi.RouterDeps{
		Auth:          authSvc,
		Listings:      listingSvc,
		Bookings:      bookingSvc,
		Payments:      paymentSvc,
		Escrow:        escrowSvc,
		Ledger:        ledgerSvc,
		Bids:          bidSvc,
		Notifications: notificationSvc,
		Tokens:        tokenManager,
		BlobStore:     blobStore,
	})

	server := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down HTTP server...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	logger.Info("Server stopped. Goodbye!")
}

// buildEmailSender selects the outbound mail implementation from config.
func buildEmailSender(cfg *config.Config) service.EmailSender {
	switch cfg.Email.Provider {
	case "smtp":
		logger.Info("Using SMTP email sender", "host", cfg.SMTP.Host, "port", cfg.SMTP.Port)
		return service.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.Email.From, cfg.Email.FromName)
	case "sendgrid":
		logger.Info("Using SendGrid email sender")
		return service.NewSendGridSender(cfg.SendGrid.APIKey, cfg.Email.From, cfg.Email.FromName)
	default:
		logger.Info("Email delivery disabled")
		return service.NewNoopSender()
	}
}
