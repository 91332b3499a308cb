package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"careconnect-backend/internal/config"
	"careconnect-backend/internal/jobs"
	"careconnect-backend/internal/logger"
	"careconnect-backend/internal/processor"
	"careconnect-backend/internal/repository/postgres"
	"careconnect-backend/internal/scheduler"
	"careconnect-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'auto-release-escrows', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting CareConnect Cronjob Runner...", "log_level", cfg.Log.Level)

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
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

	// Initialize Services
	emailSender := buildEmailSender(cfg)
	notificationSvc := service.NewNotificationService(store.NotificationRepository, store.UserRepository, emailSender)
	escrowSvc := service.NewEscrowService(store.EscrowRepository, notificationSvc, service.EscrowConfig{
		HoldDays:          cfg.Escrow.HoldDays,
		ClientFeeBps:      cfg.Escrow.ClientFeeBps,
		ProviderFeeBps:    cfg.Escrow.ProviderFeeBps,
		PlatformAccountID: cfg.Escrow.PlatformAccountID,
		Currency:          cfg.Escrow.Currency,
	})
	paymentProcessor := processor.NewMockProcessor(cfg.Payment.WebhookSecret)
	paymentSvc := service.NewPaymentService(store.PaymentRepository, store.BookingRepository, paymentProcessor, notificationSvc, service.PaymentConfig{
		MinChargeCents: cfg.Payment.MinChargeCents,
		Currency:       cfg.Escrow.Currency,
		ClientFeeBps:   cfg.Escrow.ClientFeeBps,
		ProviderFeeBps: cfg.Escrow.ProviderFeeBps,
	})
	bidSvc := service.NewBidService(store.BidRepository, store.ListingRepository, notificationSvc)
	bookingSvc := service.NewBookingService(store.BookingRepository, store.ListingRepository, paymentSvc, escrowSvc, notificationSvc)

	jobServices := &jobs.Services{
		Escrow:  escrowSvc,
		Payment: paymentSvc,
		Bid:     bidSvc,
		Booking: bookingSvc,
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(db, store, jobServices, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler := scheduler.NewScheduler(jobRunner)

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "auto-release-escrows":
		jobRunner.AutoReleaseEscrows()
	case "retry-pending-refunds":
		jobRunner.RetryPendingRefunds()
	case "expire-stale-bids":
		jobRunner.ExpireStaleBids()
	case "all":
		jobRunner.RunAllJobs()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - auto-release-escrows\n")
		fmt.Printf("  - retry-pending-refunds\n")
		fmt.Printf("  - expire-stale-bids\n")
		fmt.Printf("  - all\n")
		os.Exit(1)
	}
}

// buildEmailSender selects the outbound mail implementation from config.
func buildEmailSender(cfg *config.Config) service.EmailSender {
	switch cfg.Email.Provider {
	case "smtp":
		return service.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.Email.From, cfg.Email.FromName)
	case "sendgrid":
		return service.NewSendGridSender(cfg.SendGrid.APIKey, cfg.Email.From, cfg.Email.FromName)
	default:
		return service.NewNoopSender()
	}
}
