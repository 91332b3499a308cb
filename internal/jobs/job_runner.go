package jobs

import (
	"database/sql"

	"careconnect-backend/internal/config"
	"careconnect-backend/internal/logger"
	"careconnect-backend/internal/repository/postgres"
	"careconnect-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	db       *sql.DB
	store    *postgres.Store
	services *Services
	config   *config.Config
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Escrow  service.EscrowService
	Payment service.PaymentService
	Bid     service.BidService
	Booking service.BookingService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(db *sql.DB, store *postgres.Store, services *Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		db:       db,
		store:    store,
		services: services,
		config:   cfg,
	}
}

// Config exposes the application config to the scheduler
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunAllJobs runs every job once (for manual execution via the cronjob
// binary's -run-once flag)
func (jr *JobRunner) RunAllJobs() {
	jr.AutoReleaseEscrows()
	jr.RetryPendingRefunds()
	jr.ExpireStaleBids()
}
