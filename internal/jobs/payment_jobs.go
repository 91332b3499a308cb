package jobs

import (
	"context"
	"time"

	"careconnect-backend/internal/logger"
)

// RetryPendingRefunds re-attempts refunds that failed during booking
// cancellation or rejection.
func (jr *JobRunner) RetryPendingRefunds() {
	jr.runWithRecovery("RetryPendingRefunds", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		refunded, err := jr.services.Payment.RetryPendingRefunds(ctx, 100)
		if err != nil {
			logger.Error("Refund retry sweep failed", "error", err)
			return
		}
		logger.Info("Refund retry sweep finished", "refunded", refunded)
	})
}
