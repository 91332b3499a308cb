package jobs

import (
	"context"
	"time"

	"careconnect-backend/internal/logger"
)

// ExpireStaleBids rejects pending bids older than the configured age so job
// listings do not accumulate dead offers.
func (jr *JobRunner) ExpireStaleBids() {
	jr.runWithRecovery("ExpireStaleBids", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		maxAge := time.Duration(jr.config.Scheduler.BidMaxAgeDays) * 24 * time.Hour
		expired, err := jr.services.Bid.ExpireStaleBids(ctx, maxAge)
		if err != nil {
			logger.Error("Stale bid sweep failed", "error", err)
			return
		}
		logger.Info("Stale bid sweep finished", "expired", expired)
	})
}
