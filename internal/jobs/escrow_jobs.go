package jobs

import (
	"context"
	"time"

	"careconnect-backend/internal/logger"
)

// AutoReleaseEscrows settles every escrow whose hold window has elapsed.
// Each record is released independently; the guarded release transaction
// makes concurrent runs against the same records safe.
func (jr *JobRunner) AutoReleaseEscrows() {
	jr.runWithRecovery("AutoReleaseEscrows", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		log := logger.WithJob("AutoReleaseEscrows")
		now := time.Now().UTC()
		batch := jr.config.Escrow.SweepBatchSize

		// Backfill records for completed bookings whose escrow insert
		// failed, so the sweep below can see them.
		if backfilled, err := jr.services.Booking.ReconcileEscrows(ctx, batch); err != nil {
			log.Error("Escrow reconcile pass failed", "error", err)
		} else if backfilled > 0 {
			log.Info("Escrow records reconciled", "count", backfilled)
		}

		var totalReleased, totalFailed int64
		for {
			released, failed, err := jr.services.Escrow.AutoReleaseDue(ctx, now, batch)
			if err != nil {
				log.Error("Auto-release sweep aborted", "error", err)
				break
			}
			totalReleased += released
			totalFailed += failed
			// A short batch means the backlog is drained; a batch with no
			// releases means only failing records remain.
			if released == 0 || released+failed < batch {
				break
			}
		}

		log.Info("Auto-release sweep finished", "released", totalReleased, "failed", totalFailed)
	})
}
