// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"

	sharelinkstore "github.com/mariam168/notakok/internal/app/store/sharelinks"
	userstore "github.com/mariam168/notakok/internal/app/store/users"
)

// shareLinkGrace is how long an expired share link record lingers before
// housekeeping removes it.
const shareLinkGrace = 30 * 24 * time.Hour

// ResetTokenCleanupJob creates a job that clears expired password reset
// tokens from user records.
func ResetTokenCleanupJob(users *userstore.Store, logger *zap.Logger) Job {
	return Job{
		Name:     "reset-token-cleanup",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			cleared, err := users.ClearExpiredResetTokens(ctx, time.Now())
			if err != nil {
				return err
			}
			if cleared > 0 {
				logger.Info("cleared expired password reset tokens",
					zap.Int64("cleared", cleared))
			}
			return nil
		},
	}
}

// ShareLinkCleanupJob creates a job that purges share links long past
// their expiry. Links expire lazily at resolve time; this only removes
// the stale records.
func ShareLinkCleanupJob(links *sharelinkstore.Store, logger *zap.Logger) Job {
	return Job{
		Name:     "share-link-cleanup",
		Interval: 6 * time.Hour,
		Run: func(ctx context.Context) error {
			cutoff := time.Now().Add(-shareLinkGrace)
			deleted, err := links.PurgeExpiredBefore(ctx, cutoff)
			if err != nil {
				return err
			}
			if deleted > 0 {
				logger.Info("purged expired share links",
					zap.Int64("deleted", deleted))
			}
			return nil
		},
	}
}
