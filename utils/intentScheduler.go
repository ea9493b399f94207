package utils

import (
	"context"
	"coursehub/logger"
	"time"

	"github.com/robfig/cron/v3"
)

// IntentExpirer expires payment intents older than ttl.
type IntentExpirer interface {
	ExpireStale(ctx context.Context, ttl time.Duration) (int64, error)
}

// InitializeIntentScheduler starts a cron job that expires stale payment intents every 15 minutes.
// The caller stops the returned scheduler on shutdown.
func InitializeIntentScheduler(expirer IntentExpirer, ttl time.Duration) (*cron.Cron, error) {
	logger.Log.Info("[INTENT-SCHEDULER] Initializing payment intent scheduler...")

	c := cron.New()
	_, err := c.AddFunc("@every 15m", func() {
		ExpireStaleIntents(expirer, ttl)
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	logger.Log.Info("[INTENT-SCHEDULER] Payment intent scheduler started - runs every 15 minutes")
	return c, nil
}

// ExpireStaleIntents runs one expiry pass.
func ExpireStaleIntents(expirer IntentExpirer, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	expired, err := expirer.ExpireStale(ctx, ttl)
	if err != nil {
		logger.Log.WithError(err).Error("[INTENT-SCHEDULER] Error expiring payment intents")
		return
	}
	if expired > 0 {
		logger.Log.WithField("count", expired).Info("[INTENT-SCHEDULER] Expired stale payment intents")
	}
}
