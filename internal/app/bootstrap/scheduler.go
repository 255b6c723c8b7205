package bootstrap

import (
	"context"
	"time"

	"github.com/vkovalov/workbot/internal/stats"
	"github.com/vkovalov/workbot/pkg/logging"
)

// StartDailyReset launches a loop that clears every conversation's daily
// window at local midnight. It runs until ctx is cancelled.
func StartDailyReset(ctx context.Context, aggregator *stats.Aggregator, logger *logging.Logger) {
	if aggregator == nil {
		return
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	go func() {
		for {
			wait := time.Until(nextMidnight(time.Now()))
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				aggregator.ResetDaily(ctx)
				logger.Info("daily stats window reset")
			}
		}
	}()
}

func nextMidnight(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return next.AddDate(0, 0, 1)
}
