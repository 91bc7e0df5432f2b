// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper drops idle entries and reports how many it removed.
type Sweeper interface {
	Sweep() int
}

// RateLimitSweepJob drops idle login rate-limit buckets so the limiter's
// memory stays bounded by recent traffic.
func RateLimitSweepJob(s Sweeper, logger *zap.Logger, interval time.Duration) Job {
	return Job{
		Name:     "rate-limit-sweep",
		Interval: interval,
		Run: func(ctx context.Context) error {
			if n := s.Sweep(); n > 0 {
				logger.Debug("swept idle rate-limit buckets", zap.Int("count", n))
			}
			return nil
		},
	}
}
