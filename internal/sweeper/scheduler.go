package sweeper

import (
	"context"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Scheduler drives the sweeper on a fixed interval. The interval comes from
// SWEEP_INTERVAL_MINUTES (default 60, top-of-the-hour equivalent).
type Scheduler struct {
	sweeper  *Sweeper
	interval time.Duration
	log      *zap.Logger
}

func NewScheduler(sw *Sweeper, log *zap.Logger) *Scheduler {
	interval := 60 * time.Minute
	if v := os.Getenv("SWEEP_INTERVAL_MINUTES"); v != "" {
		if minutes, err := strconv.Atoi(v); err == nil && minutes > 0 {
			interval = time.Duration(minutes) * time.Minute
		}
	}
	return &Scheduler{sweeper: sw, interval: interval, log: log}
}

// Start runs one sweep immediately, then one per interval until the context
// is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()

		s.sweeper.Run(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweeper.Run(ctx)
			}
		}
	}()
	s.log.Info("expiry sweeper scheduled", zap.Duration("interval", s.interval))
}
