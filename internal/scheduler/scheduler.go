package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/vytor/flashdeck/internal/logger"
)

// Purger removes expired cache entries.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Scheduler runs periodic maintenance tasks
type Scheduler struct {
	scheduler *gocron.Scheduler
	purger    Purger
	interval  time.Duration
	log       *logger.Logger
}

// New creates a scheduler that purges the cache every interval.
func New(purger Purger, interval time.Duration) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		purger:    purger,
		interval:  interval,
		log:       logger.Default().WithPrefix("scheduler"),
	}
}

// Start registers the jobs and runs them in the background.
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.interval).Do(s.PurgeCache); err != nil {
		return fmt.Errorf("schedule cache purge: %w", err)
	}
	s.scheduler.StartAsync()
	s.log.Info("cache purge scheduled every %v", s.interval)
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// PurgeCache runs one purge pass.
func (s *Scheduler) PurgeCache() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	ctx = logger.NewContext(ctx, s.log)

	n, err := s.purger.PurgeExpired(ctx)
	if err != nil {
		s.log.Error("cache purge failed: %v", err)
		return
	}
	if n > 0 {
		s.log.Info("purged %d expired cache entries", n)
	}
}
