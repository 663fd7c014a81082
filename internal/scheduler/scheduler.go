package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

// Refresher reloads a cached resource.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Sweeper drops expired entries and reports how many went.
type Sweeper interface {
	Sweep() int
}

// Scheduler periodically refreshes the news cache and sweeps old chart images.
type Scheduler struct {
	scheduler *gocron.Scheduler
	logger    zerolog.Logger
	timeout   time.Duration
}

// New creates a new Scheduler. timeout bounds a single job run.
func New(loc *time.Location, timeout time.Duration, logger zerolog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	s := gocron.NewScheduler(loc)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		logger:    logger.With().Str("component", "scheduler").Logger(),
		timeout:   timeout,
	}
}

// AddRefresh schedules r every interval, starting immediately.
func (s *Scheduler) AddRefresh(name string, interval time.Duration, r Refresher) error {
	_, err := s.scheduler.Every(interval).StartImmediately().Tag(name).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		start := time.Now()
		if err := r.Refresh(ctx); err != nil {
			s.logger.Warn().Err(err).Str("job", name).Msg("refresh failed")
			return
		}
		s.logger.Debug().Str("job", name).Dur("took", time.Since(start)).Msg("refresh completed")
	})
	return err
}

// AddSweep schedules sw every interval.
func (s *Scheduler) AddSweep(name string, interval time.Duration, sw Sweeper) error {
	_, err := s.scheduler.Every(interval).WaitForSchedule().Tag(name).Do(func() {
		if n := sw.Sweep(); n > 0 {
			s.logger.Debug().Str("job", name).Int("removed", n).Msg("sweep completed")
		}
	})
	return err
}

// Start starts the underlying scheduler without blocking.
func (s *Scheduler) Start() {
	s.logger.Info().Int("jobs", len(s.scheduler.Jobs())).Msg("scheduler started")
	s.scheduler.StartAsync()
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
