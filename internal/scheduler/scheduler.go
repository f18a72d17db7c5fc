package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-co-op/gocron"
)

// MinInterval is the shortest accepted watch interval.
const MinInterval = time.Minute

// Runner performs one fetch-and-print cycle.
type Runner interface {
	Once(ctx context.Context, city string) error
}

// Scheduler periodically re-runs a one-shot lookup for a single city.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	city      string
	interval  time.Duration
	log       *slog.Logger
}

// New creates a new Scheduler.
func New(city string, interval time.Duration, runner Runner, log *slog.Logger) (*Scheduler, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, errors.New("watch requires a city")
	}
	if interval < MinInterval {
		return nil, fmt.Errorf("watch interval %s is below the minimum of %s", interval, MinInterval)
	}
	if log == nil {
		log = slog.Default()
	}

	s := gocron.NewScheduler(time.UTC)
	// Never overlap lookups; a slow response delays the next run instead.
	s.SingletonModeAll()

	return &Scheduler{
		scheduler: s,
		runner:    runner,
		city:      city,
		interval:  interval,
		log:       log,
	}, nil
}

// Start schedules the periodic job, runs it once right away and starts the
// underlying scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.scheduler.Every(s.interval).StartImmediately().Do(func() {
		if ctx.Err() != nil {
			return
		}
		s.log.Debug("scheduler: running weather lookup", "city", s.city)
		if err := s.runner.Once(ctx, s.city); err != nil {
			s.log.Warn("scheduler: lookup failed", "city", s.city, "err", err)
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.log.Info("scheduler: watching", "city", s.city, "interval", s.interval)
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// Run starts the scheduler and blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	defer s.Stop()

	<-ctx.Done()
	s.log.Info("scheduler: stopped", "city", s.city)
	return nil
}
