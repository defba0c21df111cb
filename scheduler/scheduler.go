package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"powderlines/config"
	"powderlines/scraper"
)

// Triggerable allows workers to be kicked manually.
type Triggerable interface {
	Trigger()
}

// Scheduler drives the daily scrape path: a cron expression when
// configured, otherwise a fixed check interval. Every firing is a full
// RunAll; the decision engine makes repeated firings cheap.
type Scheduler struct {
	cfg          *config.Config
	orchestrator *scraper.Orchestrator
	cron         *cron.Cron
	ticker       *time.Ticker
	stopCh       chan struct{}

	liftWorker Triggerable
}

func New(cfg *config.Config, orchestrator *scraper.Orchestrator) *Scheduler {
	return &Scheduler{
		cfg:          cfg,
		orchestrator: orchestrator,
		cron:         cron.New(),
		stopCh:       make(chan struct{}),
	}
}

// SetLiftWorker registers the lift poller for manual triggering after a
// scheduled run.
func (s *Scheduler) SetLiftWorker(w Triggerable) {
	s.liftWorker = w
}

func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.Schedule.Cron != "" {
		log.Printf("Starting scheduler with cron: %s", s.cfg.Schedule.Cron)
		_, err := s.cron.AddFunc(s.cfg.Schedule.Cron, func() {
			s.fire(ctx)
		})
		if err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		s.cron.Start()
		return nil
	}

	interval := time.Duration(s.cfg.Schedule.CheckIntervalHours) * time.Hour
	log.Printf("Starting scheduler with check interval: %s", interval)
	s.ticker = time.NewTicker(interval)
	go func() {
		// Check immediately on startup so a restart mid-morning does not
		// wait out a full interval.
		s.fire(ctx)
		for {
			select {
			case <-s.ticker.C:
				s.fire(ctx)
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func (s *Scheduler) fire(ctx context.Context) {
	summary := s.orchestrator.RunAll(ctx)
	if summary.Scraped > 0 && s.liftWorker != nil {
		s.liftWorker.Trigger()
	}
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
}

func (s *Scheduler) TriggerNow(ctx context.Context) {
	s.fire(ctx)
}
