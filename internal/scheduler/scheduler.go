package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"spotwatch/internal/fetch"
	"spotwatch/internal/publisher"
	"spotwatch/internal/store"
	"spotwatch/internal/window"

	"github.com/robfig/cron/v3"
)

// publishHour is the local hour at which the upstream source publishes
// next-day prices. A domain fact, not configuration.
const publishHour = 14

// FetchRequired implements the refetch decision: before the publish hour the
// cache must cover today, at or after it the cache must cover tomorrow.
func FetchRequired(now time.Time, todayExists, tomorrowExists bool) bool {
	afterPublish := now.Hour() >= publishHour
	return (!todayExists && !afterPublish) || (!tomorrowExists && afterPublish)
}

// Scheduler drives the periodic prune/fetch/recompute cycle.
type Scheduler struct {
	Cron      *cron.Cron
	Store     *store.PriceStore
	Settings  *store.SettingsStore
	Fetcher   fetch.Fetcher
	Publisher publisher.Publisher
	Ctx       context.Context

	// now is injectable so ticks can be driven by a virtual clock in tests.
	now      func() time.Time
	fetching atomic.Bool
}

// NewScheduler creates a Scheduler. The context cancels any in-flight fetch
// when the session ends; its result is then discarded.
func NewScheduler(ctx context.Context, ps *store.PriceStore, ss *store.SettingsStore, f fetch.Fetcher, pub publisher.Publisher) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(),
		Store:     ps,
		Settings:  ss,
		Fetcher:   f,
		Publisher: pub,
		Ctx:       ctx,
		now:       time.Now,
	}
}

// SetNow overrides the clock, for tests.
func (s *Scheduler) SetNow(now func() time.Time) { s.now = now }

// Register schedules the periodic tick.
func (s *Scheduler) Register(interval time.Duration) error {
	if _, err := s.Cron.AddFunc(fmt.Sprintf("@every %s", interval), s.Tick); err != nil {
		return fmt.Errorf("register tick: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes a tick immediately (startup and app-foreground trigger).
func (s *Scheduler) RunNow() {
	s.Tick()
}

// Tick prunes stale records, decides whether a refetch is required, applies
// it and republishes the derived window. A tick that fires while a fetch is
// outstanding is skipped, not queued.
func (s *Scheduler) Tick() {
	now := s.now()
	s.Store.Prune(now)

	todayExists := s.Store.HasRecordsOn(now)
	tomorrowExists := s.Store.HasRecordsOn(now.AddDate(0, 0, 1))

	if FetchRequired(now, todayExists, tomorrowExists) {
		if !s.fetching.CompareAndSwap(false, true) {
			log.Println("[INFO] fetch already in flight, skipping tick")
			return
		}
		s.fetchAndMerge()
		s.fetching.Store(false)
	}

	s.publish(now)
}

// fetchAndMerge pulls from the upstream source and merges on success. On
// failure the store is left untouched; the next tick retries, the interval
// itself rate-limits.
func (s *Scheduler) fetchAndMerge() {
	log.Printf("[INFO] fetching prices from %s", s.Fetcher.Name())
	series, err := s.Fetcher.FetchPrices(s.Ctx)
	if err != nil {
		log.Printf("[ERROR] fetch prices: %v", err)
		return
	}
	merged := s.Store.Merge(series)
	log.Printf("[INFO] merged %d records, %d cached", len(series), len(merged))
}

func (s *Scheduler) publish(now time.Time) {
	settings := s.Settings.Current()
	win, err := window.Compute(s.Store.Series(), now, settings.ZoomLevel, settings.Classification(), time.Time{})
	if err != nil {
		if errors.Is(err, window.ErrNoData) {
			log.Println("[INFO] no upcoming prices yet, waiting for next fetch")
			return
		}
		log.Printf("[ERROR] compute window: %v", err)
		return
	}
	if err := s.Publisher.PublishWindow(win); err != nil {
		log.Printf("[ERROR] publish window: %v", err)
	}
}
