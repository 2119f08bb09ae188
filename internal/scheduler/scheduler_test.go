package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"spotwatch/internal/fetch"
	"spotwatch/internal/kv"
	"spotwatch/internal/model"
	"spotwatch/internal/store"
)

func TestFetchRequired(t *testing.T) {
	day := func(hour int) time.Time {
		return time.Date(2024, 1, 10, hour, 0, 0, 0, time.UTC)
	}
	tests := []struct {
		hour           int
		todayExists    bool
		tomorrowExists bool
		want           bool
	}{
		{9, false, false, true},
		{9, true, false, false},
		{15, true, false, true},
		{15, true, true, false},
		{13, true, true, false},
		{14, true, false, true}, // publish hour itself counts as after
		{9, false, true, true},
		{15, false, true, false},
	}
	for _, tt := range tests {
		got := FetchRequired(day(tt.hour), tt.todayExists, tt.tomorrowExists)
		if got != tt.want {
			t.Errorf("hour %02d today=%v tomorrow=%v: expected %v, got %v",
				tt.hour, tt.todayExists, tt.tomorrowExists, tt.want, got)
		}
	}
}

// capturePublisher records the last published window.
type capturePublisher struct {
	mu   sync.Mutex
	last *model.ChartWindow
}

func (p *capturePublisher) PublishWindow(win model.ChartWindow) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = &win
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) window() *model.ChartWindow {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func dayPrices(day time.Time) model.PriceSeries {
	s := model.NewPriceSeries()
	for h := 0; h < 24; h++ {
		s.Add(model.PriceRecord{StartTime: day.Add(time.Duration(h) * time.Hour), Price: float64(h)})
	}
	return s
}

func newTestScheduler(f fetch.Fetcher, pub *capturePublisher, now time.Time) (*Scheduler, *store.PriceStore) {
	kvs := kv.NewMemoryStore()
	ps := store.NewPriceStore(kvs)
	ss := store.NewSettingsStore(kvs, model.DefaultSettings())
	s := NewScheduler(context.Background(), ps, ss, f, pub)
	s.SetNow(func() time.Time { return now })
	return s, ps
}

func TestTick_EndToEnd(t *testing.T) {
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	now := day.Add(9 * time.Hour)
	fetcher := &fetch.MockFetcher{Series: dayPrices(day)}
	pub := &capturePublisher{}
	s, ps := newTestScheduler(fetcher, pub, now)

	s.Tick()

	if got := len(ps.Load()); got != 24 {
		t.Fatalf("expected 24 records after tick, got %d", got)
	}
	if !ps.HasRecordsOn(day) {
		t.Error("expected HasRecordsOn(2024-01-10) after tick")
	}
	win := pub.window()
	if win == nil {
		t.Fatal("expected a published window")
	}
	if len(win.Buckets) != 10 {
		t.Errorf("expected 10 buckets at zoom 10, got %d", len(win.Buckets))
	}
	if win.Buckets[0].StartTime.Hour() != 9 {
		t.Errorf("expected first bucket at hour 09, got %02d", win.Buckets[0].StartTime.Hour())
	}

	// A second tick with fresh data present must not refetch.
	s.Tick()
	if fetcher.Calls != 1 {
		t.Errorf("expected no refetch on second tick, got %d calls", fetcher.Calls)
	}
}

func TestTick_FetchFailureLeavesStoreUntouched(t *testing.T) {
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	fetcher := &fetch.MockFetcher{Err: errors.New("upstream down")}
	pub := &capturePublisher{}
	s, ps := newTestScheduler(fetcher, pub, now)

	s.Tick()

	if got := len(ps.Load()); got != 0 {
		t.Fatalf("expected store untouched on fetch failure, got %d records", got)
	}
	if pub.window() != nil {
		t.Error("expected no published window while data is unavailable")
	}

	// Next tick retries.
	s.Tick()
	if fetcher.Calls != 2 {
		t.Errorf("expected retry on next tick, got %d calls", fetcher.Calls)
	}
}

func TestTick_PrunesStaleDays(t *testing.T) {
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	now := day.Add(9 * time.Hour)
	fetcher := &fetch.MockFetcher{Series: model.NewPriceSeries()}
	pub := &capturePublisher{}
	s, ps := newTestScheduler(fetcher, pub, now)

	// Yesterday's and today's prices in the cache.
	ps.Merge(dayPrices(day.AddDate(0, 0, -1)))
	ps.Merge(dayPrices(day))

	s.Tick()

	for _, r := range ps.Sorted() {
		if model.BeforeDate(r.StartTime, now) {
			t.Fatalf("stale record %s survived tick", r.StartTime)
		}
	}
	if got := len(ps.Load()); got != 24 {
		t.Errorf("expected 24 records after prune, got %d", got)
	}
	// Today's data was present and it is before 14:00: no fetch.
	if fetcher.Calls != 0 {
		t.Errorf("expected no fetch, got %d calls", fetcher.Calls)
	}
}

// blockingFetcher parks in FetchPrices until released.
type blockingFetcher struct {
	entered chan struct{}
	release chan struct{}
	calls   int
	mu      sync.Mutex
}

func (f *blockingFetcher) Name() string { return "blocking" }

func (f *blockingFetcher) FetchPrices(context.Context) (model.PriceSeries, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	f.entered <- struct{}{}
	<-f.release
	return model.NewPriceSeries(), nil
}

func TestTick_SingleFlight(t *testing.T) {
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	fetcher := &blockingFetcher{entered: make(chan struct{}, 1), release: make(chan struct{})}
	pub := &capturePublisher{}
	s, _ := newTestScheduler(fetcher, pub, now)

	done := make(chan struct{})
	go func() {
		s.Tick()
		close(done)
	}()
	<-fetcher.entered // first tick is inside the fetch

	// A tick firing now must be skipped, not queued.
	s.Tick()
	fetcher.mu.Lock()
	calls := fetcher.calls
	fetcher.mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected overlapping tick to be skipped, got %d fetch calls", calls)
	}

	close(fetcher.release)
	<-done
}
