package store

import (
	"errors"
	"testing"
	"time"

	"spotwatch/internal/kv"
	"spotwatch/internal/model"
)

func hourly(start time.Time, hours int, price float64) model.PriceSeries {
	s := model.NewPriceSeries()
	for i := 0; i < hours; i++ {
		s.Add(model.PriceRecord{StartTime: start.Add(time.Duration(i) * time.Hour), Price: price})
	}
	return s
}

func TestPriceStore_PersistAndReload(t *testing.T) {
	kvs := kv.NewMemoryStore()
	ps := NewPriceStore(kvs)

	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	ps.Merge(hourly(start, 24, 4.2))

	// A fresh store over the same kv must see the same data.
	reloaded := NewPriceStore(kvs)
	if got := len(reloaded.Load()); got != 24 {
		t.Fatalf("expected 24 records after reload, got %d", got)
	}
	if !reloaded.HasRecordsOn(start) {
		t.Error("expected records on 2024-01-10 after reload")
	}
}

func TestPriceStore_CorruptBlobYieldsEmpty(t *testing.T) {
	kvs := kv.NewMemoryStore()
	if err := kvs.Set(KeyPriceSeries, []byte("{not json")); err != nil {
		t.Fatal(err)
	}

	ps := NewPriceStore(kvs)
	if got := len(ps.Load()); got != 0 {
		t.Fatalf("expected empty series for corrupt blob, got %d records", got)
	}
}

func TestPriceStore_MergeIdempotent(t *testing.T) {
	ps := NewPriceStore(kv.NewMemoryStore())
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	batch := hourly(start, 6, 3.0)

	first := ps.Merge(batch)
	second := ps.Merge(batch)
	if len(first) != len(second) {
		t.Fatalf("merge not idempotent: %d vs %d", len(first), len(second))
	}
}

func TestPriceStore_PrunePersists(t *testing.T) {
	kvs := kv.NewMemoryStore()
	ps := NewPriceStore(kvs)

	yesterday := time.Date(2024, 1, 9, 20, 0, 0, 0, time.UTC)
	ps.Merge(hourly(yesterday, 30, 5)) // spans Jan 9 into Jan 11

	ref := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	pruned := ps.Prune(ref)
	for _, r := range pruned {
		if model.BeforeDate(r.StartTime, ref) {
			t.Errorf("stale record %s survived prune", r.StartTime)
		}
	}

	// The prune must be durable.
	reloaded := NewPriceStore(kvs)
	if len(reloaded.Load()) != len(pruned) {
		t.Errorf("prune not persisted: %d in memory, %d reloaded", len(pruned), len(reloaded.Load()))
	}
}

// failingStore reads fine but refuses writes.
type failingStore struct{ kv.Store }

func (f failingStore) Set(string, []byte) error { return errors.New("disk full") }

func TestPriceStore_WriteFailureKeepsMemoryAuthoritative(t *testing.T) {
	ps := NewPriceStore(failingStore{kv.NewMemoryStore()})
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	merged := ps.Merge(hourly(start, 3, 2))
	if len(merged) != 3 {
		t.Fatalf("expected in-memory merge to succeed despite write failure, got %d", len(merged))
	}
	if !ps.HasRecordsOn(start) {
		t.Error("expected in-memory state to remain authoritative")
	}
}

func TestPriceStore_Sorted(t *testing.T) {
	ps := NewPriceStore(kv.NewMemoryStore())
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	ps.Merge(hourly(start, 5, 1))

	sorted := ps.Sorted()
	if len(sorted) != 5 {
		t.Fatalf("expected 5 records, got %d", len(sorted))
	}
	for i := 1; i < len(sorted); i++ {
		if !sorted[i-1].StartTime.Before(sorted[i].StartTime) {
			t.Fatal("Sorted returned unordered records")
		}
	}
}
