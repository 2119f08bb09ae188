package store

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"spotwatch/internal/kv"
	"spotwatch/internal/model"
)

// KeyPriceSeries is the kv key holding the serialized price series.
const KeyPriceSeries = "priceSeries"

// PriceStore is the single source of truth for the locally cached price
// series. All reads and writes to the key-value collaborator go through it.
// Persistence failures are absorbed: the in-memory series stays authoritative
// for the session and the failure is only logged.
type PriceStore struct {
	mu     sync.Mutex
	kv     kv.Store
	series model.PriceSeries
}

// NewPriceStore creates a store and loads any persisted series. A missing or
// corrupt blob yields an empty series, never an error.
func NewPriceStore(store kv.Store) *PriceStore {
	s := &PriceStore{kv: store}
	s.series = s.load()
	return s
}

func (s *PriceStore) load() model.PriceSeries {
	data, err := s.kv.Get(KeyPriceSeries)
	if err != nil {
		if err != kv.ErrNotFound {
			log.Printf("[WARN] load price series: %v, starting empty", err)
		}
		return model.NewPriceSeries()
	}
	var records []model.PriceRecord
	if err := json.Unmarshal(data, &records); err != nil {
		log.Printf("[WARN] decode price series: %v, starting empty", err)
		return model.NewPriceSeries()
	}
	return model.NewPriceSeries(records...)
}

// Load returns a copy of the current series.
func (s *PriceStore) Load() model.PriceSeries {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.series.Clone()
}

// Series is an alias for Load, the raw unwindowed consumer view.
func (s *PriceStore) Series() model.PriceSeries { return s.Load() }

// Sorted returns all cached records ordered ascending by StartTime.
func (s *PriceStore) Sorted() []model.PriceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.series.Sorted()
}

// Prune removes every record dated strictly before ref's date, persists the
// result and returns a copy of it.
func (s *PriceStore) Prune(ref time.Time) model.PriceSeries {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.series)
	s.series.PruneBefore(ref)
	if len(s.series) != before {
		log.Printf("[INFO] pruned %d stale price records", before-len(s.series))
		s.persist()
	}
	return s.series.Clone()
}

// Merge applies incoming records over the cached series (last write wins),
// persists and returns a copy of the result. Merging the same batch twice
// yields the same series.
func (s *PriceStore) Merge(incoming model.PriceSeries) model.PriceSeries {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.series.Merge(incoming)
	s.persist()
	return s.series.Clone()
}

// HasRecordsOn reports whether any cached record falls on date's calendar day.
func (s *PriceStore) HasRecordsOn(date time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.series.HasDate(date)
}

func (s *PriceStore) persist() {
	data, err := json.Marshal(s.series.Sorted())
	if err != nil {
		log.Printf("[ERROR] encode price series: %v", err)
		return
	}
	if err := s.kv.Set(KeyPriceSeries, data); err != nil {
		log.Printf("[ERROR] persist price series: %v", err)
	}
}
