package store

import (
	"encoding/json"
	"log"
	"sync"

	"spotwatch/internal/kv"
	"spotwatch/internal/model"
)

// Keys for the persisted user settings.
const (
	KeyVATIncluded = "isVatOn"
	KeyThresholds  = "classificationThresholds"
	KeyCostOffset  = "costOffset"
	KeyZoomLevel   = "zoomLevel"
)

// SettingsStore persists the user display settings to the key-value
// collaborator, one key per scalar so partial updates stay cheap. Values are
// read once at startup; setters write through on change.
type SettingsStore struct {
	mu       sync.Mutex
	kv       kv.Store
	settings model.Settings
}

// NewSettingsStore loads settings from the store, falling back to defaults
// for any key that is missing or unreadable.
func NewSettingsStore(store kv.Store, defaults model.Settings) *SettingsStore {
	s := &SettingsStore{kv: store, settings: defaults}
	loadKey(store, KeyVATIncluded, &s.settings.VATIncluded)
	loadKey(store, KeyThresholds, &s.settings.Thresholds)
	loadKey(store, KeyCostOffset, &s.settings.CostOffset)
	loadKey(store, KeyZoomLevel, &s.settings.ZoomLevel)
	return s
}

func loadKey[T any](store kv.Store, key string, dst *T) {
	data, err := store.Get(key)
	if err != nil {
		if err != kv.ErrNotFound {
			log.Printf("[WARN] load setting %q: %v, keeping default", key, err)
		}
		return
	}
	if err := json.Unmarshal(data, dst); err != nil {
		log.Printf("[WARN] decode setting %q: %v, keeping default", key, err)
	}
}

// Current returns a copy of the settings.
func (s *SettingsStore) Current() model.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// SetVATIncluded toggles the VAT display and persists the choice.
func (s *SettingsStore) SetVATIncluded(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.VATIncluded = on
	s.saveKey(KeyVATIncluded, on)
}

// SetThresholds replaces the classification thresholds and persists them.
// Ordering is not validated: the engine tolerates any ordering.
func (s *SettingsStore) SetThresholds(thresholds [3]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Thresholds = thresholds
	s.saveKey(KeyThresholds, thresholds)
}

// SetCostOffset replaces the additive cost offset and persists it.
func (s *SettingsStore) SetCostOffset(offset float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.CostOffset = offset
	s.saveKey(KeyCostOffset, offset)
}

// SetZoomLevel replaces the zoom level and persists it.
func (s *SettingsStore) SetZoomLevel(zoom int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.ZoomLevel = zoom
	s.saveKey(KeyZoomLevel, zoom)
}

func (s *SettingsStore) saveKey(key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("[ERROR] encode setting %q: %v", key, err)
		return
	}
	if err := s.kv.Set(key, data); err != nil {
		log.Printf("[ERROR] persist setting %q: %v", key, err)
	}
}
