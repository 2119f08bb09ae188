package model

// Settings is the persisted user configuration: VAT display toggle, the three
// classification thresholds, an additive cost offset and the zoom level.
type Settings struct {
	VATIncluded bool
	Thresholds  [3]float64
	CostOffset  float64
	ZoomLevel   int
}

// DefaultSettings mirrors DefaultClassification with the default zoom.
func DefaultSettings() Settings {
	return Settings{
		VATIncluded: true,
		Thresholds:  [3]float64{7, 15, 22},
		ZoomLevel:   10,
	}
}

// Classification converts the settings into the engine configuration.
func (s Settings) Classification() ClassificationConfig {
	return ClassificationConfig{
		Low:         s.Thresholds[0],
		Mid:         s.Thresholds[1],
		High:        s.Thresholds[2],
		VATIncluded: s.VATIncluded,
		CostOffset:  s.CostOffset,
	}
}
