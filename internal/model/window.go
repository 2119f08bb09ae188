package model

import "time"

// Tier classifies an adjusted price against the configured thresholds.
type Tier string

const (
	TierLow     Tier = "low"
	TierMid     Tier = "mid"
	TierHigh    Tier = "high"
	TierExtreme Tier = "extreme"
)

// ClassificationConfig holds the user-configurable display adjustments.
// Thresholds are compared in the fixed order High, Mid, Low; no particular
// ordering between them is enforced.
type ClassificationConfig struct {
	Low         float64
	Mid         float64
	High        float64
	VATIncluded bool
	CostOffset  float64
}

// DefaultClassification returns the out-of-the-box display configuration.
func DefaultClassification() ClassificationConfig {
	return ClassificationConfig{Low: 7, Mid: 15, High: 22, VATIncluded: true}
}

// Bucket is one displayable unit of the chart window: an hourly record with
// its cost-adjusted price, tier and geometry-independent height ratio.
type Bucket struct {
	StartTime     time.Time `json:"startTime"`
	AdjustedPrice float64   `json:"adjustedPrice"`
	Tier          Tier      `json:"tier"`
	HeightRatio   float64   `json:"heightRatio"`
}

// ChartWindow is the derived view the renderer consumes. It is recomputed on
// every tick, zoom or config change and never persisted.
// SelectedIndex is -1 when no bucket is pinned.
type ChartWindow struct {
	Buckets       []Bucket `json:"buckets"`
	SelectedIndex int      `json:"selectedIndex"`
}
