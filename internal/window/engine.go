package window

import (
	"errors"
	"time"

	"spotwatch/internal/model"
)

// ErrNoData is returned when no record falls inside the window. Consumers
// must branch on it and show a loading/empty state.
var ErrNoData = errors.New("no price data available")

// vatDivisor converts a VAT-inclusive price (25.5%) to the VAT-free price.
const vatDivisor = 1.255

// Zoom bounds for the number of visible buckets.
const (
	MinZoom     = 5
	MaxZoom     = 20
	DefaultZoom = 10
)

// ClampZoom bounds a user-chosen zoom level to the supported range.
func ClampZoom(zoom int) int {
	if zoom < MinZoom {
		return MinZoom
	}
	if zoom > MaxZoom {
		return MaxZoom
	}
	return zoom
}

// AdjustPrice applies the additive cost offset and the VAT toggle to a raw
// price. A negative offset-adjusted price is returned as-is: negative prices
// are never de-VATed.
func AdjustPrice(raw float64, cfg model.ClassificationConfig) float64 {
	adjusted := raw + cfg.CostOffset
	if adjusted < 0 {
		return adjusted
	}
	if cfg.VATIncluded {
		return adjusted
	}
	return adjusted / vatDivisor
}

// Classify maps an adjusted price to its tier. Comparisons run in the fixed
// order high, mid, low; threshold ordering is not validated.
func Classify(price float64, cfg model.ClassificationConfig) model.Tier {
	switch {
	case price > cfg.High:
		return model.TierExtreme
	case price > cfg.Mid:
		return model.TierHigh
	case price > cfg.Low:
		return model.TierMid
	default:
		return model.TierLow
	}
}

// filter selects every record from the currently-active hour forward, sorted
// ascending. The active hour is included even though its start instant is in
// the past.
func filter(series model.PriceSeries, now time.Time) []model.PriceRecord {
	cut := now.Truncate(time.Hour)
	var out []model.PriceRecord
	for _, r := range series.Sorted() {
		local := r.StartTime.In(now.Location())
		if !r.StartTime.Before(cut) || (model.SameDate(r.StartTime, now) && local.Hour() == now.Hour()) {
			out = append(out, r)
		}
	}
	return out
}

// heightRatio keeps bars proportionate without knowing the chart geometry.
// Negative prices use an inverted magnitude so their bars stay small.
func heightRatio(price, highest float64) float64 {
	if highest == 0 {
		return 0
	}
	if price < 0 {
		return highest / price
	}
	return price / highest
}

// Compute derives the chart window from the full series: temporal filter,
// cost adjustment, zoom-resolved bucket count, classification and height
// ratios. selected pins a bucket by its StartTime; a zero value (or a time no
// longer in the window) yields SelectedIndex -1, meaning the nearest-to-now
// bucket is shown.
func Compute(series model.PriceSeries, now time.Time, zoom int, cfg model.ClassificationConfig, selected time.Time) (model.ChartWindow, error) {
	records := filter(series, now)
	if len(records) == 0 {
		return model.ChartWindow{}, ErrNoData
	}

	count := ClampZoom(zoom)
	if count > len(records) {
		count = len(records)
	}
	records = records[:count]

	win := model.ChartWindow{Buckets: buildBuckets(records, cfg), SelectedIndex: -1}
	if !selected.IsZero() {
		for i, b := range win.Buckets {
			if b.StartTime.Equal(selected) {
				win.SelectedIndex = i
				break
			}
		}
	}
	return win, nil
}

// buildBuckets adjusts, classifies and sizes the given records. Ratios are
// relative to the highest adjusted price among them.
func buildBuckets(records []model.PriceRecord, cfg model.ClassificationConfig) []model.Bucket {
	buckets := make([]model.Bucket, len(records))
	highest := AdjustPrice(records[0].Price, cfg)
	for i, r := range records {
		adjusted := AdjustPrice(r.Price, cfg)
		if adjusted > highest {
			highest = adjusted
		}
		buckets[i] = model.Bucket{
			StartTime:     r.StartTime,
			AdjustedPrice: adjusted,
			Tier:          Classify(adjusted, cfg),
		}
	}
	for i := range buckets {
		buckets[i].HeightRatio = heightRatio(buckets[i].AdjustedPrice, highest)
	}
	return buckets
}

// NextHours returns the first n upcoming adjusted prices independent of zoom,
// for readouts like the home screen's current-plus-next-two display. Fewer
// than n buckets are returned when the series runs out; nil when empty.
func NextHours(series model.PriceSeries, now time.Time, n int, cfg model.ClassificationConfig) []model.Bucket {
	records := filter(series, now)
	if len(records) == 0 {
		return nil
	}
	if len(records) > n {
		records = records[:n]
	}
	return buildBuckets(records, cfg)
}
