package model

import (
	"sort"
	"time"
)

// PriceRecord is a single hourly spot price. StartTime is hour-aligned.
// Price is in cents per kWh and may be negative.
type PriceRecord struct {
	StartTime time.Time `json:"startTime"`
	Price     float64   `json:"price"`
}

// PriceSeries maps an hour start (unix seconds) to its record.
// Keys are unique: two records never share a StartTime.
type PriceSeries map[int64]PriceRecord

// NewPriceSeries builds a series from a list of records. Later records
// overwrite earlier ones on a StartTime collision.
func NewPriceSeries(records ...PriceRecord) PriceSeries {
	s := make(PriceSeries, len(records))
	for _, r := range records {
		s.Add(r)
	}
	return s
}

// Add inserts a record, overwriting any record with the same StartTime.
func (s PriceSeries) Add(r PriceRecord) {
	s[r.StartTime.Unix()] = r
}

// Merge applies incoming records over the series, last write wins.
// Merging the same batch twice yields the same result.
func (s PriceSeries) Merge(incoming PriceSeries) {
	for k, r := range incoming {
		s[k] = r
	}
}

// Sorted returns all records ordered ascending by StartTime.
func (s PriceSeries) Sorted() []PriceRecord {
	records := make([]PriceRecord, 0, len(s))
	for _, r := range s {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].StartTime.Before(records[j].StartTime) })
	return records
}

// Clone returns an independent copy of the series.
func (s PriceSeries) Clone() PriceSeries {
	out := make(PriceSeries, len(s))
	for k, r := range s {
		out[k] = r
	}
	return out
}

// HasDate reports whether any record falls on the same calendar day as date,
// evaluated in date's location.
func (s PriceSeries) HasDate(date time.Time) bool {
	for _, r := range s {
		if SameDate(r.StartTime, date) {
			return true
		}
	}
	return false
}

// PruneBefore removes every record whose date component is strictly before
// ref's date, evaluated in ref's location.
func (s PriceSeries) PruneBefore(ref time.Time) {
	for k, r := range s {
		if BeforeDate(r.StartTime, ref) {
			delete(s, k)
		}
	}
}

// SameDate reports whether a and b fall on the same calendar day in b's location.
func SameDate(a, b time.Time) bool {
	y1, m1, d1 := a.In(b.Location()).Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// BeforeDate reports whether a's date is strictly before ref's date in ref's location.
func BeforeDate(a, ref time.Time) bool {
	loc := ref.Location()
	al := a.In(loc)
	dayA := time.Date(al.Year(), al.Month(), al.Day(), 0, 0, 0, 0, loc)
	dayR := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, loc)
	return dayA.Before(dayR)
}
