package fetch

import (
	"context"

	"spotwatch/internal/model"
)

// Fetcher retrieves the latest day-ahead prices from the upstream source.
type Fetcher interface {
	FetchPrices(ctx context.Context) (model.PriceSeries, error)
	Name() string
}

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Series model.PriceSeries
	Err    error
	Calls  int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchPrices(_ context.Context) (model.PriceSeries, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Series.Clone(), nil
}
