package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"spotwatch/internal/model"
)

// HTTPFetcher implements Fetcher against the upstream spot price API.
type HTTPFetcher struct {
	Endpoint string
	Client   *http.Client
}

// NewHTTPFetcher creates a fetcher with optional proxy support.
func NewHTTPFetcher(endpoint, proxyURL string, timeout time.Duration) *HTTPFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &HTTPFetcher{
		Endpoint: endpoint,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (f *HTTPFetcher) Name() string { return "http" }

// priceDocument is the expected JSON shape of the upstream response. Fields
// beyond startDate and price are ignored.
type priceDocument struct {
	Prices []struct {
		StartDate string  `json:"startDate"`
		Price     float64 `json:"price"`
	} `json:"prices"`
}

// FetchPrices downloads and decodes the latest published prices. Any
// non-success status or malformed body is an error; nothing is partially
// returned.
func (f *HTTPFetcher) FetchPrices(ctx context.Context) (model.PriceSeries, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.Endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch prices: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch prices: status %d, body: %s", resp.StatusCode, string(body))
	}

	var doc priceDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode prices: %w", err)
	}

	series := model.NewPriceSeries()
	for _, p := range doc.Prices {
		start, err := time.Parse(time.RFC3339, p.StartDate)
		if err != nil {
			return nil, fmt.Errorf("parse startDate %q: %w", p.StartDate, err)
		}
		series.Add(model.PriceRecord{StartTime: start.Truncate(time.Hour), Price: p.Price})
	}
	return series, nil
}
