// Package guru is the client for the tenders.guru-style source API. It
// exposes exactly one operation: fetch page N of the tender listing.
package guru

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tender_source_pages_fetched_total",
		Help: "Total pages fetched from the tender source",
	})

	fetchErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tender_source_fetch_errors_total",
		Help: "Total failed page fetches from the tender source",
	})

	fetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tender_source_fetch_duration_seconds",
		Help:    "Page fetch duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	})
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.With().Str("component", "guru-client").Logger(),
	}
}

// FetchPage fetches one page of the tender listing. Pages are 1-based.
// Failures are not retried here, the caller decides what a failed fetch
// means.
func (c *Client) FetchPage(ctx context.Context, page int) (*TendersPage, error) {
	url := fmt.Sprintf("%s/tenders?page=%d", c.baseURL, page)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		fetchErrorsTotal.Inc()
		return nil, fmt.Errorf("fetching page %d: %w", page, err)
	}
	defer resp.Body.Close()
	fetchDuration.Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		fetchErrorsTotal.Inc()
		return nil, fmt.Errorf("fetching page %d: unexpected status %d", page, resp.StatusCode)
	}

	var result TendersPage
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		fetchErrorsTotal.Inc()
		return nil, fmt.Errorf("decoding page %d: %w", page, err)
	}

	pagesFetchedTotal.Inc()
	c.logger.Debug().
		Int("page", page).
		Int("tenders", len(result.Tenders)).
		Dur("duration", time.Since(start)).
		Msg("Fetched source page")

	return &result, nil
}
