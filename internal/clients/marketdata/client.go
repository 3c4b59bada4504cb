// Package marketdata implements domain.PriceSource against an external
// daily-close price service, with a sqlite-backed cache in front of it.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/aristath/dividend-tracker/internal/domain"
	"github.com/rs/zerolog"
)

// Client fetches daily closing prices over HTTP.
type Client struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	cache    *CacheRepository
	cacheTTL time.Duration
	log      zerolog.Logger
}

// Config holds client configuration.
type Config struct {
	BaseURL  string
	APIKey   string
	Cache    *CacheRepository // optional - nil disables caching
	CacheTTL time.Duration    // freshness window for same-day lookups
}

// NewClient creates a new market data client
func NewClient(cfg Config, log zerolog.Logger) *Client {
	return &Client{
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: 15 * time.Second},
		cache:    cfg.Cache,
		cacheTTL: cfg.CacheTTL,
		log:      log.With().Str("client", "marketdata").Logger(),
	}
}

// priceResponse is the service's answer for a single (symbol, date) pair.
type priceResponse struct {
	Symbol string  `json:"symbol"`
	Date   string  `json:"date"`
	Close  float64 `json:"close"`
}

// Price implements domain.PriceSource. A 404 from the service means no
// price exists for that day (ok=false, no error); transport failures
// are returned as *domain.TransportError so callers can retry.
func (c *Client) Price(ctx context.Context, symbol string, day time.Time) (float64, bool, error) {
	day = domain.Day(day)

	if price, hit := c.fromCache(symbol, day); hit {
		return price, true, nil
	}

	reqURL := fmt.Sprintf("%s/prices/daily?%s", c.baseURL, url.Values{
		"symbol": {symbol},
		"date":   {domain.FormatDay(day)},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, false, &domain.TransportError{Symbol: symbol, Op: "build request", Err: err}
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, false, &domain.TransportError{Symbol: symbol, Op: "fetch", Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Fall through to decode.
	case http.StatusNotFound:
		// Confirmed "no price exists for this day". Not cached, so the
		// date is retried on the next pass if the service backfills.
		c.log.Debug().
			Str("symbol", symbol).
			Str("date", domain.FormatDay(day)).
			Msg("No price for date")
		return 0, false, nil
	default:
		return 0, false, &domain.TransportError{
			Symbol: symbol,
			Op:     "fetch",
			Err:    fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	var pr priceResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return 0, false, &domain.TransportError{Symbol: symbol, Op: "decode", Err: err}
	}

	if c.cache != nil {
		if err := c.cache.Put(symbol, day, pr.Close, time.Now()); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache price")
		}
	}

	c.log.Debug().
		Str("symbol", symbol).
		Str("date", domain.FormatDay(day)).
		Float64("close", pr.Close).
		Msg("Fetched price")

	return pr.Close, true, nil
}

// fromCache returns a cached close when it can still be trusted. A
// close fetched after the priced day ended is final; a same-day close
// is trusted only within the TTL window.
func (c *Client) fromCache(symbol string, day time.Time) (float64, bool) {
	if c.cache == nil {
		return 0, false
	}

	price, fetchedAt, found, err := c.cache.Get(symbol, day)
	if err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("Price cache read failed")
		return 0, false
	}
	if !found {
		return 0, false
	}

	if domain.Day(fetchedAt).After(day) {
		return price, true
	}
	if time.Since(fetchedAt) < c.cacheTTL {
		return price, true
	}
	return 0, false
}
