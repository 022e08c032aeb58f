// Package finder is the client side of the deals service: it resolves a
// free-text place name, triggers a scrape for the area, fetches and filters
// deal records, and manages the push-notification subscription handshake.
package finder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dealradar/dealradar/internal/geocode"
	"github.com/dealradar/dealradar/pkg/arearules"
	"github.com/dealradar/dealradar/pkg/deal"
)

var (
	// ErrFetchFailed means the deals endpoint answered with a non-success
	// status or an unreadable body.
	ErrFetchFailed = errors.New("failed to fetch deals")
	// ErrScrapeTimeout means the scrape trigger exceeded the client timeout.
	ErrScrapeTimeout = errors.New("scrape timed out")
	// ErrScrapeFailed means the scrape trigger answered with a non-success status.
	ErrScrapeFailed = errors.New("scrape failed")

	// Geocoding sentinels, re-exported so consumers can match Search errors
	// with errors.Is against this package alone.
	ErrLocationNotFound     = geocode.ErrLocationNotFound
	ErrGeocodingUnavailable = geocode.ErrUnavailable
)

// scrapeTimeout bounds one scrape-trigger call. On expiry the operation is
// reported failed; there is no automatic retry.
const scrapeTimeout = 30 * time.Second

// Geocoder resolves a free-text place name to a coordinate.
type Geocoder interface {
	Resolve(ctx context.Context, locationName string) (deal.Coordinate, error)
}

// Client talks to the deals backend. The base URL is fixed for the client's
// lifetime; all calls are single attempts.
type Client struct {
	baseURL    string
	httpClient *http.Client
	geocoder   Geocoder
	rules      *arearules.Table
}

// NewClient creates a deals client. rules may be nil to use the built-in
// area table.
func NewClient(baseURL string, geocoder Geocoder, rules *arearules.Table) *Client {
	if rules == nil {
		rules = arearules.Default()
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: scrapeTimeout,
		},
		geocoder: geocoder,
		rules:    rules,
	}
}

// FetchDeals queries the deals endpoint, de-duplicates the result by ID, and,
// when a location name is given, narrows it with the area relevance rules.
// coordinate may be nil when the location was not resolved.
func (c *Client) FetchDeals(ctx context.Context, criteria deal.FilterCriteria, coordinate *deal.Coordinate, locationName string) ([]deal.Deal, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("min_discount", strconv.FormatFloat(criteria.MinDiscount, 'f', -1, 64))

	if criteria.Category != deal.CategoryAll {
		params.Set("category", string(criteria.Category))
	}

	if coordinate != nil {
		params.Set("lat", strconv.FormatFloat(coordinate.Lat, 'f', -1, 64))
		params.Set("lng", strconv.FormatFloat(coordinate.Lng, 'f', -1, 64))
		params.Set("radius", strconv.FormatFloat(criteria.RadiusMiles, 'f', -1, 64))
	}

	if locationName != "" {
		params.Set("location", locationName)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/deals?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	var found []deal.Deal
	if err := json.Unmarshal(body, &found); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	found = deal.Dedupe(found)

	if locationName != "" {
		found = c.rules.Filter(locationName, found)
	}

	return found, nil
}

// TriggerScrape asks the backend to scrape fresh deals for the area. Success
// is inferred from the HTTP status alone.
func (c *Client) TriggerScrape(ctx context.Context, locationName string, coordinate deal.Coordinate, category deal.Category) error {
	ctx, cancel := context.WithTimeout(ctx, scrapeTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("location", locationName)
	params.Set("lat", strconv.FormatFloat(coordinate.Lat, 'f', -1, 64))
	params.Set("lng", strconv.FormatFloat(coordinate.Lng, 'f', -1, 64))
	params.Set("category", string(category))

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/scrape-deals?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrScrapeFailed, err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return ErrScrapeTimeout
		}
		return fmt.Errorf("%w: %v", ErrScrapeFailed, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusGatewayTimeout {
		return ErrScrapeTimeout
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrScrapeFailed, resp.StatusCode)
	}

	return nil
}

// Search runs the full pipeline for a place name: geocode, trigger a scrape
// for the area, then fetch and filter deals. A geocoding failure aborts the
// chain before any scrape or fetch call is issued.
func (c *Client) Search(ctx context.Context, locationName string, criteria deal.FilterCriteria) ([]deal.Deal, error) {
	coordinate, err := c.geocoder.Resolve(ctx, locationName)
	if err != nil {
		return nil, err
	}

	if err := c.TriggerScrape(ctx, locationName, coordinate, criteria.Category); err != nil {
		return nil, err
	}

	return c.FetchDeals(ctx, criteria, &coordinate, locationName)
}

// RegisterSubscription stores a push subscription with the backend.
func (c *Client) RegisterSubscription(ctx context.Context, sub *Subscription) error {
	payload, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to encode subscription: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/notifications/subscribe", bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to register subscription: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to register subscription: status %d", resp.StatusCode)
	}

	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
