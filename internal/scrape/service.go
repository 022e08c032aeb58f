package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dealradar/dealradar/internal/deals"
	"github.com/dealradar/dealradar/internal/logger"
	"github.com/dealradar/dealradar/internal/metrics"
	"github.com/dealradar/dealradar/pkg/deal"
)

var (
	// ErrTimeout means the scrape did not finish within the configured window.
	ErrTimeout = errors.New("scrape timed out")
	// ErrFailed means the scrape produced nothing due to upstream errors.
	ErrFailed = errors.New("scrape failed")
)

// defaultMinDiscount drops scraped offers that are barely discounts at all.
const defaultMinDiscount = 15

// Service scrapes deal listings from target sites through the Firecrawl API
// and stores the results.
type Service struct {
	httpClient  *http.Client
	logger      *logger.Logger
	store       *deals.Store
	apiKey      string
	baseURL     string
	targets     []string
	minDiscount float64
}

// NewService creates a new scrape service. timeout bounds each Firecrawl
// request; minDiscount below zero falls back to the default cutoff.
func NewService(store *deals.Store, logger *logger.Logger, apiKey, baseURL string, targets []string, timeout time.Duration, minDiscount float64) *Service {
	if minDiscount <= 0 {
		minDiscount = defaultMinDiscount
	}

	return &Service{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:      logger,
		store:       store,
		apiKey:      apiKey,
		baseURL:     baseURL,
		targets:     targets,
		minDiscount: minDiscount,
	}
}

// firecrawlRequest is the scrape payload sent to Firecrawl. Selectors would be
// customized per target site in a production deployment.
type firecrawlRequest struct {
	URL       string              `json:"url"`
	Selectors []firecrawlSelector `json:"selectors"`
}

type firecrawlSelector struct {
	Name       string            `json:"name"`
	Selector   string            `json:"selector"`
	Type       string            `json:"type"`
	Properties map[string]string `json:"properties"`
}

// firecrawlResponse is the raw Firecrawl answer: one scraped record per
// matched deal element, every property a string.
type firecrawlResponse struct {
	Deals []scrapedDeal `json:"deals"`
	Error string        `json:"error,omitempty"`
}

type scrapedDeal struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Discount      string `json:"discount"`
	OriginalPrice string `json:"original_price"`
	SalePrice     string `json:"sale_price"`
	BusinessName  string `json:"business_name"`
	Location      string `json:"location"`
	Expiration    string `json:"expiration"`
}

// Result summarizes one scrape run.
type Result struct {
	Scraped int `json:"scraped"`
	Stored  int `json:"stored"`
}

// Scrape pulls deals from every target site and stores the usable ones.
// A run that stores nothing reports ErrTimeout if any site timed out,
// ErrFailed if every site errored, and success otherwise (the sites may
// genuinely have no qualifying deals).
func (s *Service) Scrape(ctx context.Context) (Result, error) {
	log := s.logger.WithContext(ctx).WithComponent("scrape")

	var (
		result   Result
		timedOut bool
		failures int
	)

	for _, site := range s.targets {
		scraped, err := s.scrapeSite(ctx, site)
		if err != nil {
			if isTimeout(err) {
				timedOut = true
			}
			failures++
			log.Error("site scrape failed",
				slog.String("site", site),
				slog.String("error", err.Error()))
			continue
		}

		result.Scraped += len(scraped)

		for _, raw := range scraped {
			d, ok := s.convert(raw, site)
			if !ok {
				continue
			}
			if _, err := s.store.Insert(ctx, d); err != nil {
				log.Error("failed to store scraped deal",
					slog.String("business", d.BusinessName),
					slog.String("error", err.Error()))
				continue
			}
			result.Stored++
		}
	}

	if result.Stored == 0 {
		if timedOut {
			metrics.ObserveScrape("timeout", 0)
			return result, ErrTimeout
		}
		if failures == len(s.targets) && failures > 0 {
			metrics.ObserveScrape("failed", 0)
			return result, ErrFailed
		}
	}

	metrics.ObserveScrape("success", result.Stored)

	log.Info("scrape run finished",
		slog.Int("scraped", result.Scraped),
		slog.Int("stored", result.Stored),
		slog.Int("failed_sites", failures))

	return result, nil
}

// scrapeSite asks Firecrawl for the deal listings of one site.
func (s *Service) scrapeSite(ctx context.Context, site string) ([]scrapedDeal, error) {
	payload, err := json.Marshal(firecrawlRequest{
		URL: site,
		Selectors: []firecrawlSelector{
			{
				Name:     "deals",
				Selector: ".deal-item",
				Type:     "list",
				Properties: map[string]string{
					"title":          ".deal-title",
					"description":    ".deal-description",
					"discount":       ".discount-percentage",
					"original_price": ".original-price",
					"sale_price":     ".sale-price",
					"business_name":  ".business-name",
					"location":       ".location-data",
					"expiration":     ".expiration-date",
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build scrape payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", s.baseURL, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("firecrawl returned status %d: %s", resp.StatusCode, string(body))
	}

	var scraped firecrawlResponse
	if err := json.Unmarshal(body, &scraped); err != nil {
		return nil, fmt.Errorf("failed to parse firecrawl response: %w", err)
	}

	if scraped.Error != "" {
		return nil, fmt.Errorf("firecrawl error: %s", scraped.Error)
	}

	return scraped.Deals, nil
}

// convert turns a raw scraped record into a Deal, dropping records below the
// discount cutoff or without a parsable discount.
func (s *Service) convert(raw scrapedDeal, site string) (deal.Deal, bool) {
	discount, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(raw.Discount), "%"), 64)
	if err != nil || discount < s.minDiscount {
		return deal.Deal{}, false
	}

	category := deal.CategoryOther
	switch {
	case strings.Contains(site, "retail"):
		category = deal.CategoryRetail
	case strings.Contains(site, "restaurant"):
		category = deal.CategoryRestaurant
	}

	d := deal.Deal{
		Title:              raw.Title,
		Description:        raw.Description,
		DiscountPercentage: discount,
		BusinessName:       raw.BusinessName,
		Category:           category,
		// Scraped listings carry address text only. TODO: geocode scraped
		// addresses once the geocoder's rate limit allows batch lookups.
		Location: deal.Location{Address: raw.Location},
		URL:      site,
	}

	if v, err := parsePrice(raw.OriginalPrice); err == nil {
		d.OriginalPrice = &v
	}
	if v, err := parsePrice(raw.SalePrice); err == nil {
		d.SalePrice = &v
	}
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(raw.Expiration)); err == nil {
		d.ExpirationDate = &t
	}

	return d, true
}

func parsePrice(v string) (float64, error) {
	v = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(v), "$"))
	if v == "" {
		return 0, errors.New("empty price")
	}
	return strconv.ParseFloat(v, 64)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
