package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dealradar/dealradar/internal/logger"
	"github.com/dealradar/dealradar/pkg/deal"
)

var (
	// ErrLocationNotFound means the geocoding service returned zero matches.
	ErrLocationNotFound = errors.New("location not found")
	// ErrUnavailable means the geocoding service could not be reached or
	// answered with an error.
	ErrUnavailable = errors.New("geocoding service unavailable")
)

// Service resolves free-text place names to coordinates against a
// Nominatim-compatible endpoint. Lookups are single attempts: no retry, no
// cache; the caller surfaces failures to the user.
type Service struct {
	httpClient *http.Client
	logger     *logger.Logger
	baseURL    string
	userAgent  string
}

// NewService creates a new geocoding service.
func NewService(baseURL, userAgent string, logger *logger.Logger) *Service {
	return &Service{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:    logger,
		baseURL:   baseURL,
		userAgent: userAgent,
	}
}

// nominatimResult is the raw shape of one geocoding match. Nominatim encodes
// coordinates as strings.
type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Resolve turns a location name into a coordinate, requesting at most one
// match from the service.
func (s *Service) Resolve(ctx context.Context, locationName string) (deal.Coordinate, error) {
	log := s.logger.WithContext(ctx).WithComponent("geocode")

	params := url.Values{}
	params.Set("q", locationName)
	params.Set("format", "json")
	params.Set("limit", "1")

	httpReq, err := http.NewRequestWithContext(ctx, "GET", s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return deal.Coordinate{}, fmt.Errorf("%w: failed to create request: %v", ErrUnavailable, err)
	}

	// Nominatim's usage policy requires an identifying User-Agent.
	httpReq.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		log.Warn("geocoding request failed", slog.String("error", err.Error()))
		return deal.Coordinate{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return deal.Coordinate{}, fmt.Errorf("%w: failed to read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Warn("geocoding service error",
			slog.Int("status", resp.StatusCode),
			slog.String("location", locationName))
		return deal.Coordinate{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.Unmarshal(body, &results); err != nil {
		return deal.Coordinate{}, fmt.Errorf("%w: failed to parse response: %v", ErrUnavailable, err)
	}

	if len(results) == 0 {
		return deal.Coordinate{}, ErrLocationNotFound
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return deal.Coordinate{}, fmt.Errorf("%w: invalid latitude %q", ErrUnavailable, results[0].Lat)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return deal.Coordinate{}, fmt.Errorf("%w: invalid longitude %q", ErrUnavailable, results[0].Lon)
	}

	log.Debug("location resolved",
		slog.String("location", locationName),
		slog.Float64("lat", lat),
		slog.Float64("lng", lng))

	return deal.Coordinate{Lat: lat, Lng: lng}, nil
}
