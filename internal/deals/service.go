package deals

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/dealradar/dealradar/internal/logger"
	"github.com/dealradar/dealradar/pkg/arearules"
	"github.com/dealradar/dealradar/pkg/deal"
)

// earthRadiusMiles is the mean radius of Earth in miles.
const earthRadiusMiles = 3956

// Query describes one deals lookup.
type Query struct {
	Criteria     deal.FilterCriteria
	Coordinate   *deal.Coordinate // nil when the caller gave no location
	LocationName string           // free-text hint for area relevance filtering
}

// Service answers deal queries: discount/category constraints hit the store,
// coordinate+radius narrowing and area relevance filtering happen here.
type Service struct {
	store  *Store
	rules  *arearules.Table
	logger *logger.Logger
}

// NewService creates a new deals service.
func NewService(store *Store, rules *arearules.Table, logger *logger.Logger) *Service {
	return &Service{
		store:  store,
		rules:  rules,
		logger: logger,
	}
}

// FindDeals returns deals matching the query, de-duplicated by ID, sorted by
// distance when a coordinate is given, and narrowed to the named area when a
// location name is given.
func (s *Service) FindDeals(ctx context.Context, q Query) ([]deal.Deal, error) {
	log := s.logger.WithContext(ctx).WithComponent("deals-service")

	if err := q.Criteria.ValidateBounds(); err != nil {
		return nil, fmt.Errorf("invalid filter criteria: %w", err)
	}

	found, err := s.store.List(ctx, q.Criteria.MinDiscount, q.Criteria.Category)
	if err != nil {
		return nil, err
	}

	found = deal.Dedupe(found)

	if q.Coordinate != nil {
		found = withinRadius(found, *q.Coordinate, q.Criteria.RadiusMiles)
	}

	if q.LocationName != "" {
		before := len(found)
		found = s.rules.Filter(q.LocationName, found)
		if len(found) != before {
			log.Debug("area relevance filter applied",
				slog.String("location", q.LocationName),
				slog.Int("before", before),
				slog.Int("after", len(found)))
		}
	}

	log.Info("deals query answered",
		slog.Int("count", len(found)),
		slog.Float64("min_discount", q.Criteria.MinDiscount),
		slog.String("category", string(q.Criteria.Category)))

	if found == nil {
		found = []deal.Deal{}
	}
	return found, nil
}

// withinRadius keeps deals inside the radius, annotates each with its distance
// from the query point, and sorts by distance ascending.
func withinRadius(deals []deal.Deal, from deal.Coordinate, radiusMiles float64) []deal.Deal {
	var kept []deal.Deal

	for _, d := range deals {
		distance := haversineMiles(from, deal.Coordinate{Lat: d.Location.Lat, Lng: d.Location.Lng})
		if distance <= radiusMiles {
			rounded := math.Round(distance*100) / 100
			d.Distance = &rounded
			kept = append(kept, d)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return *kept[i].Distance < *kept[j].Distance
	})

	return kept
}

// haversineMiles computes the great-circle distance between two coordinates.
func haversineMiles(a, b deal.Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMiles * c
}
