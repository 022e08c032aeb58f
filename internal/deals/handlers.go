package deals

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dealradar/dealradar/internal/logger"
	"github.com/dealradar/dealradar/pkg/deal"
)

var errHalfCoordinate = errors.New("parameters 'lat' and 'lng' must be given together as numbers")

// Handler handles HTTP requests for deal queries.
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new deals handler.
func NewHandler(service *Service, logger *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// GetDeals handles GET /api/deals requests.
// Query parameters:
//   - min_discount (optional): minimum discount percentage, default 15
//   - category (optional): "retail" or "restaurant"
//   - lat, lng (optional, paired): query coordinates
//   - radius (optional): search radius in miles, default 5
//   - location (optional): free-text place name for area relevance filtering
//
// min_discount and radius accept any sane numeric value; the enumerated
// option sets are a client-side concern.
func (h *Handler) GetDeals(c *gin.Context) {
	log := h.logger.WithContext(c.Request.Context()).WithComponent("deals_handler")

	criteria := deal.DefaultCriteria()

	if v := c.Query("min_discount"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'min_discount' parameter"})
			return
		}
		criteria.MinDiscount = parsed
	}

	if v := c.Query("radius"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'radius' parameter"})
			return
		}
		criteria.RadiusMiles = parsed
	}

	if v := c.Query("category"); v != "" {
		criteria.Category = deal.Category(v)
	}

	if err := criteria.ValidateBounds(); err != nil {
		log.Warn("rejected deals query", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	coordinate, err := parseCoordinate(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	query := Query{
		Criteria:     criteria,
		Coordinate:   coordinate,
		LocationName: strings.TrimSpace(c.Query("location")),
	}

	found, err := h.service.FindDeals(c.Request.Context(), query)
	if err != nil {
		log.Error("deals query failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch deals"})
		return
	}

	c.JSON(http.StatusOK, found)
}

// CreateSampleDeals handles POST /api/sample-deals requests.
func (h *Handler) CreateSampleDeals(c *gin.Context) {
	log := h.logger.WithContext(c.Request.Context()).WithComponent("deals_handler")

	count, err := h.service.SeedSampleDeals(c.Request.Context())
	if err != nil {
		log.Error("failed to seed sample deals", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate sample deals"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Generated " + strconv.Itoa(count) + " sample deals"})
}

// parseCoordinate reads the lat/lng pair. Both must be present or both absent,
// a half-resolved coordinate is rejected.
func parseCoordinate(c *gin.Context) (*deal.Coordinate, error) {
	latStr := c.Query("lat")
	lngStr := c.Query("lng")

	if latStr == "" && lngStr == "" {
		return nil, nil
	}
	if latStr == "" || lngStr == "" {
		return nil, errHalfCoordinate
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, errHalfCoordinate
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return nil, errHalfCoordinate
	}

	return &deal.Coordinate{Lat: lat, Lng: lng}, nil
}
