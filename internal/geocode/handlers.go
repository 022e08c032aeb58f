package geocode

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dealradar/dealradar/internal/logger"
	"github.com/gin-gonic/gin"
)

// Handler exposes geocoding over HTTP for clients that cannot reach the
// upstream service directly.
type Handler struct {
	service *Service
	logger  *logger.Logger
}

func NewHandler(service *Service, logger *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger.WithComponent("geocode_handler"),
	}
}

// ResolveLocation handles GET /api/geocode?location=...
func (h *Handler) ResolveLocation(c *gin.Context) {
	location := strings.TrimSpace(c.Query("location"))
	if location == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "location query parameter is required"})
		return
	}

	coord, err := h.service.Resolve(c.Request.Context(), location)
	if err != nil {
		switch {
		case errors.Is(err, ErrLocationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Location not found. Please try a different search."})
		default:
			h.logger.Error("geocoding failed", "error", err, "location", location)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Unable to find that location. Please try again."})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"location":  location,
		"latitude":  coord.Lat,
		"longitude": coord.Lng,
	})
}
