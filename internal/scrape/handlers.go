package scrape

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dealradar/dealradar/internal/logger"
)

// Handler handles HTTP requests that trigger scraping.
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new scrape handler.
func NewHandler(service *Service, logger *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// TriggerScrape handles POST /api/scrape-deals requests. The location, lat,
// lng and category query parameters are accepted as hints from the client and
// logged; target sites are fixed server-side configuration.
func (h *Handler) TriggerScrape(c *gin.Context) {
	log := h.logger.WithContext(c.Request.Context()).WithComponent("scrape_handler")

	log.Info("scrape triggered",
		slog.String("location", c.Query("location")),
		slog.String("lat", c.Query("lat")),
		slog.String("lng", c.Query("lng")),
		slog.String("category", c.Query("category")))

	result, err := h.service.Scrape(c.Request.Context())
	if err != nil {
		log.Error("scrape failed", slog.String("error", err.Error()))

		switch {
		case errors.Is(err, ErrTimeout):
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Scraping timed out"})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": "Scraping failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Scraped and processed %d deals", result.Scraped),
		"stored":  result.Stored,
	})
}
