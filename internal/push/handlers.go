package push

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dealradar/dealradar/internal/logger"
)

// Handler handles HTTP requests for the push subscription flow.
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new push handler.
func NewHandler(service *Service, logger *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// GetPublicKey handles GET /api/notifications/public-key requests. The key is
// returned as a bare JSON string: browser clients pass response.json()
// straight to pushManager.subscribe as the applicationServerKey.
func (h *Handler) GetPublicKey(c *gin.Context) {
	key := h.service.PublicKey()
	if key == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Push notifications are not configured"})
		return
	}

	c.JSON(http.StatusOK, key)
}

// Subscribe handles POST /api/notifications/subscribe requests. The body is
// the browser's PushSubscription JSON.
func (h *Handler) Subscribe(c *gin.Context) {
	log := h.logger.WithContext(c.Request.Context()).WithComponent("push_handler")

	var sub Subscription
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subscription payload"})
		return
	}

	if err := h.service.Subscribe(c.Request.Context(), sub); err != nil {
		log.Error("failed to store subscription", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store subscription"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Subscribed"})
}

// Unsubscribe handles DELETE /api/notifications/subscribe requests.
func (h *Handler) Unsubscribe(c *gin.Context) {
	var body struct {
		Endpoint string `json:"endpoint"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Endpoint == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing subscription endpoint"})
		return
	}

	if err := h.service.Unsubscribe(c.Request.Context(), body.Endpoint); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove subscription"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Unsubscribed"})
}

// Broadcast handles POST /api/notifications/broadcast requests, pushing a
// message to every subscribed browser.
func (h *Handler) Broadcast(c *gin.Context) {
	log := h.logger.WithContext(c.Request.Context()).WithComponent("push_handler")

	var msg Message
	if err := c.ShouldBindJSON(&msg); err != nil || msg.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Notification payload requires a title"})
		return
	}

	sent, err := h.service.Broadcast(c.Request.Context(), msg)
	if err != nil {
		log.Error("broadcast failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to broadcast notification"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"delivered": sent})
}
