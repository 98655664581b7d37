package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kyatflow/internal/logger"
	"kyatflow/internal/services"
)

// InternalHandler serves machine-to-machine endpoints guarded by the
// internal API key.
type InternalHandler struct {
	subscriptionService services.SubscriptionServicer
}

// NewInternalHandler creates a new InternalHandler.
func NewInternalHandler(subscriptionService services.SubscriptionServicer) *InternalHandler {
	return &InternalHandler{subscriptionService: subscriptionService}
}

// ExpireResponse reports how many plans a sweep moved to expired.
type ExpireResponse struct {
	Expired int64 `json:"expired"`
}

// ExpireSubscriptions moves every overdue trial or pro plan to expired
// @Summary     Expire overdue subscriptions
// @Description Sweep for cron jobs. Requires the X-API-Key header.
// @Tags        internal
// @Produce     json
// @Param       X-API-Key header string true "Internal API key"
// @Success     200 {object} ExpireResponse "Number of expired plans"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     503 {object} ErrorResponse "Internal API not configured"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /internal/subscriptions/expire [post]
func (h *InternalHandler) ExpireSubscriptions(c *gin.Context) {
	count, err := h.subscriptionService.ExpireOverdue()
	if err != nil {
		respondWithError(c, err)
		return
	}

	logger.Get().Infow("expiry sweep requested", "expired", count, "client_ip", c.ClientIP())
	c.JSON(http.StatusOK, ExpireResponse{Expired: count})
}
