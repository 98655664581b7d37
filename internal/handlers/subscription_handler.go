package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kyatflow/internal/models"
	"kyatflow/internal/services"
)

const resourceSubscription = "subscription"

// SubscriptionHandler handles plan changes requested by the user.
type SubscriptionHandler struct {
	subscriptionService services.SubscriptionServicer
	auditService        services.AuditServicer
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subscriptionService services.SubscriptionServicer, auditService services.AuditServicer) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService, auditService: auditService}
}

// SubscriptionResponse is the user's current plan.
type SubscriptionResponse struct {
	SubscriptionStatus  models.SubscriptionStatus `json:"subscriptionStatus"`
	SubscriptionEndDate *time.Time                `json:"subscriptionEndDate"`
	TrialStartDate      *time.Time                `json:"trialStartDate,omitempty"`
	Active              bool                      `json:"active"`
}

// VerifyCodeRequest carries a redemption code.
type VerifyCodeRequest struct {
	Code string `json:"code" binding:"required,redemption_code"`
}

// PaymentNotifyRequest tells the administrator how the user paid.
type PaymentNotifyRequest struct {
	PaymentMethod string `json:"paymentMethod" binding:"required,max=50"`
}

func toSubscriptionResponse(u *models.User) SubscriptionResponse {
	return SubscriptionResponse{
		SubscriptionStatus:  u.SubscriptionStatus,
		SubscriptionEndDate: u.SubscriptionEndDate,
		TrialStartDate:      u.TrialStartDate,
		Active:              u.HasActiveSubscription(time.Now()),
	}
}

// GetSubscription returns the authenticated user's plan
// @Summary     Get subscription
// @Description Get the current plan. Overdue trial and pro plans are reported as expired.
// @Tags        subscription
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} SubscriptionResponse "Current plan"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/subscription [get]
func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.subscriptionService.GetSubscription(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSubscriptionResponse(user))
}

// StartTrial starts the one-time trial
// @Summary     Start trial
// @Description Move a free user onto a trial. Only allowed from the free plan.
// @Tags        subscription
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} SubscriptionResponse "Trial started"
// @Failure     400 {object} ErrorResponse "Trial not available"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/start-trial [post]
func (h *SubscriptionHandler) StartTrial(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.subscriptionService.StartTrial(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditStartTrial, resourceSubscription, userID, c.ClientIP(),
		map[string]interface{}{"ends_at": user.SubscriptionEndDate})

	c.JSON(http.StatusOK, toSubscriptionResponse(user))
}

// VerifyCode redeems a single-use code for a pro plan
// @Summary     Redeem code
// @Description Consume a redemption code and upgrade to pro
// @Tags        subscription
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body VerifyCodeRequest true "Redemption code"
// @Success     200 {object} SubscriptionResponse "Upgraded to pro"
// @Failure     400 {object} ErrorResponse "Invalid or used code"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     429 {object} ErrorResponse "Rate limited"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/verify-code [post]
func (h *SubscriptionHandler) VerifyCode(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	user, err := h.subscriptionService.RedeemCode(userID, req.Code)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditRedeemCode, resourceSubscription, userID, c.ClientIP(),
		map[string]interface{}{"ends_at": user.SubscriptionEndDate})

	c.JSON(http.StatusOK, toSubscriptionResponse(user))
}

// PaymentNotify tells the administrator the user has paid
// @Summary     Notify payment
// @Description Send the administrator a payment notice. The plan is not changed.
// @Tags        subscription
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body PaymentNotifyRequest true "Payment method"
// @Success     200 {object} MessageResponse "Notification sent"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/payment-notify [post]
func (h *SubscriptionHandler) PaymentNotify(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req PaymentNotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	if err := h.subscriptionService.NotifyPayment(userID, req.PaymentMethod); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditPaymentNotify, resourceSubscription, userID, c.ClientIP(),
		map[string]interface{}{"payment_method": req.PaymentMethod})

	c.JSON(http.StatusOK, MessageResponse{Message: "Payment notification sent"})
}
