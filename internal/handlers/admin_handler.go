package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "kyatflow/internal/errors"
	"kyatflow/internal/models"
	"kyatflow/internal/pagination"
	"kyatflow/internal/services"
)

// AdminHandler handles administrator-only operations.
type AdminHandler struct {
	subscriptionService services.SubscriptionServicer
	partyService        services.PartyServicer
	auditService        services.AuditServicer
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(subscriptionService services.SubscriptionServicer, partyService services.PartyServicer, auditService services.AuditServicer) *AdminHandler {
	return &AdminHandler{
		subscriptionService: subscriptionService,
		partyService:        partyService,
		auditService:        auditService,
	}
}

// GenerateCodeResponse carries a freshly minted redemption code.
type GenerateCodeResponse struct {
	Code string `json:"code"`
}

// UpdateStatusRequest overrides a user's plan.
type UpdateStatusRequest struct {
	UserID string                    `json:"userId" binding:"required,uuid"`
	Status models.SubscriptionStatus `json:"status" binding:"required,subscription_status"`
	Days   *int                      `json:"days" binding:"omitempty,gt=0,lte=3650"`
}

// GenerateCode mints a single-use redemption code
// @Summary     Generate redemption code
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} GenerateCodeResponse "New code"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not an administrator"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/generate-code [post]
func (h *AdminHandler) GenerateCode(c *gin.Context) {
	adminID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	code, err := h.subscriptionService.GenerateCode()
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(adminID, services.AuditGenerateCode, "redemption_code", code.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, GenerateCodeResponse{Code: code.Code})
}

// ListCodes lists redemption codes
// @Summary     List redemption codes
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       page     query int  false "Page number (default 1)"
// @Param       pageSize query int  false "Items per page (default 20, max 100)"
// @Param       used     query bool false "Filter by used state"
// @Success     200 {object} pagination.PageResponse[models.RedemptionCode] "Paginated codes"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not an administrator"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/codes [get]
func (h *AdminHandler) ListCodes(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	var used *bool
	if v := c.Query("used"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "used must be true or false"))
			return
		}
		used = &b
	}

	result, err := h.subscriptionService.ListCodes(used, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// UpdateStatus sets a user's subscription status
// @Summary     Set subscription status
// @Description Override a user's plan. Trial and pro run for days (default 30) from now; free and expired clear the end date.
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdateStatusRequest true "Target user and status"
// @Success     200 {object} UserResponse "Updated user"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not an administrator"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/admin/update-status [post]
func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	adminID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	user, err := h.subscriptionService.AdminSetStatus(req.UserID, req.Status, req.Days)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(adminID, services.AuditSetStatus, "user", user.ID, c.ClientIP(),
		map[string]interface{}{"status": user.SubscriptionStatus, "days": req.Days, "ends_at": user.SubscriptionEndDate})

	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

// RecalculatePartyBalance recomputes a party's balance from its transactions
// @Summary     Recalculate party balance
// @Description Rebuild a party balance from its opening balance and transactions, repairing drift
// @Tags        admin
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Party ID"
// @Success     200 {object} services.BalanceRepair "Repair result"
// @Failure     400 {object} ErrorResponse "Invalid party ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not an administrator"
// @Failure     404 {object} ErrorResponse "Party not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/parties/{id}/recalculate [post]
func (h *AdminHandler) RecalculatePartyBalance(c *gin.Context) {
	adminID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	partyID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	repair, err := h.partyService.RecalculateBalance(partyID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(adminID, services.AuditRecalculateParty, resourceParty, partyID, c.ClientIP(),
		map[string]interface{}{"previous": repair.PreviousBalance.String(), "balance": repair.RecomputedAmount.String()})

	c.JSON(http.StatusOK, repair)
}
