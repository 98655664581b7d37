package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "kyatflow/internal/errors"
	"kyatflow/internal/models"
	"kyatflow/internal/pagination"
	"kyatflow/internal/services"
)

const resourceParty = "party"

// PartyHandler handles customer and supplier requests.
type PartyHandler struct {
	partyService services.PartyServicer
	auditService services.AuditServicer
}

// NewPartyHandler creates a new PartyHandler.
func NewPartyHandler(partyService services.PartyServicer, auditService services.AuditServicer) *PartyHandler {
	return &PartyHandler{partyService: partyService, auditService: auditService}
}

// CreatePartyRequest represents the request payload for creating a party.
// Balance seeds the running balance: positive is owed to the user.
type CreatePartyRequest struct {
	Name    string           `json:"name" binding:"required,max=100"`
	Phone   *string          `json:"phone" binding:"omitempty,phone"`
	Type    models.PartyType `json:"type" binding:"required,party_type"`
	Balance decimal.Decimal  `json:"balance"`
}

// UpdatePartyRequest represents the request payload for editing a party.
// Balance is not editable; it follows the ledger.
type UpdatePartyRequest struct {
	Name  *string           `json:"name" binding:"omitempty,min=1,max=100"`
	Phone *string           `json:"phone"`
	Type  *models.PartyType `json:"type" binding:"omitempty,party_type"`
}

// CreateParty handles the creation of a new customer or supplier
// @Summary     Create a party
// @Description Create a customer or supplier with an optional opening balance
// @Tags        parties
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreatePartyRequest true "Party details"
// @Success     201 {object} models.Party "Party created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /parties [post]
func (h *PartyHandler) CreateParty(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreatePartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	party, err := h.partyService.CreateParty(userID, req.Name, req.Phone, req.Type, req.Balance)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditCreateParty, resourceParty, party.ID, c.ClientIP(),
		map[string]interface{}{"name": party.Name, "type": party.Type, "balance": party.Balance.String()})

	c.JSON(http.StatusCreated, gin.H{"party": party})
}

// GetUserParties lists the authenticated user's parties
// @Summary     List parties
// @Description Get a paginated list of parties, optionally filtered by type
// @Tags        parties
// @Produce     json
// @Security    BearerAuth
// @Param       page     query int    false "Page number (default 1)"
// @Param       pageSize query int    false "Items per page (default 20, max 100)"
// @Param       type     query string false "customer or supplier"
// @Success     200 {object} pagination.PageResponse[models.Party] "Paginated parties"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /parties [get]
func (h *PartyHandler) GetUserParties(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	var partyType *models.PartyType
	if v := c.Query("type"); v != "" {
		pt := models.PartyType(v)
		if !pt.Valid() {
			respondWithError(c, apperrors.ErrInvalidPartyType)
			return
		}
		partyType = &pt
	}

	result, err := h.partyService.GetUserParties(userID, partyType, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPartyByID returns one party
// @Summary     Get party by ID
// @Tags        parties
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Party ID"
// @Success     200 {object} models.Party "Party details"
// @Failure     400 {object} ErrorResponse "Invalid party ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Party not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /parties/{id} [get]
func (h *PartyHandler) GetPartyByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	partyID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	party, err := h.partyService.GetPartyByID(userID, partyID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"party": party})
}

// UpdateParty edits a party's name, phone or type
// @Summary     Update party
// @Description Update name, phone or type. The balance is never changed here.
// @Tags        parties
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string             true "Party ID"
// @Param       request body UpdatePartyRequest true "Fields to update"
// @Success     200 {object} models.Party "Updated party"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Party not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /parties/{id} [put]
func (h *PartyHandler) UpdateParty(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	partyID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdatePartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	party, err := h.partyService.UpdateParty(userID, partyID, services.PartyUpdateFields{
		Name:  req.Name,
		Phone: req.Phone,
		Type:  req.Type,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditUpdateParty, resourceParty, partyID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"party": party})
}

// DeleteParty removes a party that no transaction references
// @Summary     Delete party
// @Description Delete a party. Fails while any transaction still references it.
// @Tags        parties
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Party ID"
// @Success     200 {object} MessageResponse "Party deleted"
// @Failure     400 {object} ErrorResponse "Party has transactions"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Party not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /parties/{id} [delete]
func (h *PartyHandler) DeleteParty(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	partyID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.partyService.DeleteParty(userID, partyID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditDeleteParty, resourceParty, partyID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Party deleted successfully"})
}
