package lead

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadflow/internal/api"
	"leadflow/internal/auth"
	"leadflow/internal/campaign"
	"leadflow/internal/commission"
	"leadflow/internal/deposit"
)

type Handler struct {
	manager *Manager
}

func NewHandler(manager *Manager) *Handler {
	return &Handler{
		manager: manager,
	}
}

// @Summary      Preview a commission
// @Description  Read-only commission computation; the deposit_available flag is advisory
// @Tags         leads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body lead.PreviewRequest true "Preview payload"
// @Success      200 {object} lead.PreviewResponse
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /leads/preview [post]
func (h *Handler) Preview(c *gin.Context) {
	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	ctx := c.Request.Context()
	preview, err := h.manager.Preview(ctx, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, preview)
}

// @Summary      Create a lead
// @Description  Reserves the campaign commission on the merchant's deposit and persists the lead as PENDING
// @Tags         leads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body lead.CreateLeadRequest true "Lead payload"
// @Success      201 {object} lead.Lead
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Failure      503 {object} api.ErrorResponse
// @Router       /leads [post]
func (h *Handler) CreateLead(c *gin.Context) {
	influencerID, ok := auth.GetActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	ctx := c.Request.Context()
	created, err := h.manager.CreateLead(ctx, influencerID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// @Summary      List leads
// @Description  Merchant view, filterable by status, campaign, source and date range
// @Tags         leads
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "PENDING, VALIDATED or REJECTED"
// @Param        campaign_id query string false "Campaign ID"
// @Param        source query string false "instagram, tiktok, whatsapp or direct"
// @Param        from query string false "RFC3339 lower bound on created_at"
// @Param        to query string false "RFC3339 upper bound on created_at"
// @Param        limit query int false "Max rows (default 100)"
// @Success      200 {array} lead.Lead
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /leads [get]
func (h *Handler) ListLeads(c *gin.Context) {
	merchantID, ok := auth.GetActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	filter, err := parseListFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	ctx := c.Request.Context()
	leads, err := h.manager.ListForMerchant(ctx, merchantID, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch leads"})
		return
	}

	c.JSON(http.StatusOK, leads)
}

// @Summary      List own leads
// @Description  Leads submitted by the authenticated influencer
// @Tags         leads
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Max rows (default 100)"
// @Success      200 {array} lead.Lead
// @Failure      401 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /leads/mine [get]
func (h *Handler) ListOwnLeads(c *gin.Context) {
	influencerID, ok := auth.GetActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	ctx := c.Request.Context()
	leads, err := h.manager.ListForInfluencer(ctx, influencerID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch leads"})
		return
	}

	c.JSON(http.StatusOK, leads)
}

// @Summary      Validate a lead
// @Description  Commits the reserved commission and moves the lead to VALIDATED
// @Tags         leads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        leadID path string true "Lead ID"
// @Param        request body lead.ValidateRequest true "Validation payload"
// @Success      200 {object} lead.Lead
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Failure      503 {object} api.ErrorResponse
// @Router       /leads/{leadID}/validate [post]
func (h *Handler) ValidateLead(c *gin.Context) {
	merchantID, ok := auth.GetActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	leadID, err := uuid.Parse(c.Param("leadID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid lead ID"})
		return
	}

	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	ctx := c.Request.Context()
	updated, err := h.manager.ValidateLead(ctx, merchantID, leadID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// @Summary      Reject a lead
// @Description  Releases the reserved commission and moves the lead to REJECTED
// @Tags         leads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        leadID path string true "Lead ID"
// @Param        request body lead.RejectRequest true "Rejection payload"
// @Success      200 {object} lead.Lead
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Failure      503 {object} api.ErrorResponse
// @Router       /leads/{leadID}/reject [post]
func (h *Handler) RejectLead(c *gin.Context) {
	merchantID, ok := auth.GetActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	leadID, err := uuid.Parse(c.Param("leadID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid lead ID"})
		return
	}

	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	ctx := c.Request.Context()
	updated, err := h.manager.RejectLead(ctx, merchantID, leadID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Lead not found"})
	case errors.Is(err, campaign.ErrNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Campaign not found"})
	case errors.Is(err, ErrNotOwner):
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "Lead belongs to another merchant"})
	case errors.Is(err, commission.ErrValueOutOfRange),
		errors.Is(err, commission.ErrInvalidRule),
		errors.Is(err, ErrInvalidQuality),
		errors.Is(err, ErrMissingReason):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrLeadBlocked), errors.Is(err, ErrNoDeposit):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Merchant deposit cannot fund this lead's commission"})
	case errors.Is(err, ErrCampaignClosed):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Campaign is not accepting leads"})
	case errors.Is(err, ErrAlreadyResolved),
		errors.Is(err, deposit.ErrReservationResolved),
		errors.Is(err, deposit.ErrReservationNotFound):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Lead is already resolved"})
	case errors.Is(err, deposit.ErrBusy):
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: "Deposit is busy, retry shortly"})
	default:
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
	}
}

func parseListFilter(c *gin.Context) (ListFilter, error) {
	var filter ListFilter

	if raw := c.Query("status"); raw != "" {
		status := Status(raw)
		if !status.Valid() {
			return filter, errors.New("invalid status filter")
		}
		filter.Status = &status
	}
	if raw := c.Query("campaign_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, errors.New("invalid campaign_id filter")
		}
		filter.CampaignID = &id
	}
	if raw := c.Query("source"); raw != "" {
		source := Source(raw)
		filter.Source = &source
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, errors.New("invalid from filter, want RFC3339")
		}
		filter.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, errors.New("invalid to filter, want RFC3339")
		}
		filter.To = &to
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return filter, errors.New("invalid limit filter")
		}
		filter.Limit = n
	}

	return filter, nil
}
