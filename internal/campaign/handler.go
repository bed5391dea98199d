package campaign

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadflow/internal/api"
	"leadflow/internal/auth"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{
		repo: repo,
	}
}

// @Summary      List active campaigns
// @Description  Campaigns currently accepting leads
// @Tags         campaigns
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} campaign.Summary
// @Failure      401 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /campaigns [get]
func (h *Handler) ListCampaigns(c *gin.Context) {
	ctx := c.Request.Context()
	campaigns, err := h.repo.ListActive(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch campaigns"})
		return
	}

	summaries := make([]Summary, 0, len(campaigns))
	for i := range campaigns {
		summaries = append(summaries, campaigns[i].Summary())
	}
	c.JSON(http.StatusOK, summaries)
}

// @Summary      List own campaigns
// @Description  Every campaign owned by the merchant, regardless of status
// @Tags         campaigns
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} campaign.Campaign
// @Failure      401 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /campaigns/mine [get]
func (h *Handler) ListOwnCampaigns(c *gin.Context) {
	merchantID, ok := auth.GetActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "not authenticated"})
		return
	}

	campaigns, err := h.repo.ListByMerchant(c.Request.Context(), merchantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch campaigns"})
		return
	}

	c.JSON(http.StatusOK, campaigns)
}

// @Summary      Get a campaign
// @Tags         campaigns
// @Produce      json
// @Security     BearerAuth
// @Param        campaignID path string true "Campaign ID"
// @Success      200 {object} campaign.Campaign
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /campaigns/{campaignID} [get]
func (h *Handler) GetCampaign(c *gin.Context) {
	id, err := uuid.Parse(c.Param("campaignID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid campaign ID"})
		return
	}

	ctx := c.Request.Context()
	campaign, err := h.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Campaign not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch campaign"})
		return
	}

	c.JSON(http.StatusOK, campaign)
}
