package payment

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadflow/internal/api"
	"leadflow/internal/deposit"
	"leadflow/internal/logger"
)

// Recharger applies a confirmed payment to the ledger.
type Recharger interface {
	Recharge(ctx context.Context, depositID uuid.UUID, amountCentimes int64, paymentMethod, paymentReference string) (*deposit.Deposit, error)
}

type ConfirmRequest struct {
	Reference      string    `json:"reference" binding:"required"`
	DepositID      uuid.UUID `json:"deposit_id" binding:"required"`
	AmountCentimes int64     `json:"amount_centimes" binding:"required"`
	Status         string    `json:"status" binding:"required"`
	Method         string    `json:"method"`
}

type Handler struct {
	ledger     Recharger
	webhookKey string
}

func NewHandler(ledger Recharger, webhookKey string) *Handler {
	return &Handler{
		ledger:     ledger,
		webhookKey: webhookKey,
	}
}

// @Summary      Payment confirmation webhook
// @Description  Called by the gateway once a checkout session settles; applies the recharge to the ledger
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        X-Gateway-Key header string true "Shared webhook secret"
// @Param        request body payment.ConfirmRequest true "Confirmation payload"
// @Success      200 {object} api.MessageResponse
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      503 {object} api.ErrorResponse
// @Router       /payments/confirm [post]
func (h *Handler) Confirm(c *gin.Context) {
	if h.webhookKey != "" && c.GetHeader("X-Gateway-Key") != h.webhookKey {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Invalid webhook key"})
		return
	}

	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	if req.Status != "paid" {
		// the gateway reports failures too; nothing reaches the ledger
		logger.Infof("Payment %s for deposit %s reported as %s, ignored", req.Reference, req.DepositID, req.Status)
		c.JSON(http.StatusOK, api.MessageResponse{Message: "ignored"})
		return
	}

	ctx := c.Request.Context()
	method := req.Method
	if method == "" {
		method = "gateway"
	}

	if _, err := h.ledger.Recharge(ctx, req.DepositID, req.AmountCentimes, method, req.Reference); err != nil {
		switch {
		case errors.Is(err, deposit.ErrNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Deposit not found"})
		case errors.Is(err, deposit.ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid recharge amount"})
		case errors.Is(err, deposit.ErrBusy):
			c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: "Deposit is busy, retry shortly"})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to apply recharge"})
		}
		return
	}

	logger.Infof("Payment %s applied: deposit %s recharged by %d centimes", req.Reference, req.DepositID, req.AmountCentimes)
	c.JSON(http.StatusOK, api.MessageResponse{Message: "recharge applied"})
}
