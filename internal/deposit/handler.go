package deposit

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadflow/internal/api"
	"leadflow/internal/auth"
	"leadflow/internal/logger"
)

// CheckoutStarter opens a payment session with the external gateway and
// returns the payment URL plus our reference for the pending payment.
type CheckoutStarter interface {
	StartCheckout(ctx context.Context, depositID uuid.UUID, amountCentimes int64, method string) (paymentURL, reference string, err error)
}

// maxHistoryLimit caps the transaction page size a client may request.
const maxHistoryLimit = 500

type Handler struct {
	ledger   *Ledger
	checkout CheckoutStarter
}

func NewHandler(ledger *Ledger, checkout CheckoutStarter) *Handler {
	return &Handler{ledger: ledger, checkout: checkout}
}

type CreateDepositRequest struct {
	CampaignID            *uuid.UUID `json:"campaign_id"`
	InitialAmountCentimes int64      `json:"initial_amount_centimes" binding:"required"`
	PaymentMethod         string     `json:"payment_method"`
	PaymentReference      string     `json:"payment_reference"`
}

type RechargeRequest struct {
	AmountCentimes int64  `json:"amount_centimes" binding:"required"`
	PaymentMethod  string `json:"payment_method" binding:"required"`
}

type AutoRechargeRequest struct {
	Enabled           bool  `json:"enabled"`
	AmountCentimes    int64 `json:"amount_centimes"`
	ThresholdCentimes int64 `json:"threshold_centimes"`
}

type RechargeResponse struct {
	PaymentURL string    `json:"payment_url,omitempty"`
	Reference  string    `json:"reference,omitempty"`
	Deposit    *Deposit  `json:"deposit,omitempty"`
	Status     string    `json:"status"`
	DepositID  uuid.UUID `json:"deposit_id"`
}

// GetBalance godoc
// @Summary      Deposit balance
// @Description  Returns the merchant's deposit snapshot with its alert tier.
// @Tags         deposits
// @Security     BearerAuth
// @Produce      json
// @Param        campaign_id  query     string  false  "Campaign ID"
// @Success      200          {object}  Snapshot
// @Failure      500          {object}  api.ErrorResponse
// @Router       /deposits/balance [get]
func (h *Handler) GetBalance(c *gin.Context) {
	merchantID, ok := auth.GetActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "not authenticated"})
		return
	}

	var campaignID *uuid.UUID
	if raw := c.Query("campaign_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid campaign_id"})
			return
		}
		campaignID = &id
	}

	snap, err := h.ledger.Snapshot(c.Request.Context(), merchantID, campaignID)
	if err != nil {
		logger.Errorf("snapshot failed: %v", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load deposit"})
		return
	}

	c.JSON(http.StatusOK, snap)
}

// CreateDeposit godoc
// @Summary      Create deposit
// @Description  Opens a prepaid deposit for the merchant. Minimum 2000 dhs.
// @Tags         deposits
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      CreateDepositRequest  true  "Deposit"
// @Success      201   {object}  Deposit
// @Failure      400   {object}  api.ErrorResponse
// @Router       /deposits [post]
func (h *Handler) CreateDeposit(c *gin.Context) {
	merchantID, ok := auth.GetActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "not authenticated"})
		return
	}

	var req CreateDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body"})
		return
	}

	dep, err := h.ledger.CreateDeposit(c.Request.Context(), merchantID, req.CampaignID,
		req.InitialAmountCentimes, req.PaymentMethod, req.PaymentReference)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dep)
}

// Recharge godoc
// @Summary      Recharge deposit
// @Description  Tops up a deposit. Gateway methods return a payment URL; the
// @Description  ledger is credited once the gateway confirms. Minimum 500 dhs.
// @Tags         deposits
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        depositID  path      string           true  "Deposit ID"
// @Param        body       body      RechargeRequest  true  "Recharge"
// @Success      200        {object}  RechargeResponse
// @Failure      400        {object}  api.ErrorResponse
// @Failure      502        {object}  api.ErrorResponse
// @Router       /deposits/{depositID}/recharge [post]
func (h *Handler) Recharge(c *gin.Context) {
	merchantID, ok := auth.GetActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "not authenticated"})
		return
	}

	depositID, err := uuid.Parse(c.Param("depositID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid deposit ID"})
		return
	}

	var req RechargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.AmountCentimes < MinRechargeAmountCentimes {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "recharge minimum is 500 dhs"})
		return
	}

	dep, err := h.ledger.GetDeposit(c.Request.Context(), depositID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if dep.MerchantID != merchantID {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "deposit not found"})
		return
	}

	// Bank transfers and manual entries are already confirmed; everything
	// else goes through the gateway and is credited by the webhook.
	if req.PaymentMethod == "manual" || req.PaymentMethod == "bank_transfer" {
		updated, err := h.ledger.Recharge(c.Request.Context(), depositID, req.AmountCentimes, req.PaymentMethod, "")
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, RechargeResponse{Status: "confirmed", DepositID: depositID, Deposit: updated})
		return
	}

	paymentURL, reference, err := h.checkout.StartCheckout(c.Request.Context(), depositID, req.AmountCentimes, req.PaymentMethod)
	if err != nil {
		logger.Errorf("checkout failed for deposit %s: %v", depositID, err)
		c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: "payment gateway unavailable"})
		return
	}

	c.JSON(http.StatusOK, RechargeResponse{
		Status:     "pending",
		DepositID:  depositID,
		PaymentURL: paymentURL,
		Reference:  reference,
	})
}

// History godoc
// @Summary      Transaction history
// @Description  Returns the deposit's ledger entries, most recent first.
// @Tags         deposits
// @Security     BearerAuth
// @Produce      json
// @Param        depositID  path      string  true   "Deposit ID"
// @Param        limit      query     int     false  "Max entries"
// @Success      200        {array}   Transaction
// @Failure      404        {object}  api.ErrorResponse
// @Router       /deposits/{depositID}/transactions [get]
func (h *Handler) History(c *gin.Context) {
	merchantID, ok := auth.GetActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "not authenticated"})
		return
	}

	depositID, err := uuid.Parse(c.Param("depositID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid deposit ID"})
		return
	}

	dep, err := h.ledger.GetDeposit(c.Request.Context(), depositID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if dep.MerchantID != merchantID {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "deposit not found"})
		return
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			if n > maxHistoryLimit {
				n = maxHistoryLimit
			}
			limit = n
		}
	}

	txs, err := h.ledger.History(c.Request.Context(), depositID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load transactions"})
		return
	}

	c.JSON(http.StatusOK, txs)
}

// Suspend godoc
// @Summary      Suspend deposit
// @Description  Stops new reservations against the deposit without deleting it.
// @Tags         deposits
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        depositID  path      string  true  "Deposit ID"
// @Success      200        {object}  Deposit
// @Failure      404        {object}  api.ErrorResponse
// @Router       /deposits/{depositID}/suspend [post]
func (h *Handler) Suspend(c *gin.Context) {
	merchantID, ok := auth.GetActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "not authenticated"})
		return
	}

	depositID, err := uuid.Parse(c.Param("depositID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid deposit ID"})
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	dep, err := h.ledger.Suspend(c.Request.Context(), depositID, merchantID, req.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dep)
}

// ConfigureAutoRecharge godoc
// @Summary      Configure auto-recharge
// @Description  Sets the per-deposit top-up rule applied by the balance monitor.
// @Tags         deposits
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        depositID  path      string                true  "Deposit ID"
// @Param        request    body      AutoRechargeRequest   true  "Auto-recharge settings"
// @Success      200        {object}  Deposit
// @Failure      400        {object}  api.ErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Router       /deposits/{depositID}/auto-recharge [post]
func (h *Handler) ConfigureAutoRecharge(c *gin.Context) {
	merchantID, ok := auth.GetActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "not authenticated"})
		return
	}

	depositID, err := uuid.Parse(c.Param("depositID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid deposit ID"})
		return
	}

	var req AutoRechargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	dep, err := h.ledger.ConfigureAutoRecharge(c.Request.Context(), depositID, merchantID,
		req.Enabled, req.AmountCentimes, req.ThresholdCentimes)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dep)
}

// List godoc
// @Summary      List deposits
// @Description  Returns every deposit owned by the merchant, newest first.
// @Tags         deposits
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Deposit
// @Failure      500  {object}  api.ErrorResponse
// @Router       /deposits [get]
func (h *Handler) List(c *gin.Context) {
	merchantID, ok := auth.GetActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "not authenticated"})
		return
	}

	deposits, err := h.ledger.DepositsFor(c.Request.Context(), merchantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load deposits"})
		return
	}

	c.JSON(http.StatusOK, deposits)
}

// Stats godoc
// @Summary      Deposit statistics
// @Tags         deposits
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  Stats
// @Failure      500  {object}  api.ErrorResponse
// @Router       /deposits/stats [get]
func (h *Handler) Stats(c *gin.Context) {
	merchantID, ok := auth.GetActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "not authenticated"})
		return
	}

	stats, err := h.ledger.StatsFor(c.Request.Context(), merchantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "deposit not found"})
	case errors.Is(err, ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrInsufficientFunds):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "deposit balance is insufficient"})
	case errors.Is(err, ErrSuspended):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "deposit is suspended"})
	case errors.Is(err, ErrBusy):
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: "deposit is busy, retry shortly"})
	default:
		logger.Errorf("deposit operation failed: %v", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal error"})
	}
}
