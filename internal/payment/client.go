package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"leadflow/internal/logger"
)

// ErrGateway means the payment gateway refused or failed the request before
// any ledger mutation happened.
var ErrGateway = errors.New("payment gateway error")

type checkoutRequest struct {
	DepositID      string `json:"deposit_id"`
	AmountCentimes int64  `json:"amount_centimes"`
	Currency       string `json:"currency"`
	Method         string `json:"method"`
}

type checkoutResponse struct {
	PaymentURL string `json:"payment_url"`
	Reference  string `json:"reference"`
	Error      string `json:"error"`
}

type Client struct {
	http *resty.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetAuthToken(apiKey).
			SetHeader("Content-Type", "application/json").
			SetTimeout(10 * time.Second).
			SetRetryCount(2),
	}
}

// StartCheckout opens a hosted checkout session for a deposit recharge and
// returns the URL the merchant must complete payment on.
func (c *Client) StartCheckout(ctx context.Context, depositID uuid.UUID, amountCentimes int64, method string) (string, string, error) {
	var result checkoutResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(checkoutRequest{
			DepositID:      depositID.String(),
			AmountCentimes: amountCentimes,
			Currency:       "MAD",
			Method:         method,
		}).
		SetResult(&result).
		SetError(&result).
		Post("/v1/checkout")
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrGateway, err)
	}
	if resp.IsError() {
		logger.Errorf("Gateway checkout failed for deposit %s: %d %s", depositID, resp.StatusCode(), result.Error)
		return "", "", fmt.Errorf("%w: status %d", ErrGateway, resp.StatusCode())
	}
	if result.PaymentURL == "" || result.Reference == "" {
		return "", "", fmt.Errorf("%w: incomplete checkout response", ErrGateway)
	}

	logger.Infof("Checkout session %s opened for deposit %s", result.Reference, depositID)
	return result.PaymentURL, result.Reference, nil
}
