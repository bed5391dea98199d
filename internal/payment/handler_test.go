package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadflow/internal/deposit"
)

type fakeRecharger struct {
	calls int
	err   error
}

func (f *fakeRecharger) Recharge(_ context.Context, depositID uuid.UUID, amountCentimes int64, _, _ string) (*deposit.Deposit, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &deposit.Deposit{ID: depositID, CurrentBalanceCentimes: amountCentimes}, nil
}

func confirmRouter(ledger Recharger, key string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/payments/confirm", NewHandler(ledger, key).Confirm)
	return router
}

func postConfirm(t *testing.T, router *gin.Engine, key string, body ConfirmRequest) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, "/payments/confirm", bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-Gateway-Key", key)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestConfirm(t *testing.T) {
	paid := ConfirmRequest{
		Reference:      "ref-1",
		DepositID:      uuid.New(),
		AmountCentimes: 50000,
		Status:         "paid",
		Method:         "card",
	}

	t.Run("applies the recharge", func(t *testing.T) {
		ledger := &fakeRecharger{}
		w := postConfirm(t, confirmRouter(ledger, "hook-key"), "hook-key", paid)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, ledger.calls)
	})

	t.Run("rejects a bad webhook key", func(t *testing.T) {
		ledger := &fakeRecharger{}
		w := postConfirm(t, confirmRouter(ledger, "hook-key"), "wrong", paid)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, 0, ledger.calls)
	})

	t.Run("ignores non-paid statuses", func(t *testing.T) {
		ledger := &fakeRecharger{}
		failed := paid
		failed.Status = "failed"
		w := postConfirm(t, confirmRouter(ledger, "hook-key"), "hook-key", failed)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 0, ledger.calls)
	})

	t.Run("unknown deposit", func(t *testing.T) {
		ledger := &fakeRecharger{err: deposit.ErrNotFound}
		w := postConfirm(t, confirmRouter(ledger, "hook-key"), "hook-key", paid)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("busy deposit is retryable", func(t *testing.T) {
		ledger := &fakeRecharger{err: deposit.ErrBusy}
		w := postConfirm(t, confirmRouter(ledger, "hook-key"), "hook-key", paid)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
