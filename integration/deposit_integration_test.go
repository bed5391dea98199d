package integration_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadflow/internal/deposit"
)

func TestDepositLifecycle_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()

	cleanDatabase(t, db)

	repo := deposit.NewRepository(db)
	ledger := deposit.NewLedger(repo, nil)
	ctx := context.Background()

	merchantID := uuid.New()

	dep, err := ledger.CreateDeposit(ctx, merchantID, nil, 200_000, "card", "pay-001")
	require.NoError(t, err)
	require.Equal(t, int64(200_000), dep.CurrentBalanceCentimes)
	require.Equal(t, int64(0), dep.ReservedAmountCentimes)
	require.Equal(t, deposit.StatusActive, dep.Status)

	leadID := uuid.New()
	dep, err = ledger.Reserve(ctx, dep.ID, leadID, 30_000)
	require.NoError(t, err)
	assert.Equal(t, int64(200_000), dep.CurrentBalanceCentimes)
	assert.Equal(t, int64(30_000), dep.ReservedAmountCentimes)

	dep, err = ledger.Commit(ctx, dep.ID, leadID, 30_000)
	require.NoError(t, err)
	assert.Equal(t, int64(170_000), dep.CurrentBalanceCentimes)
	assert.Equal(t, int64(0), dep.ReservedAmountCentimes)

	// A committed reservation cannot be committed or released again.
	_, err = ledger.Commit(ctx, dep.ID, leadID, 30_000)
	assert.ErrorIs(t, err, deposit.ErrReservationResolved)
	_, err = ledger.Release(ctx, dep.ID, leadID, 30_000)
	assert.ErrorIs(t, err, deposit.ErrReservationResolved)

	ok, err := ledger.Audit(ctx, dep.ID)
	require.NoError(t, err)
	assert.True(t, ok, "transaction log must replay to the stored reserved amount")

	history, err := ledger.History(ctx, dep.ID, 50)
	require.NoError(t, err)
	require.Len(t, history, 3) // initial, reservation, commit
}

func TestDepositReserve_InsufficientFunds_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()

	cleanDatabase(t, db)

	repo := deposit.NewRepository(db)
	ledger := deposit.NewLedger(repo, nil)
	ctx := context.Background()

	dep, err := ledger.CreateDeposit(ctx, uuid.New(), nil, 200_000, "card", "pay-002")
	require.NoError(t, err)

	_, err = ledger.Reserve(ctx, dep.ID, uuid.New(), 250_000)
	assert.ErrorIs(t, err, deposit.ErrInsufficientFunds)

	// Balance is untouched by the refused reservation.
	got, err := ledger.GetDeposit(ctx, dep.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(200_000), got.CurrentBalanceCentimes)
	assert.Equal(t, int64(0), got.ReservedAmountCentimes)
}

func TestDepositConcurrentReserves_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()

	cleanDatabase(t, db)

	repo := deposit.NewRepository(db)
	ledger := deposit.NewLedger(repo, nil)
	ctx := context.Background()

	// 20 x 10_000 fits, the remaining 30 must be refused.
	dep, err := ledger.CreateDeposit(ctx, uuid.New(), nil, 200_000, "card", "pay-003")
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Reserve(ctx, dep.ID, uuid.New(), 10_000)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			if !errors.Is(err, deposit.ErrInsufficientFunds) {
				t.Errorf("unexpected reserve error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, succeeded)

	got, err := ledger.GetDeposit(ctx, dep.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(200_000), got.ReservedAmountCentimes)

	ok, err := ledger.Audit(ctx, dep.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDepositRechargeReactivates_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()

	cleanDatabase(t, db)

	repo := deposit.NewRepository(db)
	ledger := deposit.NewLedger(repo, nil)
	ctx := context.Background()

	dep, err := ledger.CreateDeposit(ctx, uuid.New(), nil, 200_000, "card", "pay-004")
	require.NoError(t, err)

	leadID := uuid.New()
	_, err = ledger.Reserve(ctx, dep.ID, leadID, 200_000)
	require.NoError(t, err)
	dep, err = ledger.Commit(ctx, dep.ID, leadID, 200_000)
	require.NoError(t, err)
	require.Equal(t, deposit.StatusDepleted, dep.Status)

	// A depleted deposit refuses reservations until recharged.
	_, err = ledger.Reserve(ctx, dep.ID, uuid.New(), 10_000)
	assert.ErrorIs(t, err, deposit.ErrInsufficientFunds)

	dep, err = ledger.Recharge(ctx, dep.ID, 80_000, "card", "pay-005")
	require.NoError(t, err)
	assert.Equal(t, deposit.StatusActive, dep.Status)
	assert.Equal(t, int64(80_000), dep.CurrentBalanceCentimes)

	_, err = ledger.Reserve(ctx, dep.ID, uuid.New(), 10_000)
	assert.NoError(t, err)
}
