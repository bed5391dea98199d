package notify

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"leadflow/internal/alert"
	"leadflow/internal/deposit"
	"leadflow/internal/lead"
	"leadflow/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Init()

	code := m.Run()
	os.Exit(code)
}

func newTestService(rdb *redis.Client) *Service {
	return &Service{
		redis:    rdb,
		from:     "noreply@leadflow.ma",
		fromName: "LeadFlow",
		alertsTo: "merchants@leadflow.ma",
		smtpHost: "smtp.test.com",
		smtpPort: "587",
		smtpUser: "test@example.com",
		smtpPass: "password",
	}
}

func TestPublishPayoutAccrual(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.Regexp().ExpectLPush("payout_accruals", `.*`).SetVal(1)

	svc := newTestService(db)

	err := svc.PublishPayoutAccrual(ctx, &lead.Lead{
		ID:                           uuid.New(),
		CampaignID:                   uuid.New(),
		InfluencerID:                 uuid.New(),
		InfluencerCommissionCentimes: 5000,
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishPayoutAccrualError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.Regexp().ExpectLPush("payout_accruals", `.*`).SetErr(assert.AnError)

	svc := newTestService(db)

	err := svc.PublishPayoutAccrual(ctx, &lead.Lead{ID: uuid.New()})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueLowBalanceAlert(t *testing.T) {
	dep := &deposit.Deposit{
		ID:                     uuid.New(),
		InitialAmountCentimes:  200000,
		CurrentBalanceCentimes: 30000,
		Status:                 deposit.StatusActive,
	}

	t.Run("queues when throttle is clear", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		ctx := context.Background()

		mock.ExpectSetNX("alerts:deposit:"+dep.ID.String(), string(alert.TierWarning), 24*time.Hour).SetVal(true)
		mock.Regexp().ExpectLPush("notifications", `.*`).SetVal(1)

		svc := newTestService(db)

		err := svc.QueueLowBalanceAlert(ctx, dep, alert.TierWarning)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("second alert within a day is dropped", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		ctx := context.Background()

		mock.ExpectSetNX("alerts:deposit:"+dep.ID.String(), string(alert.TierWarning), 24*time.Hour).SetVal(false)

		svc := newTestService(db)

		err := svc.QueueLowBalanceAlert(ctx, dep, alert.TierWarning)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestQueueLength(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.ExpectLLen("notifications").SetVal(3)

	svc := newTestService(db)

	length := svc.QueueLength(ctx)
	assert.Equal(t, int64(3), length)
	assert.NoError(t, mock.ExpectationsWereMet())
}
