package monitor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"leadflow/internal/alert"
	"leadflow/internal/deposit"
	"leadflow/internal/logger"
	"leadflow/internal/metrics"
)

const defaultInterval = time.Hour

type Ledger interface {
	ActiveDeposits(ctx context.Context) ([]deposit.Deposit, error)
}

type Alerter interface {
	QueueLowBalanceAlert(ctx context.Context, dep *deposit.Deposit, tier alert.Tier) error
	QueueLength(ctx context.Context) int64
}

// Checkout opens a gateway payment session for an automatic top-up. The
// ledger recharge happens later, when the gateway confirms via webhook.
type Checkout interface {
	StartCheckout(ctx context.Context, depositID uuid.UUID, amountCentimes int64, method string) (paymentURL, reference string, err error)
}

// Sweeper periodically classifies every active deposit, queues an alert for
// the ones running low and opens a top-up checkout for the ones with
// auto-recharge configured. Alert throttling lives in the alerter, not here.
type Sweeper struct {
	ledger   Ledger
	alerter  Alerter
	checkout Checkout
	interval time.Duration
}

func NewSweeper(ledger Ledger, alerter Alerter, checkout Checkout) *Sweeper {
	return &Sweeper{
		ledger:   ledger,
		alerter:  alerter,
		checkout: checkout,
		interval: defaultInterval,
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	logger.Infof("Deposit monitor started, sweeping every %s", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Deposit monitor stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

func (s *Sweeper) Sweep(ctx context.Context) {
	deposits, err := s.ledger.ActiveDeposits(ctx)
	if err != nil {
		logger.Errorf("Deposit sweep failed: %v", err)
		return
	}

	alerted := 0
	for i := range deposits {
		dep := &deposits[i]
		metrics.SetDepositAvailable(dep.ID.String(), dep.AvailableCentimes())

		if dep.NeedsAutoRecharge() {
			s.topUp(ctx, dep)
		}

		tier := alert.Classify(dep.Percentage())
		if tier == alert.TierHealthy {
			continue
		}

		if err := s.alerter.QueueLowBalanceAlert(ctx, dep, tier); err != nil {
			logger.Errorf("Failed to queue alert for deposit %s: %v", dep.ID, err)
			continue
		}
		alerted++
	}

	metrics.SetNotificationQueueLength(s.alerter.QueueLength(ctx))

	logger.Infof("Deposit sweep done: %d deposits checked, %d alerts queued", len(deposits), alerted)
}

// topUp opens a checkout for the configured amount. The balance moves only
// when the gateway webhook confirms, so a deposit still below its threshold
// is retried on the next sweep.
func (s *Sweeper) topUp(ctx context.Context, dep *deposit.Deposit) {
	_, reference, err := s.checkout.StartCheckout(ctx, dep.ID, dep.AutoRechargeAmountCentimes, "auto_recharge")
	if err != nil {
		logger.Errorf("Auto-recharge checkout failed for deposit %s: %v", dep.ID, err)
		return
	}
	logger.Info("auto-recharge checkout opened",
		"deposit_id", dep.ID.String(),
		"amount_centimes", dep.AutoRechargeAmountCentimes,
		"reference", reference,
	)
}
