package deposit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"leadflow/internal/alert"
	"leadflow/internal/logger"
	"leadflow/internal/metrics"
)

const (
	defaultLockTimeout = 3 * time.Second
	snapshotTTL        = 5 * time.Second
)

// Ledger owns all mutations of deposit balances. Every mutating call holds the
// per-deposit lock for the duration of the balance arithmetic and the log
// append, nothing else.
type Ledger struct {
	repo        Repository
	locks       *lockTable
	cache       *redis.Client
	lockTimeout time.Duration
}

func NewLedger(repo Repository, cache *redis.Client) *Ledger {
	return &Ledger{
		repo:        repo,
		locks:       newLockTable(),
		cache:       cache,
		lockTimeout: defaultLockTimeout,
	}
}

// WithLock runs fn while holding the deposit's lock. Used by the lead
// lifecycle so a status flip and its ledger mutation share one critical
// section. Returns ErrBusy if the lock cannot be taken in time.
func (l *Ledger) WithLock(ctx context.Context, depositID uuid.UUID, fn func(ctx context.Context) error) error {
	release, err := l.locks.acquire(depositID, l.lockTimeout)
	if err != nil {
		return err
	}
	defer release()
	defer l.invalidate(ctx, depositID)

	return fn(ctx)
}

func (l *Ledger) CreateDeposit(ctx context.Context, merchantID uuid.UUID, campaignID *uuid.UUID, initialAmountCentimes int64, paymentMethod, paymentReference string) (*Deposit, error) {
	dep, err := l.repo.Create(ctx, &Deposit{
		MerchantID:            merchantID,
		CampaignID:            campaignID,
		InitialAmountCentimes: initialAmountCentimes,
	}, paymentMethod, paymentReference)
	if err != nil {
		return nil, err
	}

	logger.Info("deposit created",
		"deposit_id", dep.ID.String(),
		"merchant_id", merchantID.String(),
		"initial_centimes", initialAmountCentimes,
	)
	return dep, nil
}

func (l *Ledger) GetDeposit(ctx context.Context, depositID uuid.UUID) (*Deposit, error) {
	return l.repo.GetByID(ctx, depositID)
}

// ActiveDeposit resolves the deposit funding a merchant's campaign.
func (l *Ledger) ActiveDeposit(ctx context.Context, merchantID uuid.UUID, campaignID *uuid.UUID) (*Deposit, error) {
	return l.repo.GetLatestActive(ctx, merchantID, campaignID)
}

// Snapshot returns the display view of a merchant's deposit. Served from a
// short-lived redis cache; fine for dashboards, never used as a precondition.
func (l *Ledger) Snapshot(ctx context.Context, merchantID uuid.UUID, campaignID *uuid.UUID) (*Snapshot, error) {
	key := snapshotKey(merchantID, campaignID)

	if l.cache != nil {
		if raw, err := l.cache.Get(ctx, key).Result(); err == nil {
			snap := &Snapshot{}
			if err := json.Unmarshal([]byte(raw), snap); err == nil {
				return snap, nil
			}
		}
	}

	dep, err := l.repo.GetLatestActive(ctx, merchantID, campaignID)
	if errors.Is(err, ErrNotFound) {
		return &Snapshot{HasDeposit: false, Tier: alert.TierDepleted}, nil
	}
	if err != nil {
		return nil, err
	}

	snap := snapshotOf(dep)
	if l.cache != nil {
		if raw, err := json.Marshal(snap); err == nil {
			if err := l.cache.Set(ctx, key, raw, snapshotTTL).Err(); err != nil {
				logger.Debugf("snapshot cache set failed: %v", err)
			}
		}
	}
	return &snap, nil
}

// Reserve places a hold of amountCentimes for leadID. Refused with
// ErrInsufficientFunds when the available balance cannot cover it; nothing is
// written on refusal.
func (l *Ledger) Reserve(ctx context.Context, depositID, leadID uuid.UUID, amountCentimes int64) (*Deposit, error) {
	release, err := l.locks.acquire(depositID, l.lockTimeout)
	if err != nil {
		return nil, err
	}
	defer release()
	defer l.invalidate(ctx, depositID)

	dep, err := l.repo.Reserve(ctx, depositID, leadID, amountCentimes)
	if err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			metrics.RecordReservation("refused")
		}
		return nil, err
	}

	metrics.RecordReservation("reserved")
	metrics.SetDepositAvailable(dep.ID.String(), dep.AvailableCentimes())
	return dep, nil
}

// Commit converts leadID's reservation into a permanent deduction.
func (l *Ledger) Commit(ctx context.Context, depositID, leadID uuid.UUID, amountCentimes int64) (*Deposit, error) {
	release, err := l.locks.acquire(depositID, l.lockTimeout)
	if err != nil {
		return nil, err
	}
	defer release()
	defer l.invalidate(ctx, depositID)

	dep, err := l.repo.CommitReservation(ctx, depositID, leadID, amountCentimes)
	if err != nil {
		return nil, err
	}

	metrics.RecordReservation("committed")
	metrics.SetDepositAvailable(dep.ID.String(), dep.AvailableCentimes())
	return dep, nil
}

// Release returns leadID's reservation to the available balance.
func (l *Ledger) Release(ctx context.Context, depositID, leadID uuid.UUID, amountCentimes int64) (*Deposit, error) {
	release, err := l.locks.acquire(depositID, l.lockTimeout)
	if err != nil {
		return nil, err
	}
	defer release()
	defer l.invalidate(ctx, depositID)

	dep, err := l.repo.ReleaseReservation(ctx, depositID, leadID, amountCentimes)
	if err != nil {
		return nil, err
	}

	metrics.RecordReservation("released")
	metrics.SetDepositAvailable(dep.ID.String(), dep.AvailableCentimes())
	return dep, nil
}

// Recharge credits a confirmed external payment to the deposit.
func (l *Ledger) Recharge(ctx context.Context, depositID uuid.UUID, amountCentimes int64, paymentMethod, paymentReference string) (*Deposit, error) {
	if amountCentimes < MinRechargeAmountCentimes {
		return nil, fmt.Errorf("%w: recharge minimum is %d centimes", ErrInvalidAmount, MinRechargeAmountCentimes)
	}

	release, err := l.locks.acquire(depositID, l.lockTimeout)
	if err != nil {
		return nil, err
	}
	defer release()
	defer l.invalidate(ctx, depositID)

	dep, err := l.repo.Recharge(ctx, depositID, amountCentimes, paymentMethod, paymentReference)
	if err != nil {
		return nil, err
	}

	metrics.RecordRecharge()
	metrics.SetDepositAvailable(dep.ID.String(), dep.AvailableCentimes())
	logger.Info("deposit recharged",
		"deposit_id", depositID.String(),
		"amount_centimes", amountCentimes,
		"payment_method", paymentMethod,
	)
	return dep, nil
}

func (l *Ledger) Suspend(ctx context.Context, depositID, merchantID uuid.UUID, reason string) (*Deposit, error) {
	release, err := l.locks.acquire(depositID, l.lockTimeout)
	if err != nil {
		return nil, err
	}
	defer release()
	defer l.invalidate(ctx, depositID)

	return l.repo.Suspend(ctx, depositID, merchantID, reason)
}

// ConfigureAutoRecharge stores the per-deposit top-up rule: when the available
// balance falls below the threshold, the monitor opens a gateway checkout for
// the configured amount. Disabling keeps the stored values for re-enabling.
func (l *Ledger) ConfigureAutoRecharge(ctx context.Context, depositID, merchantID uuid.UUID, enabled bool, amountCentimes, thresholdCentimes int64) (*Deposit, error) {
	if enabled {
		if amountCentimes < MinAutoRechargeAmountCentimes {
			return nil, fmt.Errorf("%w: auto-recharge minimum is %d centimes", ErrInvalidAmount, MinAutoRechargeAmountCentimes)
		}
		if thresholdCentimes <= 0 {
			return nil, fmt.Errorf("%w: auto-recharge threshold must be positive", ErrInvalidAmount)
		}
	}

	defer l.invalidate(ctx, depositID)

	dep, err := l.repo.ConfigureAutoRecharge(ctx, depositID, merchantID, enabled, amountCentimes, thresholdCentimes)
	if err != nil {
		return nil, err
	}

	logger.Info("auto-recharge configured",
		"deposit_id", depositID.String(),
		"enabled", enabled,
		"amount_centimes", amountCentimes,
		"threshold_centimes", thresholdCentimes,
	)
	return dep, nil
}

func (l *Ledger) ActiveDeposits(ctx context.Context) ([]Deposit, error) {
	return l.repo.ListActive(ctx)
}

func (l *Ledger) DepositsFor(ctx context.Context, merchantID uuid.UUID) ([]Deposit, error) {
	return l.repo.ListByMerchant(ctx, merchantID)
}

func (l *Ledger) History(ctx context.Context, depositID uuid.UUID, limit int) ([]Transaction, error) {
	return l.repo.Transactions(ctx, depositID, limit)
}

func (l *Ledger) StatsFor(ctx context.Context, merchantID uuid.UUID) (*Stats, error) {
	return l.repo.Stats(ctx, merchantID)
}

// Audit recomputes the reserved amount from the log and compares it with the
// stored value. A mismatch means the invariant broke and is worth paging on.
func (l *Ledger) Audit(ctx context.Context, depositID uuid.UUID) (bool, error) {
	dep, err := l.repo.GetByID(ctx, depositID)
	if err != nil {
		return false, err
	}
	replayed, err := l.repo.ReplayReserved(ctx, depositID)
	if err != nil {
		return false, err
	}
	if replayed != dep.ReservedAmountCentimes {
		logger.Error("reserved amount diverged from transaction log",
			"deposit_id", depositID.String(),
			"stored", dep.ReservedAmountCentimes,
			"replayed", replayed,
		)
		return false, nil
	}
	return true, nil
}

func (l *Ledger) invalidate(ctx context.Context, depositID uuid.UUID) {
	if l.cache == nil {
		return
	}
	dep, err := l.repo.GetByID(ctx, depositID)
	if err != nil {
		return
	}
	keys := []string{snapshotKey(dep.MerchantID, nil)}
	if dep.CampaignID != nil {
		keys = append(keys, snapshotKey(dep.MerchantID, dep.CampaignID))
	}
	if err := l.cache.Del(ctx, keys...).Err(); err != nil {
		logger.Debugf("snapshot cache invalidation failed: %v", err)
	}
}

func snapshotKey(merchantID uuid.UUID, campaignID *uuid.UUID) string {
	if campaignID != nil {
		return "deposit:snapshot:" + merchantID.String() + ":" + campaignID.String()
	}
	return "deposit:snapshot:" + merchantID.String()
}
