package lead

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"leadflow/internal/campaign"
	"leadflow/internal/commission"
	"leadflow/internal/deposit"
	"leadflow/internal/logger"
	"leadflow/internal/metrics"
)

var (
	// ErrLeadBlocked means the merchant's deposit could not fund the lead's
	// commission. No lead record and no ledger mutation persist.
	ErrLeadBlocked    = errors.New("lead creation blocked: deposit cannot fund commission")
	ErrCampaignClosed = errors.New("campaign is not accepting leads")
	ErrNoDeposit      = errors.New("merchant has no active deposit")
	ErrNotOwner       = errors.New("lead belongs to another merchant")
	ErrInvalidQuality = errors.New("quality score must be between 1 and 10")
	ErrMissingReason  = errors.New("rejection reason is required")
)

// Ledger is the slice of the deposit ledger the lifecycle needs.
type Ledger interface {
	ActiveDeposit(ctx context.Context, merchantID uuid.UUID, campaignID *uuid.UUID) (*deposit.Deposit, error)
	Reserve(ctx context.Context, depositID, leadID uuid.UUID, amountCentimes int64) (*deposit.Deposit, error)
	Release(ctx context.Context, depositID, leadID uuid.UUID, amountCentimes int64) (*deposit.Deposit, error)
	WithLock(ctx context.Context, depositID uuid.UUID, fn func(ctx context.Context) error) error
}

// Notifier receives lifecycle events. Delivery is asynchronous and never
// blocks a resolution that already happened.
type Notifier interface {
	PublishPayoutAccrual(ctx context.Context, l *Lead) error
}

type Manager struct {
	repo      Repository
	campaigns campaign.Repository
	ledger    Ledger
	notifier  Notifier
}

func NewManager(repo Repository, campaigns campaign.Repository, ledger Ledger, notifier Notifier) *Manager {
	return &Manager{
		repo:      repo,
		campaigns: campaigns,
		ledger:    ledger,
		notifier:  notifier,
	}
}

// Preview computes the commission for a prospective lead without touching the
// ledger. The deposit_available flag is advisory and may be stale.
func (m *Manager) Preview(ctx context.Context, req PreviewRequest) (*PreviewResponse, error) {
	camp, err := m.campaigns.GetByID(ctx, req.CampaignID)
	if err != nil {
		return nil, err
	}
	if !camp.IsActive() {
		return nil, ErrCampaignClosed
	}

	breakdown, err := commission.Compute(camp.Rule(), req.EstimatedValueCentimes)
	if err != nil {
		return nil, err
	}

	available := false
	dep, err := m.ledger.ActiveDeposit(ctx, camp.MerchantID, &camp.ID)
	if errors.Is(err, deposit.ErrNotFound) {
		dep, err = m.ledger.ActiveDeposit(ctx, camp.MerchantID, nil)
	}
	if err == nil {
		available = dep.AvailableCentimes() >= breakdown.CommissionCentimes
	} else if !errors.Is(err, deposit.ErrNotFound) {
		return nil, err
	}

	return &PreviewResponse{
		CommissionCentimes:           breakdown.CommissionCentimes,
		InfluencerCommissionCentimes: breakdown.InfluencerCentimes,
		CommissionType:               breakdown.Type,
		DepositAvailable:             available,
	}, nil
}

// CreateLead validates input, computes the commission, reserves it on the
// merchant's deposit and persists the lead as PENDING. An unfundable
// commission refuses the lead outright: nothing is persisted.
func (m *Manager) CreateLead(ctx context.Context, influencerID uuid.UUID, req CreateLeadRequest) (*Lead, error) {
	camp, err := m.campaigns.GetByID(ctx, req.CampaignID)
	if err != nil {
		return nil, err
	}
	if !camp.IsActive() {
		return nil, ErrCampaignClosed
	}

	breakdown, err := commission.Compute(camp.Rule(), req.EstimatedValueCentimes)
	if err != nil {
		return nil, err
	}

	dep, err := m.ledger.ActiveDeposit(ctx, camp.MerchantID, &camp.ID)
	if errors.Is(err, deposit.ErrNotFound) {
		dep, err = m.ledger.ActiveDeposit(ctx, camp.MerchantID, nil)
	}
	if errors.Is(err, deposit.ErrNotFound) {
		return nil, ErrNoDeposit
	}
	if err != nil {
		return nil, err
	}

	leadID := uuid.New()
	if _, err := m.ledger.Reserve(ctx, dep.ID, leadID, breakdown.CommissionCentimes); err != nil {
		if errors.Is(err, deposit.ErrInsufficientFunds) {
			metrics.RecordLead("blocked")
			return nil, fmt.Errorf("%w: %v", ErrLeadBlocked, err)
		}
		return nil, err
	}

	created, err := m.repo.Create(ctx, &Lead{
		ID:                           leadID,
		CampaignID:                   camp.ID,
		MerchantID:                   camp.MerchantID,
		InfluencerID:                 influencerID,
		DepositID:                    dep.ID,
		CustomerName:                 req.CustomerName,
		CustomerEmail:                req.CustomerEmail,
		CustomerPhone:                req.CustomerPhone,
		CustomerCompany:              optional(req.CustomerCompany),
		CustomerNotes:                optional(req.CustomerNotes),
		EstimatedValueCentimes:       req.EstimatedValueCentimes,
		CommissionType:               breakdown.Type,
		CommissionCentimes:           breakdown.CommissionCentimes,
		InfluencerCommissionCentimes: breakdown.InfluencerCentimes,
		ReservedAmountCentimes:       breakdown.CommissionCentimes,
		Source:                       req.Source,
	})
	if err != nil {
		// the reservation must not outlive a lead that was never persisted
		if _, relErr := m.ledger.Release(ctx, dep.ID, leadID, breakdown.CommissionCentimes); relErr != nil {
			logger.Errorf("failed to release orphaned reservation for lead %s: %v", leadID, relErr)
		}
		return nil, err
	}

	metrics.RecordLead("created")
	return created, nil
}

// ValidateLead commits the reserved commission and moves the lead to
// VALIDATED. The ledger commit and the status flip happen in one database
// transaction; a lead already resolved fails without touching the ledger.
func (m *Manager) ValidateLead(ctx context.Context, merchantID, leadID uuid.UUID, req ValidateRequest) (*Lead, error) {
	if req.QualityScore < 1 || req.QualityScore > 10 {
		return nil, ErrInvalidQuality
	}

	l, err := m.repo.GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if l.MerchantID != merchantID {
		return nil, ErrNotOwner
	}
	if !l.Status.CanResolve() {
		return nil, fmt.Errorf("%w: status is %s", ErrAlreadyResolved, l.Status)
	}

	var updated *Lead
	err = m.ledger.WithLock(ctx, l.DepositID, func(ctx context.Context) error {
		var resolveErr error
		updated, resolveErr = m.repo.ResolveValidate(ctx, leadID, req.QualityScore, req.Feedback)
		return resolveErr
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordLead("validated")
	metrics.RecordPayoutAccrual()
	if m.notifier != nil {
		if err := m.notifier.PublishPayoutAccrual(ctx, updated); err != nil {
			logger.Errorf("failed to publish payout accrual for lead %s: %v", leadID, err)
		}
	}

	return updated, nil
}

// RejectLead releases the reserved commission back to the deposit and moves
// the lead to REJECTED, atomically with the status flip.
func (m *Manager) RejectLead(ctx context.Context, merchantID, leadID uuid.UUID, req RejectRequest) (*Lead, error) {
	if req.Reason == "" {
		return nil, ErrMissingReason
	}

	l, err := m.repo.GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if l.MerchantID != merchantID {
		return nil, ErrNotOwner
	}
	if !l.Status.CanResolve() {
		return nil, fmt.Errorf("%w: status is %s", ErrAlreadyResolved, l.Status)
	}

	var updated *Lead
	err = m.ledger.WithLock(ctx, l.DepositID, func(ctx context.Context) error {
		var resolveErr error
		updated, resolveErr = m.repo.ResolveReject(ctx, leadID, req.Reason)
		return resolveErr
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordLead("rejected")
	return updated, nil
}

func (m *Manager) GetLead(ctx context.Context, id uuid.UUID) (*Lead, error) {
	return m.repo.GetByID(ctx, id)
}

func (m *Manager) ListForMerchant(ctx context.Context, merchantID uuid.UUID, filter ListFilter) ([]Lead, error) {
	return m.repo.ListByMerchant(ctx, merchantID, filter)
}

func (m *Manager) ListForInfluencer(ctx context.Context, influencerID uuid.UUID, limit int) ([]Lead, error) {
	return m.repo.ListByInfluencer(ctx, influencerID, limit)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
