package deposit

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, dep *Deposit, paymentMethod, paymentReference string) (*Deposit, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Deposit, error)
	GetLatestActive(ctx context.Context, merchantID uuid.UUID, campaignID *uuid.UUID) (*Deposit, error)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]Deposit, error)
	ListActive(ctx context.Context) ([]Deposit, error)
	Reserve(ctx context.Context, depositID, leadID uuid.UUID, amountCentimes int64) (*Deposit, error)
	CommitReservation(ctx context.Context, depositID, leadID uuid.UUID, amountCentimes int64) (*Deposit, error)
	ReleaseReservation(ctx context.Context, depositID, leadID uuid.UUID, amountCentimes int64) (*Deposit, error)
	Recharge(ctx context.Context, depositID uuid.UUID, amountCentimes int64, paymentMethod, paymentReference string) (*Deposit, error)
	Suspend(ctx context.Context, depositID, merchantID uuid.UUID, reason string) (*Deposit, error)
	ConfigureAutoRecharge(ctx context.Context, depositID, merchantID uuid.UUID, enabled bool, amountCentimes, thresholdCentimes int64) (*Deposit, error)
	Transactions(ctx context.Context, depositID uuid.UUID, limit int) ([]Transaction, error)
	ReplayReserved(ctx context.Context, depositID uuid.UUID) (int64, error)
	Stats(ctx context.Context, merchantID uuid.UUID) (*Stats, error)
}
