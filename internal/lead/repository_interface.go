package lead

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, l *Lead) (*Lead, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Lead, error)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID, filter ListFilter) ([]Lead, error)
	ListByInfluencer(ctx context.Context, influencerID uuid.UUID, limit int) ([]Lead, error)

	// ResolveValidate and ResolveReject flip the lead to its terminal status
	// and apply the matching ledger mutation in one database transaction.
	ResolveValidate(ctx context.Context, leadID uuid.UUID, qualityScore int, feedback string) (*Lead, error)
	ResolveReject(ctx context.Context, leadID uuid.UUID, reason string) (*Lead, error)
}
