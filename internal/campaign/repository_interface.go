package campaign

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Campaign, error)
	ListActive(ctx context.Context) ([]Campaign, error)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]Campaign, error)
}
