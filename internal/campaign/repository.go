package campaign

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("campaign not found")

const campaignColumns = `id, merchant_id, name, merchant_company, description,
	 commission_type, commission_rate, fixed_amount_centimes, influencer_share,
	 status, created_at, updated_at`

type sqlRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &sqlRepository{db: db}
}

func (r *sqlRepository) GetByID(ctx context.Context, id uuid.UUID) (*Campaign, error) {
	c := &Campaign{}
	err := r.db.GetContext(ctx, c,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *sqlRepository) ListActive(ctx context.Context) ([]Campaign, error) {
	var campaigns []Campaign
	err := r.db.SelectContext(ctx, &campaigns,
		`SELECT `+campaignColumns+` FROM campaigns WHERE status = 'active' ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return campaigns, nil
}

func (r *sqlRepository) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]Campaign, error) {
	var campaigns []Campaign
	err := r.db.SelectContext(ctx, &campaigns,
		`SELECT `+campaignColumns+` FROM campaigns WHERE merchant_id = $1 ORDER BY created_at DESC`, merchantID)
	if err != nil {
		return nil, err
	}
	return campaigns, nil
}
