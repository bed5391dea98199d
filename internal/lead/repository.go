package lead

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"leadflow/internal/deposit"
)

var (
	ErrNotFound        = errors.New("lead not found")
	ErrAlreadyResolved = errors.New("lead already resolved")
)

const leadColumns = `id, campaign_id, merchant_id, influencer_id, deposit_id,
	 customer_name, customer_email, customer_phone, customer_company, customer_notes,
	 estimated_value_centimes, commission_type, commission_centimes,
	 influencer_commission_centimes, reserved_amount_centimes, source, status,
	 quality_score, feedback, rejection_reason, resolved_at, created_at, updated_at`

type sqlRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &sqlRepository{db: db}
}

func (r *sqlRepository) Create(ctx context.Context, l *Lead) (*Lead, error) {
	created := &Lead{}
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO leads (id, campaign_id, merchant_id, influencer_id, deposit_id,
		   customer_name, customer_email, customer_phone, customer_company, customer_notes,
		   estimated_value_centimes, commission_type, commission_centimes,
		   influencer_commission_centimes, reserved_amount_centimes, source, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, 'PENDING')
		 RETURNING `+leadColumns,
		l.ID, l.CampaignID, l.MerchantID, l.InfluencerID, l.DepositID,
		l.CustomerName, l.CustomerEmail, l.CustomerPhone, l.CustomerCompany, l.CustomerNotes,
		l.EstimatedValueCentimes, l.CommissionType, l.CommissionCentimes,
		l.InfluencerCommissionCentimes, l.ReservedAmountCentimes, l.Source,
	).StructScan(created)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *sqlRepository) GetByID(ctx context.Context, id uuid.UUID) (*Lead, error) {
	l := &Lead{}
	err := r.db.GetContext(ctx, l,
		`SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *sqlRepository) ListByMerchant(ctx context.Context, merchantID uuid.UUID, filter ListFilter) ([]Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE merchant_id = $1`
	args := []interface{}{merchantID}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	if filter.CampaignID != nil {
		args = append(args, *filter.CampaignID)
		query += ` AND campaign_id = $` + strconv.Itoa(len(args))
	}
	if filter.Source != nil {
		args = append(args, *filter.Source)
		query += ` AND source = $` + strconv.Itoa(len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += ` AND created_at >= $` + strconv.Itoa(len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += ` AND created_at <= $` + strconv.Itoa(len(args))
	}

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit)
	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args))

	var leads []Lead
	if err := r.db.SelectContext(ctx, &leads, query, args...); err != nil {
		return nil, err
	}
	return leads, nil
}

func (r *sqlRepository) ListByInfluencer(ctx context.Context, influencerID uuid.UUID, limit int) ([]Lead, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var leads []Lead
	err := r.db.SelectContext(ctx, &leads,
		`SELECT `+leadColumns+` FROM leads WHERE influencer_id = $1 ORDER BY created_at DESC LIMIT $2`,
		influencerID, limit)
	if err != nil {
		return nil, err
	}
	return leads, nil
}

// ResolveValidate commits the lead's reservation and flips PENDING to
// VALIDATED in one transaction. If another resolve won the race, the row lock
// plus status check surfaces ErrAlreadyResolved and nothing is applied.
func (r *sqlRepository) ResolveValidate(ctx context.Context, leadID uuid.UUID, qualityScore int, feedback string) (*Lead, error) {
	return r.resolve(ctx, leadID, func(ctx context.Context, tx *sqlx.Tx, l *Lead) (*Lead, error) {
		if _, err := deposit.CommitInTx(ctx, tx, l.DepositID, l.ID, l.ReservedAmountCentimes); err != nil {
			return nil, err
		}

		updated := &Lead{}
		err := tx.QueryRowxContext(ctx,
			`UPDATE leads
			 SET status = 'VALIDATED', quality_score = $1, feedback = $2,
			     resolved_at = NOW(), updated_at = NOW()
			 WHERE id = $3 AND status = 'PENDING'
			 RETURNING `+leadColumns,
			qualityScore, nullable(feedback), l.ID,
		).StructScan(updated)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAlreadyResolved
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	})
}

// ResolveReject releases the lead's reservation and flips PENDING to REJECTED
// in one transaction.
func (r *sqlRepository) ResolveReject(ctx context.Context, leadID uuid.UUID, reason string) (*Lead, error) {
	return r.resolve(ctx, leadID, func(ctx context.Context, tx *sqlx.Tx, l *Lead) (*Lead, error) {
		if _, err := deposit.ReleaseInTx(ctx, tx, l.DepositID, l.ID, l.ReservedAmountCentimes); err != nil {
			return nil, err
		}

		updated := &Lead{}
		err := tx.QueryRowxContext(ctx,
			`UPDATE leads
			 SET status = 'REJECTED', rejection_reason = $1,
			     resolved_at = NOW(), updated_at = NOW()
			 WHERE id = $2 AND status = 'PENDING'
			 RETURNING `+leadColumns,
			nullable(reason), l.ID,
		).StructScan(updated)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAlreadyResolved
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	})
}

func (r *sqlRepository) resolve(ctx context.Context, leadID uuid.UUID, apply func(context.Context, *sqlx.Tx, *Lead) (*Lead, error)) (*Lead, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Lock the lead row first so concurrent resolves serialize here, before
	// any ledger work happens.
	l := &Lead{}
	err = tx.QueryRowxContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = $1 FOR UPDATE`, leadID,
	).StructScan(l)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if !l.Status.CanResolve() {
		return nil, fmt.Errorf("%w: status is %s", ErrAlreadyResolved, l.Status)
	}

	updated, err := apply(ctx, tx, l)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return updated, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
