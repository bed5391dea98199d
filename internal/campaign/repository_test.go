package campaign

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadflow/internal/commission"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func campaignRows(c *Campaign) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "merchant_id", "name", "merchant_company", "description",
		"commission_type", "commission_rate", "fixed_amount_centimes",
		"influencer_share", "status", "created_at", "updated_at",
	}).AddRow(
		c.ID, c.MerchantID, c.Name, c.MerchantCompany, c.Description,
		c.CommissionType, c.CommissionRate, c.FixedAmountCentimes,
		c.InfluencerShare, c.Status, c.CreatedAt, c.UpdatedAt,
	)
}

func sampleCampaign() *Campaign {
	now := time.Now()
	return &Campaign{
		ID:              uuid.New(),
		MerchantID:      uuid.New(),
		Name:            "Summer fitness push",
		MerchantCompany: "FitClub Casablanca",
		CommissionType:  commission.TypePercentage,
		CommissionRate:  10,
		InfluencerShare: 0.5,
		Status:          StatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestRepositoryGetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		camp := sampleCampaign()

		mock.ExpectQuery(regexp.QuoteMeta(`FROM campaigns WHERE id = $1`)).
			WithArgs(camp.ID).
			WillReturnRows(campaignRows(camp))

		got, err := repo.GetByID(context.Background(), camp.ID)
		require.NoError(t, err)
		assert.Equal(t, camp.ID, got.ID)
		assert.True(t, got.IsActive())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		id := uuid.New()

		mock.ExpectQuery(regexp.QuoteMeta(`FROM campaigns WHERE id = $1`)).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.GetByID(context.Background(), id)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepositoryListActive(t *testing.T) {
	repo, mock := newMockRepo(t)
	camp := sampleCampaign()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM campaigns WHERE status = 'active'`)).
		WillReturnRows(campaignRows(camp))

	campaigns, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, campaigns, 1)
	assert.Equal(t, camp.Name, campaigns[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryListByMerchant(t *testing.T) {
	repo, mock := newMockRepo(t)
	camp := sampleCampaign()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM campaigns WHERE merchant_id = $1`)).
		WithArgs(camp.MerchantID).
		WillReturnRows(campaignRows(camp))

	campaigns, err := repo.ListByMerchant(context.Background(), camp.MerchantID)
	require.NoError(t, err)
	require.Len(t, campaigns, 1)
	assert.Equal(t, camp.MerchantID, campaigns[0].MerchantID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRule(t *testing.T) {
	camp := sampleCampaign()
	rule := camp.Rule()
	assert.Equal(t, commission.TypePercentage, rule.Type)
	assert.Equal(t, 10.0, rule.Rate)
	assert.Equal(t, 0.5, rule.InfluencerShare)
}

func TestCampaignSummary(t *testing.T) {
	camp := sampleCampaign()
	s := camp.Summary()
	assert.Equal(t, camp.ID, s.ID)
	assert.Equal(t, "FitClub Casablanca", s.MerchantCompany)
	assert.Equal(t, commission.TypePercentage, s.CommissionType)
}
