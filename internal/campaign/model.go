package campaign

import (
	"time"

	"github.com/google/uuid"

	"leadflow/internal/commission"
)

type Status string

const (
	StatusActive Status = "active"
	StatusPaused Status = "paused"
	StatusEnded  Status = "ended"
)

type Campaign struct {
	ID                  uuid.UUID       `db:"id" json:"id"`
	MerchantID          uuid.UUID       `db:"merchant_id" json:"merchant_id"`
	Name                string          `db:"name" json:"name"`
	MerchantCompany     string          `db:"merchant_company" json:"merchant_company"`
	Description         string          `db:"description" json:"description,omitempty"`
	CommissionType      commission.Type `db:"commission_type" json:"commission_type"`
	CommissionRate      float64         `db:"commission_rate" json:"commission_rate"`
	FixedAmountCentimes int64           `db:"fixed_amount_centimes" json:"fixed_amount_centimes"`
	InfluencerShare     float64         `db:"influencer_share" json:"influencer_share"`
	Status              Status          `db:"status" json:"status"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time       `db:"updated_at" json:"updated_at"`
}

// Rule maps the campaign's commission columns onto a computable rule.
func (c *Campaign) Rule() commission.Rule {
	return commission.Rule{
		Type:                c.CommissionType,
		Rate:                c.CommissionRate,
		FixedAmountCentimes: c.FixedAmountCentimes,
		InfluencerShare:     c.InfluencerShare,
	}
}

func (c *Campaign) IsActive() bool {
	return c.Status == StatusActive
}

// Summary is the influencer-facing view of a campaign.
type Summary struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	MerchantCompany string          `json:"merchant_company"`
	CommissionType  commission.Type `json:"commission_type"`
	CommissionRate  float64         `json:"commission_rate"`
}

func (c *Campaign) Summary() Summary {
	return Summary{
		ID:              c.ID,
		Name:            c.Name,
		MerchantCompany: c.MerchantCompany,
		CommissionType:  c.CommissionType,
		CommissionRate:  c.CommissionRate,
	}
}
