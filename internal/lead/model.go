package lead

import (
	"time"

	"github.com/google/uuid"

	"leadflow/internal/commission"
)

// Status is the lead's lifecycle state. PENDING is the only initial state;
// VALIDATED and REJECTED are terminal and are never left once reached.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusValidated Status = "VALIDATED"
	StatusRejected  Status = "REJECTED"
)

// CanResolve reports whether a transition to a terminal state is allowed.
func (s Status) CanResolve() bool {
	return s == StatusPending
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusValidated, StatusRejected:
		return true
	}
	return false
}

type Source string

const (
	SourceInstagram Source = "instagram"
	SourceTikTok    Source = "tiktok"
	SourceWhatsApp  Source = "whatsapp"
	SourceDirect    Source = "direct"
)

type Lead struct {
	ID                           uuid.UUID       `db:"id" json:"id"`
	CampaignID                   uuid.UUID       `db:"campaign_id" json:"campaign_id"`
	MerchantID                   uuid.UUID       `db:"merchant_id" json:"merchant_id"`
	InfluencerID                 uuid.UUID       `db:"influencer_id" json:"influencer_id"`
	DepositID                    uuid.UUID       `db:"deposit_id" json:"deposit_id"`
	CustomerName                 string          `db:"customer_name" json:"customer_name"`
	CustomerEmail                string          `db:"customer_email" json:"customer_email"`
	CustomerPhone                string          `db:"customer_phone" json:"customer_phone"`
	CustomerCompany              *string         `db:"customer_company" json:"customer_company,omitempty"`
	CustomerNotes                *string         `db:"customer_notes" json:"customer_notes,omitempty"`
	EstimatedValueCentimes       int64           `db:"estimated_value_centimes" json:"estimated_value_centimes"`
	CommissionType               commission.Type `db:"commission_type" json:"commission_type"`
	CommissionCentimes           int64           `db:"commission_centimes" json:"commission_centimes"`
	InfluencerCommissionCentimes int64           `db:"influencer_commission_centimes" json:"influencer_commission_centimes"`
	ReservedAmountCentimes       int64           `db:"reserved_amount_centimes" json:"reserved_amount_centimes"`
	Source                       Source          `db:"source" json:"source"`
	Status                       Status          `db:"status" json:"status"`
	QualityScore                 *int            `db:"quality_score" json:"quality_score,omitempty"`
	Feedback                     *string         `db:"feedback" json:"feedback,omitempty"`
	RejectionReason              *string         `db:"rejection_reason" json:"rejection_reason,omitempty"`
	ResolvedAt                   *time.Time      `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt                    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt                    time.Time       `db:"updated_at" json:"updated_at"`
}

type CreateLeadRequest struct {
	CampaignID             uuid.UUID `json:"campaign_id" binding:"required"`
	CustomerName           string    `json:"customer_name" binding:"required,min=3"`
	CustomerEmail          string    `json:"customer_email" binding:"required,email"`
	CustomerPhone          string    `json:"customer_phone" binding:"required,ma_phone"`
	CustomerCompany        string    `json:"customer_company"`
	CustomerNotes          string    `json:"customer_notes"`
	EstimatedValueCentimes int64     `json:"estimated_value_centimes" binding:"required"`
	Source                 Source    `json:"source" binding:"required,oneof=instagram tiktok whatsapp direct"`
}

type PreviewRequest struct {
	CampaignID             uuid.UUID `json:"campaign_id" binding:"required"`
	EstimatedValueCentimes int64     `json:"estimated_value_centimes" binding:"required"`
}

// PreviewResponse is advisory: DepositAvailable may be stale relative to the
// authoritative check inside lead creation.
type PreviewResponse struct {
	CommissionCentimes           int64           `json:"commission_centimes"`
	InfluencerCommissionCentimes int64           `json:"influencer_commission_centimes"`
	CommissionType               commission.Type `json:"commission_type"`
	DepositAvailable             bool            `json:"deposit_available"`
}

type ValidateRequest struct {
	QualityScore int    `json:"quality_score" binding:"required,min=1,max=10"`
	Feedback     string `json:"feedback"`
}

type RejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ListFilter narrows the merchant's lead listing.
type ListFilter struct {
	Status     *Status
	CampaignID *uuid.UUID
	Source     *Source
	From       *time.Time
	To         *time.Time
	Limit      int
}
