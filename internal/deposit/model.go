package deposit

import (
	"time"

	"github.com/google/uuid"

	"leadflow/internal/alert"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusDepleted  Status = "depleted"
)

// Suggested initial amounts, in dhs. Merchants may deposit any amount at or
// above the minimum.
var DepositTiersDhs = []int64{2000, 5000, 10000}

const (
	MinInitialAmountCentimes      int64 = 2000 * 100
	MinRechargeAmountCentimes     int64 = 500 * 100
	MinAutoRechargeAmountCentimes int64 = 1000 * 100
)

// Deposit is a merchant's prepaid budget funding lead commissions. Balances
// change only through ledger operations; the row is never deleted.
type Deposit struct {
	ID                     uuid.UUID  `db:"id" json:"id"`
	MerchantID             uuid.UUID  `db:"merchant_id" json:"merchant_id"`
	CampaignID             *uuid.UUID `db:"campaign_id" json:"campaign_id,omitempty"`
	InitialAmountCentimes  int64      `db:"initial_amount_centimes" json:"initial_amount_centimes"`
	CurrentBalanceCentimes int64      `db:"current_balance_centimes" json:"current_balance_centimes"`
	ReservedAmountCentimes int64      `db:"reserved_amount_centimes" json:"reserved_amount_centimes"`
	Status                 Status     `db:"status" json:"status"`

	AutoRechargeEnabled           bool  `db:"auto_recharge_enabled" json:"auto_recharge_enabled"`
	AutoRechargeAmountCentimes    int64 `db:"auto_recharge_amount_centimes" json:"auto_recharge_amount_centimes"`
	AutoRechargeThresholdCentimes int64 `db:"auto_recharge_threshold_centimes" json:"auto_recharge_threshold_centimes"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (d *Deposit) AvailableCentimes() int64 {
	return d.CurrentBalanceCentimes - d.ReservedAmountCentimes
}

// NeedsAutoRecharge reports whether a configured top-up should be triggered.
// Suspended deposits keep their configuration but are never topped up.
func (d *Deposit) NeedsAutoRecharge() bool {
	return d.AutoRechargeEnabled &&
		d.Status != StatusSuspended &&
		d.AvailableCentimes() < d.AutoRechargeThresholdCentimes
}

func (d *Deposit) Percentage() float64 {
	return alert.Percentage(d.CurrentBalanceCentimes, d.InitialAmountCentimes)
}

type TransactionType string

const (
	TxInitial     TransactionType = "initial"
	TxRecharge    TransactionType = "recharge"
	TxReservation TransactionType = "reservation"
	TxCommit      TransactionType = "commit"
	TxRelease     TransactionType = "release"
	TxAdjustment  TransactionType = "adjustment"
)

// Transaction is one append-only ledger row. reserved_amount on the deposit is
// reproducible from these rows: sum of reservations minus commits and releases.
type Transaction struct {
	ID                    uuid.UUID       `db:"id" json:"id"`
	DepositID             uuid.UUID       `db:"deposit_id" json:"deposit_id"`
	MerchantID            uuid.UUID       `db:"merchant_id" json:"merchant_id"`
	Type                  TransactionType `db:"transaction_type" json:"transaction_type"`
	AmountCentimes        int64           `db:"amount_centimes" json:"amount_centimes"`
	BalanceBeforeCentimes int64           `db:"balance_before_centimes" json:"balance_before_centimes"`
	BalanceAfterCentimes  int64           `db:"balance_after_centimes" json:"balance_after_centimes"`
	Description           string          `db:"description" json:"description"`
	PaymentMethod         *string         `db:"payment_method" json:"payment_method,omitempty"`
	PaymentReference      *string         `db:"payment_reference" json:"payment_reference,omitempty"`
	LeadID                *uuid.UUID      `db:"lead_id" json:"lead_id,omitempty"`
	CreatedAt             time.Time       `db:"created_at" json:"created_at"`
}

// Snapshot is the display view of a deposit. It may be a few seconds stale;
// authoritative checks happen inside the ledger operations.
type Snapshot struct {
	HasDeposit             bool       `json:"has_deposit"`
	DepositID              uuid.UUID  `json:"deposit_id,omitempty"`
	InitialAmountCentimes  int64      `json:"initial_amount_centimes"`
	CurrentBalanceCentimes int64      `json:"current_balance_centimes"`
	ReservedAmountCentimes int64      `json:"reserved_amount_centimes"`
	AvailableCentimes      int64      `json:"available_centimes"`
	Tier                   alert.Tier `json:"tier"`
	Status                 Status     `json:"status,omitempty"`
}

func snapshotOf(d *Deposit) Snapshot {
	return Snapshot{
		HasDeposit:             true,
		DepositID:              d.ID,
		InitialAmountCentimes:  d.InitialAmountCentimes,
		CurrentBalanceCentimes: d.CurrentBalanceCentimes,
		ReservedAmountCentimes: d.ReservedAmountCentimes,
		AvailableCentimes:      d.AvailableCentimes(),
		Tier:                   alert.Classify(d.Percentage()),
		Status:                 d.Status,
	}
}

// Stats aggregates a merchant's deposits and ledger activity.
type Stats struct {
	TotalDeposits          int   `json:"total_deposits"`
	ActiveDeposits         int   `json:"active_deposits"`
	DepletedDeposits       int   `json:"depleted_deposits"`
	TotalDepositedCentimes int64 `json:"total_deposited_centimes"`
	TotalBalanceCentimes   int64 `json:"total_balance_centimes"`
	TotalReservedCentimes  int64 `json:"total_reserved_centimes"`
	TotalAvailableCentimes int64 `json:"total_available_centimes"`
	TotalSpentCentimes     int64 `json:"total_spent_centimes"`
	TotalRechargedCentimes int64 `json:"total_recharged_centimes"`
	TotalTransactions      int   `json:"total_transactions"`
}
