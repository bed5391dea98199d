package deposit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const depositColumns = `id, merchant_id, campaign_id, initial_amount_centimes,
	 current_balance_centimes, reserved_amount_centimes, status,
	 auto_recharge_enabled, auto_recharge_amount_centimes, auto_recharge_threshold_centimes,
	 created_at, updated_at`

type sqlRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &sqlRepository{db: db}
}

func (r *sqlRepository) Create(ctx context.Context, dep *Deposit, paymentMethod, paymentReference string) (*Deposit, error) {
	if dep.InitialAmountCentimes < MinInitialAmountCentimes {
		return nil, fmt.Errorf("%w: initial amount below %d centimes", ErrInvalidAmount, MinInitialAmountCentimes)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	created := &Deposit{}
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO deposits (merchant_id, campaign_id, initial_amount_centimes, current_balance_centimes, reserved_amount_centimes, status)
		 VALUES ($1, $2, $3, $3, 0, 'active')
		 RETURNING `+depositColumns,
		dep.MerchantID, dep.CampaignID, dep.InitialAmountCentimes,
	).StructScan(created)
	if err != nil {
		return nil, err
	}

	if err := appendTransaction(ctx, tx, &Transaction{
		DepositID:             created.ID,
		MerchantID:            created.MerchantID,
		Type:                  TxInitial,
		AmountCentimes:        created.InitialAmountCentimes,
		BalanceBeforeCentimes: 0,
		BalanceAfterCentimes:  created.CurrentBalanceCentimes,
		Description:           "Initial deposit",
		PaymentMethod:         nullable(paymentMethod),
		PaymentReference:      nullable(paymentReference),
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return created, nil
}

func (r *sqlRepository) GetByID(ctx context.Context, id uuid.UUID) (*Deposit, error) {
	dep := &Deposit{}
	err := r.db.GetContext(ctx, dep,
		`SELECT `+depositColumns+` FROM deposits WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return dep, nil
}

func (r *sqlRepository) GetLatestActive(ctx context.Context, merchantID uuid.UUID, campaignID *uuid.UUID) (*Deposit, error) {
	dep := &Deposit{}
	var err error
	if campaignID != nil {
		err = r.db.GetContext(ctx, dep,
			`SELECT `+depositColumns+` FROM deposits
			 WHERE merchant_id = $1 AND campaign_id = $2 AND status = 'active'
			 ORDER BY created_at DESC LIMIT 1`, merchantID, *campaignID)
	} else {
		err = r.db.GetContext(ctx, dep,
			`SELECT `+depositColumns+` FROM deposits
			 WHERE merchant_id = $1 AND status = 'active'
			 ORDER BY created_at DESC LIMIT 1`, merchantID)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return dep, nil
}

func (r *sqlRepository) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]Deposit, error) {
	var deps []Deposit
	err := r.db.SelectContext(ctx, &deps,
		`SELECT `+depositColumns+` FROM deposits WHERE merchant_id = $1 ORDER BY created_at DESC`, merchantID)
	if err != nil {
		return nil, err
	}
	return deps, nil
}

func (r *sqlRepository) ListActive(ctx context.Context) ([]Deposit, error) {
	var deps []Deposit
	err := r.db.SelectContext(ctx, &deps,
		`SELECT `+depositColumns+` FROM deposits WHERE status = 'active' ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return deps, nil
}

func (r *sqlRepository) Reserve(ctx context.Context, depositID, leadID uuid.UUID, amountCentimes int64) (*Deposit, error) {
	if amountCentimes <= 0 {
		return nil, ErrInvalidAmount
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	dep, err := lockRow(ctx, tx, depositID)
	if err != nil {
		return nil, err
	}
	if dep.Status == StatusSuspended {
		return nil, ErrSuspended
	}
	if dep.AvailableCentimes() <= 0 || dep.AvailableCentimes() < amountCentimes {
		return nil, ErrInsufficientFunds
	}

	updated, err := updateBalances(ctx, tx, depositID,
		dep.CurrentBalanceCentimes, dep.ReservedAmountCentimes+amountCentimes, dep.Status)
	if err != nil {
		return nil, err
	}

	if err := appendTransaction(ctx, tx, &Transaction{
		DepositID:             depositID,
		MerchantID:            dep.MerchantID,
		Type:                  TxReservation,
		AmountCentimes:        amountCentimes,
		BalanceBeforeCentimes: dep.CurrentBalanceCentimes,
		BalanceAfterCentimes:  dep.CurrentBalanceCentimes,
		Description:           "Commission reserved for lead",
		LeadID:                &leadID,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *sqlRepository) CommitReservation(ctx context.Context, depositID, leadID uuid.UUID, amountCentimes int64) (*Deposit, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	updated, err := CommitInTx(ctx, tx, depositID, leadID, amountCentimes)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *sqlRepository) ReleaseReservation(ctx context.Context, depositID, leadID uuid.UUID, amountCentimes int64) (*Deposit, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	updated, err := ReleaseInTx(ctx, tx, depositID, leadID, amountCentimes)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return updated, nil
}

// CommitInTx permanently deducts a live reservation inside the caller's
// transaction. Callers that also flip a lead's status use this so the status
// change and the ledger mutation land atomically.
func CommitInTx(ctx context.Context, tx *sqlx.Tx, depositID, leadID uuid.UUID, amountCentimes int64) (*Deposit, error) {
	dep, reserved, err := lockLiveReservation(ctx, tx, depositID, leadID, amountCentimes)
	if err != nil {
		return nil, err
	}

	newBalance := dep.CurrentBalanceCentimes - amountCentimes
	newReserved := dep.ReservedAmountCentimes - amountCentimes
	if newReserved < 0 || newBalance < newReserved {
		return nil, fmt.Errorf("ledger out of balance for deposit %s", depositID)
	}

	status := dep.Status
	if newBalance <= 0 {
		status = StatusDepleted
	}

	updated, err := updateBalances(ctx, tx, depositID, newBalance, newReserved, status)
	if err != nil {
		return nil, err
	}

	if err := appendTransaction(ctx, tx, &Transaction{
		DepositID:             depositID,
		MerchantID:            dep.MerchantID,
		Type:                  TxCommit,
		AmountCentimes:        reserved,
		BalanceBeforeCentimes: dep.CurrentBalanceCentimes,
		BalanceAfterCentimes:  newBalance,
		Description:           "Commission committed on lead validation",
		LeadID:                &leadID,
	}); err != nil {
		return nil, err
	}

	return updated, nil
}

// ReleaseInTx returns a live reservation to the available balance inside the
// caller's transaction. The current balance does not move.
func ReleaseInTx(ctx context.Context, tx *sqlx.Tx, depositID, leadID uuid.UUID, amountCentimes int64) (*Deposit, error) {
	dep, reserved, err := lockLiveReservation(ctx, tx, depositID, leadID, amountCentimes)
	if err != nil {
		return nil, err
	}

	newReserved := dep.ReservedAmountCentimes - amountCentimes
	if newReserved < 0 {
		return nil, fmt.Errorf("ledger out of balance for deposit %s", depositID)
	}

	updated, err := updateBalances(ctx, tx, depositID, dep.CurrentBalanceCentimes, newReserved, dep.Status)
	if err != nil {
		return nil, err
	}

	if err := appendTransaction(ctx, tx, &Transaction{
		DepositID:             depositID,
		MerchantID:            dep.MerchantID,
		Type:                  TxRelease,
		AmountCentimes:        reserved,
		BalanceBeforeCentimes: dep.CurrentBalanceCentimes,
		BalanceAfterCentimes:  dep.CurrentBalanceCentimes,
		Description:           "Reservation released on lead rejection",
		LeadID:                &leadID,
	}); err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *sqlRepository) Recharge(ctx context.Context, depositID uuid.UUID, amountCentimes int64, paymentMethod, paymentReference string) (*Deposit, error) {
	if amountCentimes <= 0 {
		return nil, ErrInvalidAmount
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	dep, err := lockRow(ctx, tx, depositID)
	if err != nil {
		return nil, err
	}

	newBalance := dep.CurrentBalanceCentimes + amountCentimes
	// recharge reactivates a depleted deposit
	status := dep.Status
	if status == StatusDepleted {
		status = StatusActive
	}

	updated, err := updateBalances(ctx, tx, depositID, newBalance, dep.ReservedAmountCentimes, status)
	if err != nil {
		return nil, err
	}

	if err := appendTransaction(ctx, tx, &Transaction{
		DepositID:             depositID,
		MerchantID:            dep.MerchantID,
		Type:                  TxRecharge,
		AmountCentimes:        amountCentimes,
		BalanceBeforeCentimes: dep.CurrentBalanceCentimes,
		BalanceAfterCentimes:  newBalance,
		Description:           fmt.Sprintf("Deposit recharged via %s", paymentMethod),
		PaymentMethod:         nullable(paymentMethod),
		PaymentReference:      nullable(paymentReference),
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *sqlRepository) Suspend(ctx context.Context, depositID, merchantID uuid.UUID, reason string) (*Deposit, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	dep, err := lockRow(ctx, tx, depositID)
	if err != nil {
		return nil, err
	}
	if dep.MerchantID != merchantID {
		return nil, ErrNotFound
	}

	updated, err := updateBalances(ctx, tx, depositID,
		dep.CurrentBalanceCentimes, dep.ReservedAmountCentimes, StatusSuspended)
	if err != nil {
		return nil, err
	}

	if reason == "" {
		reason = "no reason given"
	}
	if err := appendTransaction(ctx, tx, &Transaction{
		DepositID:             depositID,
		MerchantID:            dep.MerchantID,
		Type:                  TxAdjustment,
		AmountCentimes:        0,
		BalanceBeforeCentimes: dep.CurrentBalanceCentimes,
		BalanceAfterCentimes:  dep.CurrentBalanceCentimes,
		Description:           fmt.Sprintf("Deposit suspended: %s", reason),
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *sqlRepository) ConfigureAutoRecharge(ctx context.Context, depositID, merchantID uuid.UUID, enabled bool, amountCentimes, thresholdCentimes int64) (*Deposit, error) {
	updated := &Deposit{}
	err := r.db.QueryRowxContext(ctx,
		`UPDATE deposits
		 SET auto_recharge_enabled = $1, auto_recharge_amount_centimes = $2,
		     auto_recharge_threshold_centimes = $3, updated_at = NOW()
		 WHERE id = $4 AND merchant_id = $5
		 RETURNING `+depositColumns,
		enabled, amountCentimes, thresholdCentimes, depositID, merchantID,
	).StructScan(updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *sqlRepository) Transactions(ctx context.Context, depositID uuid.UUID, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 100
	}

	var txs []Transaction
	err := r.db.SelectContext(ctx, &txs, `
		SELECT id, deposit_id, merchant_id, transaction_type, amount_centimes,
		       balance_before_centimes, balance_after_centimes, description,
		       payment_method, payment_reference, lead_id, created_at
		FROM deposit_transactions
		WHERE deposit_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, depositID, limit)
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// ReplayReserved recomputes the reserved amount from the transaction log.
// Audit tool: the result must always equal deposits.reserved_amount_centimes.
func (r *sqlRepository) ReplayReserved(ctx context.Context, depositID uuid.UUID) (int64, error) {
	var reserved int64
	err := r.db.GetContext(ctx, &reserved, `
		SELECT COALESCE(SUM(CASE transaction_type
			WHEN 'reservation' THEN amount_centimes
			WHEN 'commit' THEN -amount_centimes
			WHEN 'release' THEN -amount_centimes
			ELSE 0 END), 0)
		FROM deposit_transactions
		WHERE deposit_id = $1
	`, depositID)
	if err != nil {
		return 0, err
	}
	return reserved, nil
}

func (r *sqlRepository) Stats(ctx context.Context, merchantID uuid.UUID) (*Stats, error) {
	stats := &Stats{}
	err := r.db.GetContext(ctx, stats, `
		SELECT COUNT(*) AS total_deposits,
		       COUNT(*) FILTER (WHERE status = 'active') AS active_deposits,
		       COUNT(*) FILTER (WHERE status = 'depleted') AS depleted_deposits,
		       COALESCE(SUM(initial_amount_centimes), 0) AS total_deposited_centimes,
		       COALESCE(SUM(current_balance_centimes) FILTER (WHERE status = 'active'), 0) AS total_balance_centimes,
		       COALESCE(SUM(reserved_amount_centimes) FILTER (WHERE status = 'active'), 0) AS total_reserved_centimes
		FROM deposits
		WHERE merchant_id = $1
	`, merchantID)
	if err != nil {
		return nil, err
	}
	stats.TotalAvailableCentimes = stats.TotalBalanceCentimes - stats.TotalReservedCentimes

	err = r.db.QueryRowxContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(amount_centimes) FILTER (WHERE transaction_type = 'commit'), 0),
		       COALESCE(SUM(amount_centimes) FILTER (WHERE transaction_type = 'recharge'), 0)
		FROM deposit_transactions
		WHERE merchant_id = $1
	`, merchantID).Scan(&stats.TotalTransactions, &stats.TotalSpentCentimes, &stats.TotalRechargedCentimes)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func lockRow(ctx context.Context, tx *sqlx.Tx, depositID uuid.UUID) (*Deposit, error) {
	dep := &Deposit{}
	err := tx.QueryRowxContext(ctx,
		`SELECT `+depositColumns+` FROM deposits WHERE id = $1 FOR UPDATE`,
		depositID,
	).StructScan(dep)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return dep, nil
}

// lockLiveReservation locks the deposit row and verifies that the reservation
// for leadID is live: a reservation row exists and no commit/release row does.
// This is the exactly-once guard for commit and release.
func lockLiveReservation(ctx context.Context, tx *sqlx.Tx, depositID, leadID uuid.UUID, amountCentimes int64) (*Deposit, int64, error) {
	dep, err := lockRow(ctx, tx, depositID)
	if err != nil {
		return nil, 0, err
	}

	var reserved int64
	err = tx.QueryRowxContext(ctx,
		`SELECT amount_centimes FROM deposit_transactions
		 WHERE deposit_id = $1 AND lead_id = $2 AND transaction_type = 'reservation'`,
		depositID, leadID,
	).Scan(&reserved)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, ErrReservationNotFound
	}
	if err != nil {
		return nil, 0, err
	}

	var resolved bool
	err = tx.QueryRowxContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM deposit_transactions
		 WHERE deposit_id = $1 AND lead_id = $2 AND transaction_type IN ('commit', 'release'))`,
		depositID, leadID,
	).Scan(&resolved)
	if err != nil {
		return nil, 0, err
	}
	if resolved {
		return nil, 0, ErrReservationResolved
	}

	if amountCentimes != reserved {
		return nil, 0, ErrAmountMismatch
	}

	return dep, reserved, nil
}

func updateBalances(ctx context.Context, tx *sqlx.Tx, depositID uuid.UUID, balanceCentimes, reservedCentimes int64, status Status) (*Deposit, error) {
	dep := &Deposit{}
	err := tx.QueryRowxContext(ctx,
		`UPDATE deposits
		 SET current_balance_centimes = $1, reserved_amount_centimes = $2, status = $3, updated_at = NOW()
		 WHERE id = $4
		 RETURNING `+depositColumns,
		balanceCentimes, reservedCentimes, status, depositID,
	).StructScan(dep)
	if err != nil {
		return nil, err
	}
	return dep, nil
}

func appendTransaction(ctx context.Context, tx *sqlx.Tx, t *Transaction) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO deposit_transactions (deposit_id, merchant_id, transaction_type, amount_centimes,
		  balance_before_centimes, balance_after_centimes, description, payment_method, payment_reference, lead_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.DepositID, t.MerchantID, t.Type, t.AmountCentimes,
		t.BalanceBeforeCentimes, t.BalanceAfterCentimes, t.Description,
		t.PaymentMethod, t.PaymentReference, t.LeadID,
	)
	return err
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
