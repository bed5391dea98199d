package deposit

import "errors"

var (
	ErrNotFound            = errors.New("deposit not found")
	ErrInsufficientFunds   = errors.New("deposit balance is insufficient")
	ErrSuspended           = errors.New("deposit is suspended")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrReservationNotFound = errors.New("no reservation found for this lead")
	ErrReservationResolved = errors.New("reservation was already committed or released")
	ErrAmountMismatch      = errors.New("amount does not match the reservation")
	ErrBusy                = errors.New("deposit is busy, retry the operation")
)
