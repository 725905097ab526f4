package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransferStatus is the outcome recorded for a transfer attempt.
type TransferStatus string

const (
	StatusSuccess TransferStatus = "SUCCESS"
	StatusFailed  TransferStatus = "FAILED"
)

// Audit record descriptions. These match what callers see in their history.
const (
	DescTransferCompleted   = "Transfer completed"
	DescInsufficientBalance = "Insufficient balance"
)

// DescReceiverNotFound builds the description for a failed lookup of the
// named receiver.
func DescReceiverNotFound(username string) string {
	return fmt.Sprintf("Receiver %s not found", username)
}

// UnknownCounterparty is rendered when a record references an account that
// can no longer be resolved.
const UnknownCounterparty = "Unknown"

// TransferRecord is an immutable audit entry describing one transfer attempt.
// ID is assigned by the store on append; it increases monotonically and is
// the authoritative ordering for history.
type TransferRecord struct {
	ID          int64
	SenderID    string
	ReceiverID  *string // nil only when the receiver could not be resolved
	Amount      decimal.Decimal
	Status      TransferStatus
	Description string
	CreatedAt   time.Time
}

// Validate checks the record invariants before it is appended.
func (r *TransferRecord) Validate() error {
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	// A missing receiver is only legal on the receiver-not-found path.
	if r.ReceiverID == nil && r.Status != StatusFailed {
		return errors.New("success record must reference a receiver")
	}

	return nil
}

// Direction tells which side of a transfer the viewing account was on.
type Direction string

const (
	DirectionSent     Direction = "SENT"
	DirectionReceived Direction = "RECEIVED"
)

// HistoryItem is one row of an account's transaction history as the
// query service renders it.
type HistoryItem struct {
	RecordID     int64
	Direction    Direction
	Counterparty string
	Amount       decimal.Decimal
	Status       TransferStatus
	Description  string
	CreatedAt    time.Time
}
