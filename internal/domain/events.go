package domain

import "time"

// Event types
const (
	EventTypeTransferCompleted = "transfer.completed"
	EventTypeTransferFailed    = "transfer.failed"
	EventTypeAccountRegistered = "account.registered"
)

// Aggregate types
const (
	AggregateTypeTransfer = "transfer"
	AggregateTypeAccount  = "account"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// TransferCompletedEvent payload
type TransferCompletedEvent struct {
	RecordID   int64  `json:"record_id"`
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	Amount     string `json:"amount"`
}

// TransferFailedEvent payload
type TransferFailedEvent struct {
	RecordID int64  `json:"record_id"`
	SenderID string `json:"sender_id"`
	Amount   string `json:"amount"`
	Reason   string `json:"reason"`
}

// AccountRegisteredEvent payload
type AccountRegisteredEvent struct {
	AccountID string `json:"account_id"`
	Username  string `json:"username"`
}
