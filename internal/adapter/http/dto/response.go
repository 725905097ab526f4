package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/payflow/internal/domain"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID        string          `json:"id"`
	Username  string          `json:"username"`
	Email     string          `json:"email"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		Username:  a.Username,
		Email:     a.Email,
		Balance:   a.Balance,
		CreatedAt: a.CreatedAt,
	}
}

// TokenResponse carries the bearer token issued on login.
type TokenResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	Account   *AccountResponse `json:"account"`
}

// BalanceResponse represents a balance read.
type BalanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

// TransferResponse represents the result of a transfer in API responses.
type TransferResponse struct {
	RecordID   int64           `json:"record_id"`
	NewBalance decimal.Decimal `json:"new_balance"`
}

// HistoryItemResponse represents one transaction in a history read.
type HistoryItemResponse struct {
	RecordID     int64           `json:"record_id"`
	Direction    string          `json:"direction"`
	Counterparty string          `json:"counterparty"`
	Amount       decimal.Decimal `json:"amount"`
	Status       string          `json:"status"`
	Description  string          `json:"description"`
	CreatedAt    time.Time       `json:"created_at"`
}

// HistoryFromDomain converts history items to responses.
func HistoryFromDomain(items []*domain.HistoryItem) []*HistoryItemResponse {
	result := make([]*HistoryItemResponse, len(items))
	for i, item := range items {
		result[i] = &HistoryItemResponse{
			RecordID:     item.RecordID,
			Direction:    string(item.Direction),
			Counterparty: item.Counterparty,
			Amount:       item.Amount,
			Status:       string(item.Status),
			Description:  item.Description,
			CreatedAt:    item.CreatedAt,
		}
	}
	return result
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
