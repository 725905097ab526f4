package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/payflow/internal/usecase"
)

// RegisterRequest represents a request to register an account.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ToUseCaseInput converts to use case input.
func (r *RegisterRequest) ToUseCaseInput() usecase.RegisterInput {
	return usecase.RegisterInput{
		Username: r.Username,
		Email:    r.Email,
		Password: r.Password,
	}
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ToUseCaseInput converts to use case input.
func (r *LoginRequest) ToUseCaseInput() usecase.AuthenticateInput {
	return usecase.AuthenticateInput{
		Username: r.Username,
		Password: r.Password,
	}
}

// CreateTransferRequest represents a request to send money.
type CreateTransferRequest struct {
	ReceiverUsername string          `json:"receiver_username"`
	Amount           decimal.Decimal `json:"amount"`
}

// ToUseCaseInput converts to use case input. The sender is the
// authenticated caller, never part of the request body.
func (r *CreateTransferRequest) ToUseCaseInput(senderID string) usecase.TransferInput {
	return usecase.TransferInput{
		SenderID:         senderID,
		ReceiverUsername: r.ReceiverUsername,
		Amount:           r.Amount,
	}
}
