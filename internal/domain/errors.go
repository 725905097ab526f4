package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound     = errors.New("account not found")
	ErrDuplicateUsername   = errors.New("username already exists")
	ErrDuplicateEmail      = errors.New("email already exists")
	ErrInsufficientBalance = errors.New("insufficient balance")

	// Transfer errors
	ErrSelfTransfer     = errors.New("cannot transfer to yourself")
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrReceiverNotFound = errors.New("receiver not found")
	ErrRecordNotFound   = errors.New("transfer record not found")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
)
