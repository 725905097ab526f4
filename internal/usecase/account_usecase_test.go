package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/payflow/internal/domain"
	"github.com/iho/payflow/internal/usecase"
	"github.com/iho/payflow/internal/usecase/mocks"
)

func newAccountFixture() (*usecase.AccountUseCase, *mocks.MockAccountRepository, *mocks.MockOutboxRepository) {
	accRepo := mocks.NewMockAccountRepository()
	outboxRepo := mocks.NewMockOutboxRepository()

	uc := usecase.NewAccountUseCase(
		mocks.NewMockTransactionManager(),
		accRepo,
		outboxRepo,
		mocks.NewMockIDGenerator(),
	)

	return uc, accRepo, outboxRepo
}

func TestAccountUseCase_Register(t *testing.T) {
	t.Run("creates account with starting balance", func(t *testing.T) {
		uc, accRepo, outboxRepo := newAccountFixture()

		account, err := uc.Register(context.Background(), usecase.RegisterInput{
			Username: "alice",
			Email:    "alice@example.com",
			Password: "correct-horse-battery",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !account.Balance.Equal(decimal.NewFromInt(1000)) {
			t.Errorf("expected starting balance 1000, got %s", account.Balance)
		}

		if account.HashedPassword != "" {
			t.Error("credential hash leaked in register response")
		}

		stored, err := accRepo.GetByUsername(context.Background(), "alice")
		if err != nil {
			t.Fatalf("account not persisted: %v", err)
		}
		if stored.HashedPassword == "" || stored.HashedPassword == "correct-horse-battery" {
			t.Error("stored password must be hashed")
		}

		events := outboxRepo.Events()
		if len(events) != 1 || events[0].EventType != domain.EventTypeAccountRegistered {
			t.Errorf("expected one account.registered event, got %v", events)
		}
	})

	t.Run("rejects duplicate username", func(t *testing.T) {
		uc, _, _ := newAccountFixture()

		input := usecase.RegisterInput{
			Username: "alice",
			Email:    "alice@example.com",
			Password: "correct-horse-battery",
		}

		if _, err := uc.Register(context.Background(), input); err != nil {
			t.Fatalf("first registration failed: %v", err)
		}

		input.Email = "other@example.com"
		_, err := uc.Register(context.Background(), input)
		if !errors.Is(err, domain.ErrDuplicateUsername) {
			t.Errorf("expected ErrDuplicateUsername, got %v", err)
		}
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		uc, _, _ := newAccountFixture()

		input := usecase.RegisterInput{
			Username: "alice",
			Email:    "alice@example.com",
			Password: "correct-horse-battery",
		}

		if _, err := uc.Register(context.Background(), input); err != nil {
			t.Fatalf("first registration failed: %v", err)
		}

		input.Username = "alice2"
		_, err := uc.Register(context.Background(), input)
		if !errors.Is(err, domain.ErrDuplicateEmail) {
			t.Errorf("expected ErrDuplicateEmail, got %v", err)
		}
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		uc, _, _ := newAccountFixture()

		tests := []struct {
			name  string
			input usecase.RegisterInput
		}{
			{"short username", usecase.RegisterInput{Username: "ab", Email: "a@example.com", Password: "longenough1"}},
			{"bad email", usecase.RegisterInput{Username: "alice", Email: "not-an-email", Password: "longenough1"}},
			{"weak password", usecase.RegisterInput{Username: "alice", Email: "a@example.com", Password: "short"}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if _, err := uc.Register(context.Background(), tt.input); err == nil {
					t.Error("expected error, got nil")
				}
			})
		}
	})
}

func TestAccountUseCase_Authenticate(t *testing.T) {
	uc, _, _ := newAccountFixture()

	_, err := uc.Register(context.Background(), usecase.RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct-horse-battery",
	})
	if err != nil {
		t.Fatalf("registration failed: %v", err)
	}

	t.Run("valid credentials", func(t *testing.T) {
		account, err := uc.Authenticate(context.Background(), usecase.AuthenticateInput{
			Username: "alice",
			Password: "correct-horse-battery",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if account.Username != "alice" {
			t.Errorf("expected alice, got %s", account.Username)
		}
		if account.HashedPassword != "" {
			t.Error("credential hash leaked in authenticate response")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := uc.Authenticate(context.Background(), usecase.AuthenticateInput{
			Username: "alice",
			Password: "wrong-password-1",
		})
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := uc.Authenticate(context.Background(), usecase.AuthenticateInput{
			Username: "nobody",
			Password: "whatever-it-is",
		})
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}
