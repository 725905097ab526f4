package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/payflow/internal/domain"
	"github.com/iho/payflow/internal/usecase"
	"github.com/iho/payflow/internal/usecase/mocks"
)

func newTransferFixture() (*usecase.TransferUseCase, *mocks.MockAccountRepository, *mocks.MockAuditRepository, *mocks.MockOutboxRepository) {
	accRepo := mocks.NewMockAccountRepository()
	auditRepo := mocks.NewMockAuditRepository()
	outboxRepo := mocks.NewMockOutboxRepository()
	txMgr := mocks.NewMockTransactionManager()
	idGen := mocks.NewMockIDGenerator()
	retrier := mocks.NewMockRetrier()

	uc := usecase.NewTransferUseCase(txMgr, accRepo, auditRepo, outboxRepo, idGen, retrier)

	return uc, accRepo, auditRepo, outboxRepo
}

func seedAccount(t *testing.T, repo *mocks.MockAccountRepository, id, username string, balance int64) *domain.Account {
	t.Helper()

	account := &domain.Account{
		ID:        id,
		Username:  username,
		Email:     username + "@example.com",
		Balance:   decimal.NewFromInt(balance),
		CreatedAt: time.Now().UTC(),
	}

	if err := repo.Create(context.Background(), nil, account); err != nil {
		t.Fatalf("failed to seed account: %v", err)
	}

	return account
}

func TestTransferUseCase_Transfer(t *testing.T) {
	t.Run("successful transfer", func(t *testing.T) {
		uc, accRepo, auditRepo, outboxRepo := newTransferFixture()
		seedAccount(t, accRepo, "acc-1", "alice", 1000)
		seedAccount(t, accRepo, "acc-2", "bob", 1000)

		result, err := uc.Transfer(context.Background(), usecase.TransferInput{
			SenderID:         "acc-1",
			ReceiverUsername: "bob",
			Amount:           decimal.NewFromInt(200),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !result.NewBalance.Equal(decimal.NewFromInt(800)) {
			t.Errorf("expected sender balance 800, got %s", result.NewBalance)
		}

		sender, _ := accRepo.GetByID(context.Background(), "acc-1")
		receiver, _ := accRepo.GetByID(context.Background(), "acc-2")

		if !sender.Balance.Equal(decimal.NewFromInt(800)) {
			t.Errorf("expected sender balance 800, got %s", sender.Balance)
		}
		if !receiver.Balance.Equal(decimal.NewFromInt(1200)) {
			t.Errorf("expected receiver balance 1200, got %s", receiver.Balance)
		}

		records := auditRepo.Records()
		if len(records) != 1 {
			t.Fatalf("expected exactly one audit record, got %d", len(records))
		}
		if records[0].Status != domain.StatusSuccess {
			t.Errorf("expected SUCCESS record, got %s", records[0].Status)
		}
		if records[0].Description != domain.DescTransferCompleted {
			t.Errorf("unexpected description %q", records[0].Description)
		}
		if records[0].ID != result.RecordID {
			t.Errorf("result record id %d does not match record %d", result.RecordID, records[0].ID)
		}

		events := outboxRepo.Events()
		if len(events) != 1 || events[0].EventType != domain.EventTypeTransferCompleted {
			t.Errorf("expected one transfer.completed outbox event, got %v", events)
		}
	})

	t.Run("conservation across a transfer", func(t *testing.T) {
		uc, accRepo, _, _ := newTransferFixture()
		seedAccount(t, accRepo, "acc-1", "alice", 700)
		seedAccount(t, accRepo, "acc-2", "bob", 300)

		_, err := uc.Transfer(context.Background(), usecase.TransferInput{
			SenderID:         "acc-1",
			ReceiverUsername: "bob",
			Amount:           decimal.NewFromInt(150),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		sender, _ := accRepo.GetByID(context.Background(), "acc-1")
		receiver, _ := accRepo.GetByID(context.Background(), "acc-2")

		total := sender.Balance.Add(receiver.Balance)
		if !total.Equal(decimal.NewFromInt(1000)) {
			t.Errorf("transfer did not conserve funds: total %s", total)
		}
	})

	t.Run("invalid amount rejected without audit record", func(t *testing.T) {
		uc, accRepo, auditRepo, _ := newTransferFixture()
		seedAccount(t, accRepo, "acc-1", "alice", 1000)
		seedAccount(t, accRepo, "acc-2", "bob", 1000)

		for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-50)} {
			_, err := uc.Transfer(context.Background(), usecase.TransferInput{
				SenderID:         "acc-1",
				ReceiverUsername: "bob",
				Amount:           amount,
			})
			if !errors.Is(err, domain.ErrInvalidAmount) {
				t.Errorf("amount %s: expected ErrInvalidAmount, got %v", amount, err)
			}
		}

		if got := len(auditRepo.Records()); got != 0 {
			t.Errorf("expected no audit records, got %d", got)
		}
	})

	t.Run("receiver not found is a recorded failure", func(t *testing.T) {
		uc, accRepo, auditRepo, _ := newTransferFixture()
		seedAccount(t, accRepo, "acc-1", "alice", 1000)

		_, err := uc.Transfer(context.Background(), usecase.TransferInput{
			SenderID:         "acc-1",
			ReceiverUsername: "ghost",
			Amount:           decimal.NewFromInt(50),
		})
		if !errors.Is(err, domain.ErrReceiverNotFound) {
			t.Fatalf("expected ErrReceiverNotFound, got %v", err)
		}

		records := auditRepo.Records()
		if len(records) != 1 {
			t.Fatalf("expected exactly one audit record, got %d", len(records))
		}
		if records[0].Status != domain.StatusFailed {
			t.Errorf("expected FAILED record, got %s", records[0].Status)
		}
		if records[0].ReceiverID != nil {
			t.Errorf("expected nil receiver on not-found record, got %v", *records[0].ReceiverID)
		}
		if records[0].Description != "Receiver ghost not found" {
			t.Errorf("unexpected description %q", records[0].Description)
		}

		sender, _ := accRepo.GetByID(context.Background(), "acc-1")
		if !sender.Balance.Equal(decimal.NewFromInt(1000)) {
			t.Errorf("sender balance changed on failed transfer: %s", sender.Balance)
		}
	})

	t.Run("self transfer rejected without audit record", func(t *testing.T) {
		// Documented quirk: every other rejection past amount validation
		// leaves a FAILED record, this one leaves none.
		uc, accRepo, auditRepo, _ := newTransferFixture()
		seedAccount(t, accRepo, "acc-1", "alice", 1000)

		_, err := uc.Transfer(context.Background(), usecase.TransferInput{
			SenderID:         "acc-1",
			ReceiverUsername: "alice",
			Amount:           decimal.NewFromInt(50),
		})
		if !errors.Is(err, domain.ErrSelfTransfer) {
			t.Fatalf("expected ErrSelfTransfer, got %v", err)
		}

		if got := len(auditRepo.Records()); got != 0 {
			t.Errorf("expected no audit records for self transfer, got %d", got)
		}

		sender, _ := accRepo.GetByID(context.Background(), "acc-1")
		if !sender.Balance.Equal(decimal.NewFromInt(1000)) {
			t.Errorf("sender balance changed on self transfer: %s", sender.Balance)
		}
	})

	t.Run("insufficient balance is a recorded failure", func(t *testing.T) {
		uc, accRepo, auditRepo, _ := newTransferFixture()
		seedAccount(t, accRepo, "acc-1", "alice", 100)
		seedAccount(t, accRepo, "acc-2", "bob", 1000)

		_, err := uc.Transfer(context.Background(), usecase.TransferInput{
			SenderID:         "acc-1",
			ReceiverUsername: "bob",
			Amount:           decimal.NewFromInt(10000),
		})
		if !errors.Is(err, domain.ErrInsufficientBalance) {
			t.Fatalf("expected ErrInsufficientBalance, got %v", err)
		}

		records := auditRepo.Records()
		if len(records) != 1 {
			t.Fatalf("expected exactly one audit record, got %d", len(records))
		}
		if records[0].Status != domain.StatusFailed {
			t.Errorf("expected FAILED record, got %s", records[0].Status)
		}
		if records[0].Description != domain.DescInsufficientBalance {
			t.Errorf("unexpected description %q", records[0].Description)
		}
		if records[0].ReceiverID == nil || *records[0].ReceiverID != "acc-2" {
			t.Error("insufficient-balance record must reference the resolved receiver")
		}

		sender, _ := accRepo.GetByID(context.Background(), "acc-1")
		receiver, _ := accRepo.GetByID(context.Background(), "acc-2")
		if !sender.Balance.Equal(decimal.NewFromInt(100)) || !receiver.Balance.Equal(decimal.NewFromInt(1000)) {
			t.Error("balances changed on insufficient-balance failure")
		}
	})

	t.Run("storage fault surfaces instead of a fake success", func(t *testing.T) {
		uc, accRepo, _, outboxRepo := newTransferFixture()
		seedAccount(t, accRepo, "acc-1", "alice", 1000)
		seedAccount(t, accRepo, "acc-2", "bob", 1000)

		storeErr := errors.New("connection reset")
		outboxRepo.CreateFunc = func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
			return storeErr
		}

		_, err := uc.Transfer(context.Background(), usecase.TransferInput{
			SenderID:         "acc-1",
			ReceiverUsername: "bob",
			Amount:           decimal.NewFromInt(200),
		})
		if !errors.Is(err, storeErr) {
			t.Fatalf("expected storage error to surface, got %v", err)
		}
		// The mock repos are not transactional, so rollback of partial
		// writes is asserted by the integration suite, not here.
	})
}

func TestTransferUseCase_RetriesTransientFailures(t *testing.T) {
	accRepo := mocks.NewMockAccountRepository()
	auditRepo := mocks.NewMockAuditRepository()

	seedAccount(t, accRepo, "acc-1", "alice", 1000)
	seedAccount(t, accRepo, "acc-2", "bob", 1000)

	attempts := 0
	transient := errors.New("deadlock detected")

	// Fail the first lock acquisition, then fall back to the default path.
	accRepo.GetByIDsForUpdateFunc = func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
		attempts++
		if attempts == 1 {
			return nil, transient
		}
		accRepo.GetByIDsForUpdateFunc = nil
		return accRepo.GetByIDsForUpdate(ctx, tx, ids)
	}

	// Retrier that retries once on the transient error, standing in for
	// the backoff-based one which only fires on Postgres conflict codes.
	retrier := mocks.NewMockRetrier()
	retrier.RetryFunc = func(ctx context.Context, operation func() error) error {
		err := operation()
		if err != nil && errors.Is(err, transient) {
			return operation()
		}
		return err
	}

	uc := usecase.NewTransferUseCase(
		mocks.NewMockTransactionManager(),
		accRepo,
		auditRepo,
		mocks.NewMockOutboxRepository(),
		mocks.NewMockIDGenerator(),
		retrier,
	)

	result, err := uc.Transfer(context.Background(), usecase.TransferInput{
		SenderID:         "acc-1",
		ReceiverUsername: "bob",
		Amount:           decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("unexpected error after retry: %v", err)
	}

	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}

	if !result.NewBalance.Equal(decimal.NewFromInt(900)) {
		t.Errorf("expected balance 900 after retried transfer, got %s", result.NewBalance)
	}
}
