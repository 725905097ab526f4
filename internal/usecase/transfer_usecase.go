package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/payflow/internal/domain"
)

// TransferUseCase is the transfer engine: it validates a transfer request,
// atomically moves the amount between two accounts and appends exactly one
// audit record describing the outcome.
type TransferUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	auditRepo   AuditRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	retrier     Retrier
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	auditRepo AuditRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	retrier Retrier,
) *TransferUseCase {
	return &TransferUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		auditRepo:   auditRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		retrier:     retrier,
	}
}

// TransferInput represents input for a transfer.
type TransferInput struct {
	SenderID         string
	ReceiverUsername string
	Amount           decimal.Decimal
}

// TransferResult is returned on a successful transfer.
type TransferResult struct {
	RecordID   int64
	NewBalance decimal.Decimal
}

// Transfer moves Amount from the sender to the account owning
// ReceiverUsername.
//
// Failure paths split two ways: a malformed amount and a self-transfer are
// rejected before anything is written, while an unknown receiver and an
// insufficient balance are durably recorded as FAILED audit records before
// the error is returned.
func (uc *TransferUseCase) Transfer(ctx context.Context, input TransferInput) (*TransferResult, error) {
	// 1. Amount validation, nothing logged on failure.
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	// 2. Resolve receiver. A failed lookup is a recorded failure with no
	// receiver reference.
	receiver, err := uc.accountRepo.GetByUsername(ctx, input.ReceiverUsername)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			record := &domain.TransferRecord{
				SenderID:    input.SenderID,
				ReceiverID:  nil,
				Amount:      input.Amount,
				Status:      domain.StatusFailed,
				Description: domain.DescReceiverNotFound(input.ReceiverUsername),
				CreatedAt:   time.Now().UTC(),
			}

			if appendErr := uc.auditRepo.Append(ctx, record); appendErr != nil {
				return nil, appendErr
			}

			return nil, domain.ErrReceiverNotFound
		}

		return nil, err
	}

	// 3. Self-transfers are rejected without an audit record. Every other
	// rejection past this point leaves a trace; this one deliberately does
	// not, matching the service's documented behavior.
	if input.SenderID == receiver.ID {
		return nil, domain.ErrSelfTransfer
	}

	// 4-6. Balance check, atomic two-account update and audit append run
	// under row locks; transient conflicts (deadlock, serialization) are
	// retried as a whole.
	var result *TransferResult

	err = uc.retrier.Retry(ctx, func() error {
		var execErr error

		result, execErr = uc.execute(ctx, input, receiver.ID)

		return execErr
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// execute runs the locked section of a transfer in a single transaction.
func (uc *TransferUseCase) execute(ctx context.Context, input TransferInput, receiverID string) (*TransferResult, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Lock both accounts in sorted ID order (DEADLOCK PREVENTION).
	ids := []string{input.SenderID, receiverID}
	sort.Strings(ids)

	accounts, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	if len(accounts) != 2 {
		return nil, domain.ErrAccountNotFound
	}

	var sender, receiver *domain.Account

	for _, a := range accounts {
		switch a.ID {
		case input.SenderID:
			sender = a
		case receiverID:
			receiver = a
		}
	}

	if sender == nil || receiver == nil {
		return nil, domain.ErrAccountNotFound
	}

	now := time.Now().UTC()

	// 4. Balance check under the lock. The FAILED record commits in the
	// same transaction that observed the balance, so a recorded failure
	// can never refer to a state that was rolled back.
	if err := sender.ValidateDebit(input.Amount); err != nil {
		record := &domain.TransferRecord{
			SenderID:    sender.ID,
			ReceiverID:  &receiver.ID,
			Amount:      input.Amount,
			Status:      domain.StatusFailed,
			Description: domain.DescInsufficientBalance,
			CreatedAt:   now,
		}

		if appendErr := uc.recordOutcome(ctx, tx, record); appendErr != nil {
			return nil, appendErr
		}

		if commitErr := tx.Commit(ctx); commitErr != nil {
			return nil, commitErr
		}

		return nil, domain.ErrInsufficientBalance
	}

	// 5. Atomic application: both balances change or neither does.
	senderBalance := sender.ApplyDebit(input.Amount)
	if err := uc.accountRepo.UpdateBalance(ctx, tx, sender.ID, senderBalance, now); err != nil {
		return nil, err
	}

	receiverBalance := receiver.ApplyCredit(input.Amount)
	if err := uc.accountRepo.UpdateBalance(ctx, tx, receiver.ID, receiverBalance, now); err != nil {
		return nil, err
	}

	// 6. Exactly one audit record per attempt.
	record := &domain.TransferRecord{
		SenderID:    sender.ID,
		ReceiverID:  &receiver.ID,
		Amount:      input.Amount,
		Status:      domain.StatusSuccess,
		Description: domain.DescTransferCompleted,
		CreatedAt:   now,
	}

	if err := uc.recordOutcome(ctx, tx, record); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &TransferResult{
		RecordID:   record.ID,
		NewBalance: senderBalance,
	}, nil
}

// recordOutcome validates and appends the audit record and queues the
// matching outbox event inside the transfer's transaction.
func (uc *TransferUseCase) recordOutcome(ctx context.Context, tx Transaction, record *domain.TransferRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	if err := uc.auditRepo.AppendTx(ctx, tx, record); err != nil {
		return err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   record.SenderID,
		AggregateType: domain.AggregateTypeTransfer,
		CreatedAt:     record.CreatedAt,
	}

	if record.Status == domain.StatusSuccess {
		event.EventType = domain.EventTypeTransferCompleted
		event.Payload = map[string]any{
			"record_id":   record.ID,
			"sender_id":   record.SenderID,
			"receiver_id": *record.ReceiverID,
			"amount":      record.Amount.String(),
		}
	} else {
		event.EventType = domain.EventTypeTransferFailed
		event.Payload = map[string]any{
			"record_id": record.ID,
			"sender_id": record.SenderID,
			"amount":    record.Amount.String(),
			"reason":    record.Description,
		}
	}

	return uc.outboxRepo.Create(ctx, tx, event)
}
