package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/payflow/internal/domain"
)

// QueryUseCase builds the user-facing read views: current balance, merged
// transaction history and the list of transfer targets.
type QueryUseCase struct {
	accountRepo AccountRepository
	auditRepo   AuditRepository
	ledgerRepo  LedgerRepository
	cache       Cache
}

// NewQueryUseCase creates a new QueryUseCase.
func NewQueryUseCase(
	accountRepo AccountRepository,
	auditRepo AuditRepository,
	ledgerRepo LedgerRepository,
	cache Cache,
) *QueryUseCase {
	return &QueryUseCase{
		accountRepo: accountRepo,
		auditRepo:   auditRepo,
		ledgerRepo:  ledgerRepo,
		cache:       cache,
	}
}

// GetBalance returns the current balance of an account.
func (uc *QueryUseCase) GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	return account.Balance, nil
}

// GetHistory returns the account's transaction history: records it sent
// (all statuses) merged with records it received (successful only), newest
// first. Only the account owner may read it.
func (uc *QueryUseCase) GetHistory(ctx context.Context, accountID, callerID string) ([]*domain.HistoryItem, error) {
	if accountID != callerID {
		return nil, domain.ErrUnauthorized
	}

	sent, err := uc.auditRepo.ListBySender(ctx, accountID)
	if err != nil {
		return nil, err
	}

	received, err := uc.auditRepo.ListByReceiver(ctx, accountID)
	if err != nil {
		return nil, err
	}

	names := newNameResolver(uc.accountRepo)

	items := make([]*domain.HistoryItem, 0, len(sent)+len(received))

	for _, record := range sent {
		counterparty := domain.UnknownCounterparty
		if record.ReceiverID != nil {
			counterparty = names.resolve(ctx, *record.ReceiverID)
		}

		items = append(items, &domain.HistoryItem{
			RecordID:     record.ID,
			Direction:    domain.DirectionSent,
			Counterparty: counterparty,
			Amount:       record.Amount,
			Status:       record.Status,
			Description:  record.Description,
			CreatedAt:    record.CreatedAt,
		})
	}

	for _, record := range received {
		// A failed incoming transfer is invisible to the receiver.
		if record.Status != domain.StatusSuccess {
			continue
		}

		items = append(items, &domain.HistoryItem{
			RecordID:     record.ID,
			Direction:    domain.DirectionReceived,
			Counterparty: names.resolve(ctx, record.SenderID),
			Amount:       record.Amount,
			Status:       record.Status,
			Description:  record.Description,
			CreatedAt:    record.CreatedAt,
		})
	}

	// Newest first; the monotonic record ID breaks timestamp ties so the
	// order is deterministic.
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}

		return items[i].RecordID > items[j].RecordID
	})

	return items, nil
}

// AccountSummary is the public view of an account in listings.
type AccountSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ListAccounts returns all accounts except the caller's, as transfer
// targets. The result is cached briefly; it only changes on registration.
func (uc *QueryUseCase) ListAccounts(ctx context.Context, callerID string, limit, offset int) ([]AccountSummary, error) {
	limit, offset = domain.ValidatePagination(limit, offset)

	cacheKey := fmt.Sprintf("accounts:exclude:%s:%d:%d", callerID, limit, offset)

	if uc.cache != nil {
		if data, err := uc.cache.Get(ctx, cacheKey); err == nil {
			var cached []AccountSummary
			if json.Unmarshal(data, &cached) == nil {
				return cached, nil
			}
		}
	}

	accounts, err := uc.accountRepo.List(ctx, callerID, limit, offset)
	if err != nil {
		return nil, err
	}

	summaries := make([]AccountSummary, 0, len(accounts))
	for _, a := range accounts {
		summaries = append(summaries, AccountSummary{
			ID:       a.ID,
			Username: a.Username,
		})
	}

	if uc.cache != nil {
		if data, err := json.Marshal(summaries); err == nil {
			_ = uc.cache.Set(ctx, cacheKey, data, 30*time.Second)
		}
	}

	return summaries, nil
}

// ConsistencyReport is the result of a ledger-wide conservation check.
type ConsistencyReport struct {
	Consistent    bool            `json:"consistent"`
	TotalBalance  decimal.Decimal `json:"total_balance"`
	ExpectedTotal decimal.Decimal `json:"expected_total"`
	Accounts      int64           `json:"accounts"`
}

// CheckConsistency verifies conservation: transfers only move money, so the
// sum of all balances must equal accounts * starting balance.
func (uc *QueryUseCase) CheckConsistency(ctx context.Context) (*ConsistencyReport, error) {
	total, err := uc.ledgerRepo.TotalBalance(ctx)
	if err != nil {
		return nil, err
	}

	count, err := uc.ledgerRepo.CountAccounts(ctx)
	if err != nil {
		return nil, err
	}

	starting, _ := decimal.NewFromString(StartingBalance)
	expected := starting.Mul(decimal.NewFromInt(count))

	return &ConsistencyReport{
		Consistent:    total.Equal(expected),
		TotalBalance:  total,
		ExpectedTotal: expected,
		Accounts:      count,
	}, nil
}

// nameResolver memoizes account-ID-to-username lookups for one history read.
type nameResolver struct {
	repo  AccountRepository
	cache map[string]string
}

func newNameResolver(repo AccountRepository) *nameResolver {
	return &nameResolver{
		repo:  repo,
		cache: make(map[string]string),
	}
}

func (r *nameResolver) resolve(ctx context.Context, accountID string) string {
	if name, ok := r.cache[accountID]; ok {
		return name
	}

	// Any lookup failure renders the fallback label; a history read should
	// not fail over a name lookup.
	name := domain.UnknownCounterparty

	account, err := r.repo.GetByID(ctx, accountID)
	if err == nil {
		name = account.Username
	}

	r.cache[accountID] = name

	return name
}
