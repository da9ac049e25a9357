package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ArowuTest/jackpot-backend/internal/events"
	"github.com/ArowuTest/jackpot-backend/internal/models"
	"github.com/ArowuTest/jackpot-backend/internal/repositories"
)

// Ledger is the only writer of account balances. Every successful movement is
// journaled with a signed amount and announced as a balance.changed event.
type Ledger struct {
	accounts  repositories.AccountRepository
	journal   repositories.LedgerEntryRepository
	publisher events.Publisher
	clock     Clock
	logger    *zap.Logger
	locks     keyedMutex
}

func NewLedger(
	accounts repositories.AccountRepository,
	journal repositories.LedgerEntryRepository,
	publisher events.Publisher,
	clock Clock,
	logger *zap.Logger,
) *Ledger {
	if publisher == nil {
		publisher = events.Discard{}
	}
	return &Ledger{
		accounts:  accounts,
		journal:   journal,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
		locks:     keyedMutex{locks: make(map[string]*keyedLock)},
	}
}

// Account returns the stored account or ErrUnknownAccount.
func (l *Ledger) Account(ctx context.Context, accountID string) (*models.Account, error) {
	acct, err := l.accounts.FindByID(ctx, accountID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, l.unknown(accountID, "lookup")
	}
	return acct, err
}

// Debit takes a bet stake. It fails without side effects when the account is
// unknown, inactive, or cannot cover amount.
func (l *Ledger) Debit(ctx context.Context, accountID string, amount decimal.Decimal, roundID string) (*models.Account, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	unlock := l.locks.Lock(accountID)
	defer unlock()

	acct, err := l.accounts.Debit(ctx, accountID, amount)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return nil, l.unknown(accountID, "debit")
	case errors.Is(err, repositories.ErrInsufficientBalance):
		return nil, ErrInsufficientFunds
	case errors.Is(err, repositories.ErrInactive):
		return nil, ErrAccountInactive
	case err != nil:
		return nil, fmt.Errorf("debit %s: %w", accountID, err)
	}

	l.record(ctx, acct, models.EntryKindBet, amount.Neg(), roundID)
	return acct, nil
}

// Credit adds a positive amount. PAYOUT credits go through the account's
// paid-round guard, so replaying one for the same reference moves nothing.
func (l *Ledger) Credit(ctx context.Context, accountID string, amount decimal.Decimal, kind models.EntryKind, reference string) (*models.Account, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	unlock := l.locks.Lock(accountID)
	defer unlock()

	if kind == models.EntryKindPayout {
		return l.payout(ctx, accountID, amount, reference)
	}

	acct, err := l.accounts.Credit(ctx, accountID, amount)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, l.unknown(accountID, "credit")
	}
	if err != nil {
		return nil, fmt.Errorf("credit %s: %w", accountID, err)
	}

	l.record(ctx, acct, kind, amount, reference)
	return acct, nil
}

func (l *Ledger) payout(ctx context.Context, accountID string, amount decimal.Decimal, roundID string) (*models.Account, error) {
	acct, applied, err := l.accounts.Payout(ctx, accountID, amount, roundID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, l.unknown(accountID, "payout")
	}
	if err != nil {
		return nil, fmt.Errorf("payout %s: %w", accountID, err)
	}
	if applied {
		l.record(ctx, acct, models.EntryKindPayout, amount, roundID)
		return acct, nil
	}

	// An earlier attempt moved the balance but its reply was lost. Journal it
	// once if that attempt never got the chance.
	entries, err := l.journal.FindByReference(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("payout %s: read journal: %w", accountID, err)
	}
	for _, e := range entries {
		if e.Kind == models.EntryKindPayout && e.AccountID == accountID {
			return acct, nil
		}
	}
	l.logger.Warn("payout already applied, journaling it",
		zap.String("account_id", accountID),
		zap.String("round_id", roundID),
		zap.String("amount", amount.String()))
	l.record(ctx, acct, models.EntryKindPayout, amount, roundID)
	return acct, nil
}

// PaidFrom returns the first of accountIDs whose account records the payout
// of roundID, or "" when none does.
func (l *Ledger) PaidFrom(ctx context.Context, roundID string, accountIDs []string) (string, error) {
	for _, id := range accountIDs {
		acct, err := l.accounts.FindByID(ctx, id)
		if errors.Is(err, repositories.ErrNotFound) {
			continue
		}
		if err != nil {
			return "", err
		}
		if acct.WasPaid(roundID) {
			return id, nil
		}
	}
	return "", nil
}

// Adjust applies an operator correction. The balance is clamped at zero and the
// journal records the movement that actually happened.
func (l *Ledger) Adjust(ctx context.Context, accountID string, delta decimal.Decimal, actor string) (*models.Account, error) {
	if delta.IsZero() {
		return nil, ErrInvalidAmount
	}
	unlock := l.locks.Lock(accountID)
	defer unlock()

	before, err := l.Account(ctx, accountID)
	if err != nil {
		return nil, err
	}
	acct, err := l.accounts.Adjust(ctx, accountID, delta)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, l.unknown(accountID, "adjust")
	}
	if err != nil {
		return nil, fmt.Errorf("adjust %s: %w", accountID, err)
	}

	l.record(ctx, acct, models.EntryKindAdjust, acct.Balance.Sub(before.Balance), actor)
	return acct, nil
}

// Journal returns every entry carrying reference, oldest first.
func (l *Ledger) Journal(ctx context.Context, reference string) ([]*models.LedgerEntry, error) {
	return l.journal.FindByReference(ctx, reference)
}

// Statement returns the latest entries of one account.
func (l *Ledger) Statement(ctx context.Context, accountID string, limit int) ([]*models.LedgerEntry, error) {
	return l.journal.FindByAccountID(ctx, accountID, limit)
}

func (l *Ledger) unknown(accountID, op string) error {
	l.logger.Error("operation on unknown account",
		zap.String("account_id", accountID),
		zap.String("op", op))
	return ErrUnknownAccount
}

func (l *Ledger) record(ctx context.Context, acct *models.Account, kind models.EntryKind, amount decimal.Decimal, reference string) {
	now := l.clock.Now()
	entry := &models.LedgerEntry{
		ID:           uuid.NewString(),
		AccountID:    acct.ID,
		Kind:         kind,
		Amount:       amount,
		Reference:    reference,
		BalanceAfter: acct.Balance,
		CreatedAt:    now,
	}
	// The balance already moved; a lost journal line is surfaced, not rolled back.
	if err := l.journal.Create(context.WithoutCancel(ctx), entry); err != nil {
		l.logger.Error("journal write failed",
			zap.String("account_id", acct.ID),
			zap.String("kind", string(kind)),
			zap.String("amount", amount.String()),
			zap.String("reference", reference),
			zap.Error(err))
	}

	l.publisher.Publish(ctx, events.Event{
		Type:      events.BalanceChanged,
		AccountID: acct.ID,
		Payload: map[string]any{
			"balance": acct.Balance,
			"delta":   amount,
			"kind":    kind,
		},
		At: now,
	})
}

type keyedLock struct {
	sync.Mutex
	refs int
}

// keyedMutex serializes work per key and frees idle keys.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
