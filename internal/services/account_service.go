package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ArowuTest/jackpot-backend/internal/models"
	"github.com/ArowuTest/jackpot-backend/internal/repositories"
)

// AccountStats summarizes a player for the profile screen.
type AccountStats struct {
	Account *models.Account       `json:"account"`
	Wins    int64                 `json:"wins"`
	Recent  []*models.BetHistory  `json:"recentBets"`
	Journal []*models.LedgerEntry `json:"journal,omitempty"`
}

// AccountService manages player identities. Balances move only through the Ledger.
type AccountService struct {
	accounts        repositories.AccountRepository
	ledger          *Ledger
	history         *HistoryService
	presence        *Presence
	startingBalance decimal.Decimal
	clock           Clock
	logger          *zap.Logger
}

func NewAccountService(
	accounts repositories.AccountRepository,
	ledger *Ledger,
	history *HistoryService,
	presence *Presence,
	startingBalance decimal.Decimal,
	clock Clock,
	logger *zap.Logger,
) *AccountService {
	return &AccountService{
		accounts:        accounts,
		ledger:          ledger,
		history:         history,
		presence:        presence,
		startingBalance: startingBalance,
		clock:           clock,
		logger:          logger,
	}
}

// Authenticate returns the account for an external identity, creating it with the
// starting balance on first sight. created reports whether it was new.
func (s *AccountService) Authenticate(ctx context.Context, ident models.Identity) (acct *models.Account, created bool, err error) {
	acct, err = s.accounts.FindByID(ctx, ident.ID)
	if err == nil {
		s.presence.Touch(acct.ID)
		return acct, false, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, false, err
	}

	name, key, err := normalizeName(ident.DisplayName)
	if err != nil {
		return nil, false, err
	}
	now := s.clock.Now()
	acct = &models.Account{
		ID:          ident.ID,
		DisplayName: name,
		NameKey:     key,
		Avatar:      ident.Avatar,
		Balance:     s.startingBalance,
		Active:      true,
		JoinedAt:    now,
		UpdatedAt:   now,
	}
	if err := s.accounts.Create(ctx, acct); err != nil {
		if !errors.Is(err, repositories.ErrDuplicate) {
			return nil, false, err
		}
		// lost a race with the same identity, or the name belongs to someone else
		if existing, ferr := s.accounts.FindByID(ctx, ident.ID); ferr == nil {
			return existing, false, nil
		}
		return nil, false, ErrDisplayNameTaken
	}

	s.presence.Touch(acct.ID)
	s.logger.Info("account created", zap.String("account_id", acct.ID), zap.String("display_name", name))
	return acct, true, nil
}

func (s *AccountService) Get(ctx context.Context, id string) (*models.Account, error) {
	acct, err := s.accounts.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, s.unknown(id, "get")
	}
	return acct, err
}

// UpdateProfile renames the account; the new name must be free case-insensitively.
func (s *AccountService) UpdateProfile(ctx context.Context, id string, req models.UpdateProfileRequest) (*models.Account, error) {
	name, key, err := normalizeName(req.DisplayName)
	if err != nil {
		return nil, err
	}
	if other, err := s.accounts.FindByNameKey(ctx, key); err == nil && other.ID != id {
		return nil, ErrDisplayNameTaken
	} else if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	acct, err := s.accounts.UpdateProfile(ctx, id, name, key, strings.TrimSpace(req.Avatar))
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return nil, s.unknown(id, "update profile")
	case errors.Is(err, repositories.ErrDuplicate):
		return nil, ErrDisplayNameTaken
	}
	return acct, err
}

// List returns a page of accounts and the total count.
func (s *AccountService) List(ctx context.Context, page, limit int) ([]*models.Account, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	accounts, err := s.accounts.FindAll(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.accounts.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

// SetActive deactivates or reactivates an account. Deactivated accounts cannot bet.
func (s *AccountService) SetActive(ctx context.Context, id string, active bool) (*models.Account, error) {
	acct, err := s.accounts.SetActive(ctx, id, active)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, s.unknown(id, "set active")
	}
	if err == nil {
		s.logger.Info("account activation changed", zap.String("account_id", id), zap.Bool("active", active))
	}
	return acct, err
}

// AdjustBalance applies an operator correction through the ledger.
func (s *AccountService) AdjustBalance(ctx context.Context, id string, delta decimal.Decimal, actor string) (*models.Account, error) {
	return s.ledger.Adjust(ctx, id, delta, actor)
}

func (s *AccountService) Stats(ctx context.Context, id string) (*AccountStats, error) {
	acct, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	wins, err := s.history.Wins(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count wins: %w", err)
	}
	recent, err := s.history.Bets(ctx, id, 0)
	if err != nil {
		return nil, fmt.Errorf("load bets: %w", err)
	}
	journal, err := s.ledger.Statement(ctx, id, 20)
	if err != nil {
		return nil, fmt.Errorf("load journal: %w", err)
	}
	return &AccountStats{Account: acct, Wins: wins, Recent: recent, Journal: journal}, nil
}

func (s *AccountService) Touch(id string) { s.presence.Touch(id) }

func (s *AccountService) Online() int { return s.presence.Online() }

func normalizeName(name string) (display, key string, err error) {
	display = strings.Join(strings.Fields(name), " ")
	if n := utf8.RuneCountInString(display); n < 2 || n > 32 {
		return "", "", ErrInvalidName
	}
	return display, strings.ToLower(display), nil
}

func (s *AccountService) unknown(id, op string) error {
	s.logger.Error("operation on unknown account", zap.String("account_id", id), zap.String("op", op))
	return ErrUnknownAccount
}
