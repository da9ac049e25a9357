// Package memory holds map-backed repositories used by tests and by the
// in-process development mode. Every method copies values in and out so
// callers never share state with the store.
package memory

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/ArowuTest/jackpot-backend/internal/models"
	"github.com/ArowuTest/jackpot-backend/internal/repositories"
	"github.com/shopspring/decimal"
)

var _ repositories.AccountRepository = (*AccountRepository)(nil)

var errAlreadyPaid = errors.New("round already paid")

type AccountRepository struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
	byName   map[string]string
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		accounts: make(map[string]*models.Account),
		byName:   make(map[string]string),
	}
}

func (r *AccountRepository) Create(_ context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[account.ID]; ok {
		return repositories.ErrDuplicate
	}
	if _, ok := r.byName[account.NameKey]; ok {
		return repositories.ErrDuplicate
	}
	now := time.Now()
	if account.JoinedAt.IsZero() {
		account.JoinedAt = now
	}
	account.UpdatedAt = now
	cp := *account
	r.accounts[account.ID] = &cp
	r.byName[account.NameKey] = account.ID
	return nil
}

func (r *AccountRepository) FindByID(_ context.Context, id string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *AccountRepository) FindByNameKey(_ context.Context, nameKey string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byName[nameKey]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *r.accounts[id]
	return &cp, nil
}

func (r *AccountRepository) FindAll(_ context.Context, page, limit int) ([]*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return paginate(out, page, limit), nil
}

func (r *AccountRepository) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.accounts)), nil
}

func (r *AccountRepository) UpdateProfile(_ context.Context, id, displayName, nameKey, avatar string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if owner, taken := r.byName[nameKey]; taken && owner != id {
		return nil, repositories.ErrDuplicate
	}
	delete(r.byName, a.NameKey)
	a.DisplayName = displayName
	a.NameKey = nameKey
	a.Avatar = avatar
	a.UpdatedAt = time.Now()
	r.byName[nameKey] = id
	cp := *a
	return &cp, nil
}

func (r *AccountRepository) SetActive(_ context.Context, id string, active bool) (*models.Account, error) {
	return r.mutate(id, func(a *models.Account) error {
		a.Active = active
		return nil
	})
}

func (r *AccountRepository) Debit(_ context.Context, id string, amount decimal.Decimal) (*models.Account, error) {
	return r.mutate(id, func(a *models.Account) error {
		if !a.Active {
			return repositories.ErrInactive
		}
		if a.Balance.LessThan(amount) {
			return repositories.ErrInsufficientBalance
		}
		a.Balance = a.Balance.Sub(amount)
		a.TotalBets++
		return nil
	})
}

func (r *AccountRepository) Credit(_ context.Context, id string, amount decimal.Decimal) (*models.Account, error) {
	return r.mutate(id, func(a *models.Account) error {
		a.Balance = a.Balance.Add(amount)
		return nil
	})
}

func (r *AccountRepository) Payout(ctx context.Context, id string, amount decimal.Decimal, roundID string) (*models.Account, bool, error) {
	acct, err := r.mutate(id, func(a *models.Account) error {
		if a.WasPaid(roundID) {
			return errAlreadyPaid
		}
		a.Balance = a.Balance.Add(amount)
		a.TotalWins++
		paid := append(slices.Clone(a.PaidRounds), roundID)
		if len(paid) > models.PaidRoundsKept {
			paid = paid[len(paid)-models.PaidRoundsKept:]
		}
		a.PaidRounds = paid
		return nil
	})
	if errors.Is(err, errAlreadyPaid) {
		current, err := r.FindByID(ctx, id)
		return current, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return acct, true, nil
}

func (r *AccountRepository) Adjust(_ context.Context, id string, delta decimal.Decimal) (*models.Account, error) {
	return r.mutate(id, func(a *models.Account) error {
		next := a.Balance.Add(delta)
		if next.IsNegative() {
			next = decimal.Zero
		}
		a.Balance = next
		return nil
	})
}

func (r *AccountRepository) mutate(id string, fn func(a *models.Account) error) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	next := *a
	if err := fn(&next); err != nil {
		return nil, err
	}
	next.UpdatedAt = time.Now()
	r.accounts[id] = &next
	cp := next
	return &cp, nil
}

func paginate[T any](items []T, page, limit int) []T {
	if page < 1 || limit < 1 {
		return items
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return items[:0]
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
