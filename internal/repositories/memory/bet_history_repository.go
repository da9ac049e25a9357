package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ArowuTest/jackpot-backend/internal/models"
	"github.com/ArowuTest/jackpot-backend/internal/repositories"
)

var _ repositories.BetHistoryRepository = (*BetHistoryRepository)(nil)

type BetHistoryRepository struct {
	mu   sync.Mutex
	bets []*models.BetHistory
}

func NewBetHistoryRepository() *BetHistoryRepository {
	return &BetHistoryRepository{}
}

func (r *BetHistoryRepository) Create(_ context.Context, bet *models.BetHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *bet
	r.bets = append(r.bets, &cp)
	return nil
}

// FindByAccountID returns newest first.
func (r *BetHistoryRepository) FindByAccountID(_ context.Context, accountID string, limit int) ([]*models.BetHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.BetHistory{}
	for i := len(r.bets) - 1; i >= 0; i-- {
		if r.bets[i].AccountID != accountID {
			continue
		}
		cp := *r.bets[i]
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *BetHistoryRepository) SettleRound(_ context.Context, roundID, winnerID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bets {
		if b.RoundID != roundID || b.Outcome != models.BetOutcomePending {
			continue
		}
		b.Outcome = models.BetOutcomeLost
		if b.AccountID == winnerID {
			b.Outcome = models.BetOutcomeWon
		}
		settled := at
		b.SettledAt = &settled
	}
	return nil
}

func (r *BetHistoryRepository) RefundRound(_ context.Context, roundID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bets {
		if b.RoundID != roundID || b.Outcome != models.BetOutcomePending {
			continue
		}
		b.Outcome = models.BetOutcomeRefunded
		settled := at
		b.SettledAt = &settled
	}
	return nil
}
