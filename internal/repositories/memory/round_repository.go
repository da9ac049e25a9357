package memory

import (
	"context"
	"sync"

	"github.com/ArowuTest/jackpot-backend/internal/models"
	"github.com/ArowuTest/jackpot-backend/internal/repositories"
)

var _ repositories.RoundRepository = (*RoundRepository)(nil)

type RoundRepository struct {
	mu      sync.Mutex
	current *models.Round
}

func NewRoundRepository() *RoundRepository {
	return &RoundRepository{}
}

func (r *RoundRepository) SaveCurrent(_ context.Context, round *models.Round) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = cloneRound(round)
	return nil
}

func (r *RoundRepository) FindCurrent(_ context.Context) (*models.Round, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return nil, repositories.ErrNotFound
	}
	return cloneRound(r.current), nil
}

func (r *RoundRepository) DeleteCurrent(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil && r.current.ID == id {
		r.current = nil
	}
	return nil
}

func cloneRound(round *models.Round) *models.Round {
	cp := *round
	cp.Slots = append([]models.BetSlot(nil), round.Slots...)
	return &cp
}
