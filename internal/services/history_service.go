package services

import (
	"context"
	"errors"

	"github.com/ArowuTest/jackpot-backend/internal/models"
	"github.com/ArowuTest/jackpot-backend/internal/repositories"
)

const maxHistoryLimit = 100

// HistoryService reads and appends the finished-round archive.
type HistoryService struct {
	rounds       repositories.HistoryRepository
	bets         repositories.BetHistoryRepository
	defaultLimit int
}

func NewHistoryService(rounds repositories.HistoryRepository, bets repositories.BetHistoryRepository, defaultLimit int) *HistoryService {
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	return &HistoryService{rounds: rounds, bets: bets, defaultLimit: defaultLimit}
}

// Append stores a record once. A second record for the same round is ErrDuplicateSettlement.
func (s *HistoryService) Append(ctx context.Context, rec *models.HistoryRecord) error {
	err := s.rounds.Append(ctx, rec)
	if errors.Is(err, repositories.ErrDuplicate) {
		return ErrDuplicateSettlement
	}
	return err
}

func (s *HistoryService) Exists(ctx context.Context, roundID string) (bool, error) {
	_, err := s.rounds.FindByRoundID(ctx, roundID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repositories.ErrNotFound):
		return false, nil
	}
	return false, err
}

func (s *HistoryService) Get(ctx context.Context, roundID string) (*models.HistoryRecord, error) {
	return s.rounds.FindByRoundID(ctx, roundID)
}

// Recent returns the newest records first.
func (s *HistoryService) Recent(ctx context.Context, limit int) ([]*models.HistoryRecord, error) {
	return s.rounds.FindRecent(ctx, s.clamp(limit))
}

func (s *HistoryService) Wins(ctx context.Context, accountID string) (int64, error) {
	return s.rounds.CountWins(ctx, accountID)
}

func (s *HistoryService) LastRoundNumber(ctx context.Context) (int64, error) {
	return s.rounds.LastRoundNumber(ctx)
}

// Bets returns the account's bet submissions, newest first.
func (s *HistoryService) Bets(ctx context.Context, accountID string, limit int) ([]*models.BetHistory, error) {
	return s.bets.FindByAccountID(ctx, accountID, s.clamp(limit))
}

func (s *HistoryService) clamp(limit int) int {
	if limit <= 0 {
		return s.defaultLimit
	}
	if limit > maxHistoryLimit {
		return maxHistoryLimit
	}
	return limit
}
