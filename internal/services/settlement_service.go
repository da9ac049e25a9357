package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ArowuTest/jackpot-backend/internal/metrics"
	"github.com/ArowuTest/jackpot-backend/internal/models"
	"github.com/ArowuTest/jackpot-backend/internal/repositories"
)

// settlementState tracks how far a round got. Stages are draw, paid, recorded;
// a resumed settlement continues from the first incomplete stage.
type settlementState struct {
	inFlight bool
	done     bool
	winner   *models.Entry
	forced   bool
	paid     bool
	record   *models.HistoryRecord
}

// SettlementService draws the winner, pays the pot and archives the round,
// at most once per round id.
type SettlementService struct {
	ledger    *Ledger
	drawer    *Drawer
	overrides *RigOverride
	history   *HistoryService
	bets      repositories.BetHistoryRepository
	policy    RetryPolicy
	metrics   *metrics.Metrics
	clock     Clock
	logger    *zap.Logger

	mu     sync.Mutex
	states map[string]*settlementState
}

func NewSettlementService(
	ledger *Ledger,
	drawer *Drawer,
	overrides *RigOverride,
	history *HistoryService,
	bets repositories.BetHistoryRepository,
	policy RetryPolicy,
	m *metrics.Metrics,
	clock Clock,
	logger *zap.Logger,
) *SettlementService {
	return &SettlementService{
		ledger:    ledger,
		drawer:    drawer,
		overrides: overrides,
		history:   history,
		bets:      bets,
		policy:    policy,
		metrics:   m,
		clock:     clock,
		logger:    logger,
		states:    make(map[string]*settlementState),
	}
}

// Settle runs the settlement of a locked round. A second call for a round that is
// being settled or was settled returns ErrDuplicateSettlement and pays nothing.
func (s *SettlementService) Settle(ctx context.Context, round *models.Round) (*models.HistoryRecord, error) {
	st, err := s.claim(ctx, round.ID)
	if err != nil {
		return nil, err
	}
	defer s.release(st)

	log := s.logger.With(zap.String("round_id", round.ID), zap.Int64("round_number", round.Number))
	entries := snapshot(round.Slots)
	pot := round.Pot()

	if st.winner == nil {
		override := s.overrides.Peek()
		winnerID, forced, err := s.drawer.SelectWinner(entries, override)
		if err != nil {
			s.metrics.IntegrityViolations.WithLabelValues("empty_round").Inc()
			log.Error("draw invoked on a round without stakes", zap.Error(err))
			return nil, err
		}
		if override != "" && !forced {
			log.Warn("rigged winner is not in this round; drawing at random", zap.String("override", override))
		}
		for i := range entries {
			if entries[i].AccountID == winnerID {
				winner := entries[i]
				st.winner = &winner
				break
			}
		}
		st.forced = forced
		s.overrides.Consume(ctx, override)
		log.Info("winner drawn",
			zap.String("winner_id", winnerID),
			zap.String("pot", pot.String()),
			zap.Bool("forced", forced))
	}

	if !st.paid {
		err := retry(ctx, s.policy, func(ctx context.Context) error {
			_, err := s.ledger.Credit(ctx, st.winner.AccountID, pot, models.EntryKindPayout, round.ID)
			return err
		}, func(attempt int, err error) {
			s.metrics.PayoutRetries.Inc()
			log.Warn("payout failed; retrying", zap.Int("attempt", attempt), zap.Error(err))
		})
		if err != nil {
			s.metrics.SettlementFailures.WithLabelValues("payout").Inc()
			log.Error("payout failed; settlement halted", zap.String("winner_id", st.winner.AccountID), zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrPayoutFailed, err)
		}
		s.mu.Lock()
		st.paid = true
		s.mu.Unlock()
	}

	if st.record == nil {
		rec := &models.HistoryRecord{
			RoundID:     round.ID,
			RoundNumber: round.Number,
			Pot:         pot,
			Winner:      *st.winner,
			Entries:     entries,
			Forced:      st.forced,
			FinishedAt:  s.clock.Now(),
		}
		err := retry(ctx, s.policy, func(ctx context.Context) error {
			return s.history.Append(ctx, rec)
		}, nil)
		if errors.Is(err, ErrDuplicateSettlement) {
			s.metrics.IntegrityViolations.WithLabelValues("duplicate_settlement").Inc()
			log.Error("history already holds this round after payout", zap.Error(err))
			s.finish(st)
			return nil, err
		}
		if err != nil {
			s.metrics.SettlementFailures.WithLabelValues("history").Inc()
			log.Error("history append failed; settlement halted", zap.Error(err))
			return nil, err
		}
		st.record = rec
	}

	if err := s.bets.SettleRound(ctx, round.ID, st.winner.AccountID, st.record.FinishedAt); err != nil {
		log.Warn("mark bet history settled", zap.Error(err))
	}

	s.finish(st)
	s.metrics.RoundsSettled.Inc()
	log.Info("round settled", zap.String("winner_id", st.winner.AccountID), zap.String("pot", pot.String()))
	return st.record, nil
}

// CompletePaid finishes a round whose payout is already journaled, without drawing again.
func (s *SettlementService) CompletePaid(ctx context.Context, round *models.Round, winnerID string) (*models.HistoryRecord, error) {
	var winner *models.Entry
	for _, e := range snapshot(round.Slots) {
		if e.AccountID == winnerID {
			winner = &e
			break
		}
	}
	if winner == nil {
		return nil, fmt.Errorf("%w: payout recipient %s has no slot in round %s", ErrUnknownAccount, winnerID, round.ID)
	}

	s.mu.Lock()
	if _, ok := s.states[round.ID]; !ok {
		s.states[round.ID] = &settlementState{winner: winner, paid: true}
	}
	s.mu.Unlock()
	return s.Settle(ctx, round)
}

// Paid reports whether the payout of roundID went through in this process.
func (s *SettlementService) Paid(roundID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[roundID]
	return ok && st.paid
}

// Forget drops the state of a retired round.
func (s *SettlementService) Forget(roundID string) {
	s.mu.Lock()
	delete(s.states, roundID)
	s.mu.Unlock()
}

func (s *SettlementService) claim(ctx context.Context, roundID string) (*settlementState, error) {
	s.mu.Lock()
	st, ok := s.states[roundID]
	if ok && (st.inFlight || st.done) {
		s.mu.Unlock()
		s.duplicate(roundID)
		return nil, ErrDuplicateSettlement
	}
	if !ok {
		st = &settlementState{}
		s.states[roundID] = st
	}
	st.inFlight = true
	s.mu.Unlock()

	if st.record != nil || st.paid {
		return st, nil
	}
	archived, err := s.history.Exists(ctx, roundID)
	if err != nil {
		s.release(st)
		return nil, fmt.Errorf("check history for %s: %w", roundID, err)
	}
	if archived {
		s.mu.Lock()
		st.done = true
		st.inFlight = false
		s.mu.Unlock()
		s.duplicate(roundID)
		return nil, ErrDuplicateSettlement
	}
	return st, nil
}

func (s *SettlementService) release(st *settlementState) {
	s.mu.Lock()
	st.inFlight = false
	s.mu.Unlock()
}

func (s *SettlementService) finish(st *settlementState) {
	s.mu.Lock()
	st.done = true
	s.mu.Unlock()
}

func (s *SettlementService) duplicate(roundID string) {
	s.metrics.IntegrityViolations.WithLabelValues("duplicate_settlement").Inc()
	s.logger.Error("duplicate settlement rejected", zap.String("round_id", roundID))
}
