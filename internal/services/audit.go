package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ArowuTest/jackpot-backend/internal/models"
)

// AuditReport compares the live pot with the stakes journaled for the round.
type AuditReport struct {
	RoundID   string          `json:"roundId"`
	Pot       decimal.Decimal `json:"pot"`
	Journaled decimal.Decimal `json:"journaled"`
	Balanced  bool            `json:"balanced"`
}

// AuditLiveRound checks that the pot equals the journaled stakes less refunds.
// A mismatch is logged and counted; it does not stop the round. The journal is
// read under the round lock so that no bet lands between the two reads.
func (s *RoundScheduler) AuditLiveRound(ctx context.Context) (*AuditReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.round == nil || s.round.Phase == models.PhaseFinished {
		return nil, nil
	}
	roundID := s.round.ID
	pot := s.pool.Pot()

	journal, err := s.ledger.Journal(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("read journal for %s: %w", roundID, err)
	}
	journaled := decimal.Zero
	for _, e := range journal {
		switch e.Kind {
		case models.EntryKindBet:
			journaled = journaled.Add(e.Amount.Neg())
		case models.EntryKindRefund:
			journaled = journaled.Sub(e.Amount)
		}
	}

	report := &AuditReport{RoundID: roundID, Pot: pot, Journaled: journaled, Balanced: pot.Equal(journaled)}
	if !report.Balanced {
		s.metrics.IntegrityViolations.WithLabelValues("pot_mismatch").Inc()
		s.logger.Error("pot does not match journaled stakes",
			zap.String("round_id", roundID),
			zap.String("pot", pot.String()),
			zap.String("journaled", journaled.String()))
	}
	return report, nil
}
