package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ArowuTest/jackpot-backend/internal/models"
)

// GameService defines the operations the API exposes on the live round
type GameService interface {
	// SubmitBet debits the account and adds the stake to the current round
	SubmitBet(ctx context.Context, accountID string, amount decimal.Decimal) (*models.BetReceipt, error)

	// State returns the current round as seen by players
	State() models.RoundView

	// ForceDraw locks a round in countdown without waiting for the deadline
	ForceDraw(ctx context.Context) error

	// VoidRound refunds all stakes of the current round and opens a new one
	VoidRound(ctx context.Context, reason string) error

	// ResumeSettlement retries a halted settlement
	ResumeSettlement(ctx context.Context) error
}
