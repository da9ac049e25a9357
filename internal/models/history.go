package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// HistoryRecord is the write-once archive of a finished round.
type HistoryRecord struct {
	RoundID     string          `bson:"_id" json:"roundId"`
	RoundNumber int64           `bson:"roundNumber" json:"roundNumber"`
	Pot         decimal.Decimal `bson:"pot" json:"pot"`
	Winner      Entry           `bson:"winner" json:"winner"`
	Entries     []Entry         `bson:"entries" json:"entries"`
	Forced      bool            `bson:"forced" json:"forced"`
	FinishedAt  time.Time       `bson:"finishedAt" json:"finishedAt"`
}

// BetOutcome is the externally visible result of a bet submission.
type BetOutcome string

const (
	BetOutcomePending  BetOutcome = "pending"
	BetOutcomeWon      BetOutcome = "won"
	BetOutcomeLost     BetOutcome = "lost"
	BetOutcomeRefunded BetOutcome = "refunded"
)

// BetHistory records a single accepted bet submission.
type BetHistory struct {
	ID        string          `bson:"_id" json:"id"`
	AccountID string          `bson:"accountId" json:"accountId"`
	RoundID   string          `bson:"roundId" json:"roundId"`
	Amount    decimal.Decimal `bson:"amount" json:"amount"`
	Outcome   BetOutcome      `bson:"outcome" json:"outcome"`
	CreatedAt time.Time       `bson:"createdAt" json:"createdAt"`
	SettledAt *time.Time      `bson:"settledAt,omitempty" json:"settledAt,omitempty"`
}
