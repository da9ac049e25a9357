package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BetSlot is one account's accumulated position within a round.
type BetSlot struct {
	AccountID   string          `bson:"accountId" json:"accountId"`
	DisplayName string          `bson:"displayName" json:"displayName"`
	Avatar      string          `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Amount      decimal.Decimal `bson:"amount" json:"amount"`
	PlacedAt    time.Time       `bson:"placedAt" json:"placedAt"`
	UpdatedAt   time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// Round is the persisted form of the live round. The pot is derived from Slots and never stored.
type Round struct {
	ID         string     `bson:"_id" json:"id"`
	Number     int64      `bson:"number" json:"number"`
	Phase      Phase      `bson:"phase" json:"phase"`
	Slots      []BetSlot  `bson:"slots" json:"slots"`
	Deadline   *time.Time `bson:"deadline,omitempty" json:"deadline,omitempty"`
	WinnerID   string     `bson:"winnerId,omitempty" json:"winnerId,omitempty"`
	CreatedAt  time.Time  `bson:"createdAt" json:"createdAt"`
	LockedAt   *time.Time `bson:"lockedAt,omitempty" json:"lockedAt,omitempty"`
	FinishedAt *time.Time `bson:"finishedAt,omitempty" json:"finishedAt,omitempty"`
	UpdatedAt  time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// Pot sums the slot amounts.
func (r *Round) Pot() decimal.Decimal {
	pot := decimal.Zero
	for _, s := range r.Slots {
		pot = pot.Add(s.Amount)
	}
	return pot
}

// Entry is one line of a bet pool snapshot.
type Entry struct {
	AccountID   string          `bson:"accountId" json:"accountId"`
	DisplayName string          `bson:"displayName" json:"displayName"`
	Avatar      string          `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Amount      decimal.Decimal `bson:"amount" json:"amount"`
	Probability decimal.Decimal `bson:"probability" json:"probability"`
}

// RoundView is the read model served to the presentation layer.
type RoundView struct {
	RoundID    string          `json:"roundId"`
	Number     int64           `json:"number"`
	Phase      Phase           `json:"phase"`
	Pot        decimal.Decimal `json:"pot"`
	Deadline   *time.Time      `json:"deadline,omitempty"`
	TimeLeft   float64         `json:"timeLeft"`
	Entries    []Entry         `json:"entries"`
	WinnerID   string          `json:"winnerId,omitempty"`
	Halted     bool            `json:"halted"`
	HaltReason string          `json:"haltReason,omitempty"`
	MinBettors int             `json:"minBettors"`
	ServerTime time.Time       `json:"serverTime"`
}

// PlaceBetRequest is the body of POST /game/bets.
type PlaceBetRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// BetReceipt is returned for an accepted bet.
type BetReceipt struct {
	RoundID     string          `json:"roundId"`
	AccountID   string          `json:"accountId"`
	SlotAmount  decimal.Decimal `json:"slotAmount"`
	Pot         decimal.Decimal `json:"pot"`
	Probability decimal.Decimal `json:"probability"`
	Phase       Phase           `json:"phase"`
	Balance     decimal.Decimal `json:"balance"`
}
