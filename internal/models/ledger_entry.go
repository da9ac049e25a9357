package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind classifies a ledger movement.
type EntryKind string

const (
	EntryKindBet    EntryKind = "BET"
	EntryKindPayout EntryKind = "PAYOUT"
	EntryKindRefund EntryKind = "REFUND"
	EntryKindPromo  EntryKind = "PROMO"
	EntryKindAdjust EntryKind = "ADJUST"
)

// LedgerEntry journals one balance movement. Amount is signed: debits are negative.
type LedgerEntry struct {
	ID           string          `bson:"_id" json:"id"`
	AccountID    string          `bson:"accountId" json:"accountId"`
	Kind         EntryKind       `bson:"kind" json:"kind"`
	Amount       decimal.Decimal `bson:"amount" json:"amount"`
	Reference    string          `bson:"reference,omitempty" json:"reference,omitempty"` // round id or promo code
	BalanceAfter decimal.Decimal `bson:"balanceAfter" json:"balanceAfter"`
	CreatedAt    time.Time       `bson:"createdAt" json:"createdAt"`
}
