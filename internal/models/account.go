package models

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Account is a player identity and its balance. Balance is only ever written by the ledger.
type Account struct {
	ID          string          `bson:"_id" json:"id"`
	DisplayName string          `bson:"displayName" json:"displayName"`
	NameKey     string          `bson:"nameKey" json:"-"` // lower-cased display name, unique
	Avatar      string          `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Balance     decimal.Decimal `bson:"balance" json:"balance"`
	TotalBets   int64           `bson:"totalBets" json:"totalBets"`
	TotalWins   int64           `bson:"totalWins" json:"totalWins"`
	Active      bool            `bson:"active" json:"active"`
	JoinedAt    time.Time       `bson:"joinedAt" json:"joinedAt"`
	UpdatedAt   time.Time       `bson:"updatedAt" json:"updatedAt"`
	PaidRounds  []string        `bson:"paidRounds,omitempty" json:"-"` // latest rounds paid to this account
}

// PaidRoundsKept bounds Account.PaidRounds; older round ids fall off the front.
const PaidRoundsKept = 50

// WasPaid reports whether the payout of roundID is recorded on the account.
func (a *Account) WasPaid(roundID string) bool {
	return slices.Contains(a.PaidRounds, roundID)
}

// Identity is what an external identity provider hands over on login.
type Identity struct {
	ID          string
	DisplayName string
	Avatar      string
}

// UpdateProfileRequest is the body of PUT /me.
type UpdateProfileRequest struct {
	DisplayName string `json:"displayName" binding:"required,min=2,max=32"`
	Avatar      string `json:"avatar" binding:"omitempty,max=512"`
}
