package services

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ArowuTest/jackpot-backend/internal/models"
)

// BetPool holds the slots of one round. It is not safe for concurrent use;
// the round scheduler serializes every call.
type BetPool struct {
	roundID string
	open    bool
	slots   []models.BetSlot
	index   map[string]int
	pot     decimal.Decimal
}

func NewBetPool(roundID string) *BetPool {
	return &BetPool{
		roundID: roundID,
		open:    true,
		index:   make(map[string]int),
		pot:     decimal.Zero,
	}
}

// RestoreBetPool rebuilds a pool from persisted slots.
func RestoreBetPool(roundID string, slots []models.BetSlot, open bool) *BetPool {
	p := NewBetPool(roundID)
	p.open = open
	for _, s := range slots {
		p.index[s.AccountID] = len(p.slots)
		p.slots = append(p.slots, s)
		p.pot = p.pot.Add(s.Amount)
	}
	return p
}

func (p *BetPool) RoundID() string { return p.roundID }

func (p *BetPool) Open() bool { return p.open }

// Close rejects every later AddOrIncrease.
func (p *BetPool) Close() { p.open = false }

func (p *BetPool) Pot() decimal.Decimal { return p.pot }

// AddOrIncrease creates the bettor's slot or adds amount to it. It returns the
// new pot and the bettor's winning probability.
func (p *BetPool) AddOrIncrease(roundID string, bettor models.Identity, amount decimal.Decimal, at time.Time) (decimal.Decimal, decimal.Decimal, error) {
	if !p.open || roundID != p.roundID {
		return decimal.Zero, decimal.Zero, ErrRoundClosed
	}
	if !amount.IsPositive() {
		return decimal.Zero, decimal.Zero, ErrInvalidAmount
	}

	i, ok := p.index[bettor.ID]
	if !ok {
		i = len(p.slots)
		p.index[bettor.ID] = i
		p.slots = append(p.slots, models.BetSlot{
			AccountID:   bettor.ID,
			DisplayName: bettor.DisplayName,
			Avatar:      bettor.Avatar,
			Amount:      decimal.Zero,
			PlacedAt:    at,
		})
	}
	slot := &p.slots[i]
	slot.Amount = slot.Amount.Add(amount)
	slot.UpdatedAt = at
	p.pot = p.pot.Add(amount)

	return p.pot, slot.Amount.Div(p.pot), nil
}

// Slot returns the bettor's accumulated amount, zero when absent.
func (p *BetPool) Slot(accountID string) decimal.Decimal {
	if i, ok := p.index[accountID]; ok {
		return p.slots[i].Amount
	}
	return decimal.Zero
}

func (p *BetPool) DistinctBettorCount() int { return len(p.slots) }

// Slots returns a copy in insertion order.
func (p *BetPool) Slots() []models.BetSlot {
	return append([]models.BetSlot(nil), p.slots...)
}

// Snapshot returns the entries with their probabilities.
func (p *BetPool) Snapshot() []models.Entry {
	return snapshot(p.slots)
}

func snapshot(slots []models.BetSlot) []models.Entry {
	pot := decimal.Zero
	for _, s := range slots {
		pot = pot.Add(s.Amount)
	}
	entries := make([]models.Entry, 0, len(slots))
	for _, s := range slots {
		prob := decimal.Zero
		if pot.IsPositive() {
			prob = s.Amount.Div(pot)
		}
		entries = append(entries, models.Entry{
			AccountID:   s.AccountID,
			DisplayName: s.DisplayName,
			Avatar:      s.Avatar,
			Amount:      s.Amount,
			Probability: prob,
		})
	}
	return entries
}
