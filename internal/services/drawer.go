package services

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/ArowuTest/jackpot-backend/internal/models"
)

// Drawer picks a round winner with probability proportional to stake.
type Drawer struct {
	mu  sync.Mutex
	rnd Random
}

func NewDrawer(rnd Random) *Drawer {
	return &Drawer{rnd: rnd}
}

// SelectWinner returns the winning account id. A non-empty override naming a
// participant wins outright and forced is true; an override naming anyone else
// is ignored and the draw is random.
func (d *Drawer) SelectWinner(entries []models.Entry, override string) (winner string, forced bool, err error) {
	pot := decimal.Zero
	for _, e := range entries {
		if e.Amount.IsPositive() {
			pot = pot.Add(e.Amount)
		}
	}
	if !pot.IsPositive() {
		return "", false, ErrEmptyRound
	}

	if override != "" {
		for _, e := range entries {
			if e.AccountID == override && e.Amount.IsPositive() {
				return override, true, nil
			}
		}
	}

	d.mu.Lock()
	u := d.rnd.Float64()
	d.mu.Unlock()

	r := pot.Mul(decimal.NewFromFloat(u))
	cumulative := decimal.Zero
	last := ""
	for _, e := range entries {
		if !e.Amount.IsPositive() {
			continue
		}
		cumulative = cumulative.Add(e.Amount)
		last = e.AccountID
		if r.LessThanOrEqual(cumulative) {
			return e.AccountID, false, nil
		}
	}
	return last, false, nil
}
