package memory

import (
	"context"
	"sync"

	"github.com/ArowuTest/jackpot-backend/internal/models"
	"github.com/ArowuTest/jackpot-backend/internal/repositories"
)

var _ repositories.LedgerEntryRepository = (*LedgerEntryRepository)(nil)

type LedgerEntryRepository struct {
	mu      sync.Mutex
	entries []*models.LedgerEntry
}

func NewLedgerEntryRepository() *LedgerEntryRepository {
	return &LedgerEntryRepository{}
}

func (r *LedgerEntryRepository) Create(_ context.Context, entry *models.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *entry
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *LedgerEntryRepository) FindByAccountID(_ context.Context, accountID string, limit int) ([]*models.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.LedgerEntry{}
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].AccountID != accountID {
			continue
		}
		cp := *r.entries[i]
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// FindByReference returns entries in insertion order.
func (r *LedgerEntryRepository) FindByReference(_ context.Context, reference string) ([]*models.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.LedgerEntry{}
	for _, e := range r.entries {
		if e.Reference == reference {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}
