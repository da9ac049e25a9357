package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ArowuTest/jackpot-backend/internal/models"
	"github.com/ArowuTest/jackpot-backend/internal/repositories"
)

var _ repositories.HistoryRepository = (*HistoryRepository)(nil)

type HistoryRepository struct {
	mu      sync.Mutex
	records map[string]*models.HistoryRecord
	order   []string
}

func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{records: make(map[string]*models.HistoryRecord)}
}

func (r *HistoryRepository) Append(_ context.Context, record *models.HistoryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[record.RoundID]; ok {
		return repositories.ErrDuplicate
	}
	r.records[record.RoundID] = cloneRecord(record)
	r.order = append(r.order, record.RoundID)
	return nil
}

func (r *HistoryRepository) FindByRoundID(_ context.Context, roundID string) (*models.HistoryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[roundID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (r *HistoryRepository) FindRecent(_ context.Context, limit int) ([]*models.HistoryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.HistoryRecord, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, cloneRecord(r.records[id]))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FinishedAt.After(out[j].FinishedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *HistoryRepository) CountWins(_ context.Context, accountID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, rec := range r.records {
		if rec.Winner.AccountID == accountID {
			n++
		}
	}
	return n, nil
}

func (r *HistoryRepository) LastRoundNumber(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var last int64
	for _, rec := range r.records {
		if rec.RoundNumber > last {
			last = rec.RoundNumber
		}
	}
	return last, nil
}

func cloneRecord(rec *models.HistoryRecord) *models.HistoryRecord {
	cp := *rec
	cp.Entries = append([]models.Entry(nil), rec.Entries...)
	return &cp
}
