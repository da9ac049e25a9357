package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ArowuTest/jackpot-backend/internal/models"
	"github.com/ArowuTest/jackpot-backend/internal/repositories"
)

var _ repositories.PromoCodeRepository = (*PromoCodeRepository)(nil)

type PromoCodeRepository struct {
	mu     sync.Mutex
	promos map[string]*models.PromoCode
}

func NewPromoCodeRepository() *PromoCodeRepository {
	return &PromoCodeRepository{promos: make(map[string]*models.PromoCode)}
}

func (r *PromoCodeRepository) Create(_ context.Context, promo *models.PromoCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.promos[promo.Code]; ok {
		return repositories.ErrDuplicate
	}
	r.promos[promo.Code] = clonePromo(promo)
	return nil
}

func (r *PromoCodeRepository) FindByCode(_ context.Context, code string) (*models.PromoCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.promos[code]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return clonePromo(p), nil
}

func (r *PromoCodeRepository) FindAll(_ context.Context) ([]*models.PromoCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.PromoCode, 0, len(r.promos))
	for _, p := range r.promos {
		out = append(out, clonePromo(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *PromoCodeRepository) SetActive(_ context.Context, code string, active bool) (*models.PromoCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.promos[code]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	p.Active = active
	p.UpdatedAt = time.Now()
	return clonePromo(p), nil
}

func (r *PromoCodeRepository) ClaimUse(_ context.Context, code, accountID string) (*models.PromoCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.promos[code]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if !p.Active || len(p.UsedBy) >= p.MaxUses {
		return nil, repositories.ErrConflict
	}
	for _, id := range p.UsedBy {
		if id == accountID {
			return nil, repositories.ErrConflict
		}
	}
	p.UsedBy = append(p.UsedBy, accountID)
	p.UpdatedAt = time.Now()
	return clonePromo(p), nil
}

func (r *PromoCodeRepository) ReleaseUse(_ context.Context, code, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.promos[code]
	if !ok {
		return repositories.ErrNotFound
	}
	kept := p.UsedBy[:0]
	for _, id := range p.UsedBy {
		if id != accountID {
			kept = append(kept, id)
		}
	}
	p.UsedBy = kept
	return nil
}

func clonePromo(p *models.PromoCode) *models.PromoCode {
	cp := *p
	cp.UsedBy = append([]string{}, p.UsedBy...)
	return &cp
}
