package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ArowuTest/jackpot-backend/internal/metrics"
	"github.com/ArowuTest/jackpot-backend/internal/models"
	"github.com/ArowuTest/jackpot-backend/internal/repositories"
)

// DefaultPromos are created on first start when seeding is enabled.
var DefaultPromos = []models.CreatePromoRequest{
	{Code: "WELCOME100", Amount: decimal.NewFromInt(100), MaxUses: 100},
	{Code: "BONUS50", Amount: decimal.NewFromInt(50), MaxUses: 50},
}

// PromoService manages voucher codes. Each account redeems a code at most once.
type PromoService struct {
	repo      repositories.PromoCodeRepository
	ledger    *Ledger
	metrics   *metrics.Metrics
	precision int32
	clock     Clock
	logger    *zap.Logger
}

func NewPromoService(repo repositories.PromoCodeRepository, ledger *Ledger, m *metrics.Metrics, precision int32, clock Clock, logger *zap.Logger) *PromoService {
	return &PromoService{repo: repo, ledger: ledger, metrics: m, precision: precision, clock: clock, logger: logger}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *PromoService) Create(ctx context.Context, req models.CreatePromoRequest) (*models.PromoCode, error) {
	code := normalizeCode(req.Code)
	if len(code) < 3 || req.MaxUses < 1 {
		return nil, ErrInvalidAmount
	}
	if !req.Amount.IsPositive() || !req.Amount.Equal(req.Amount.Truncate(s.precision)) {
		return nil, ErrInvalidAmount
	}
	now := s.clock.Now()
	promo := &models.PromoCode{
		Code:      code,
		Amount:    req.Amount,
		MaxUses:   req.MaxUses,
		UsedBy:    []string{},
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, promo); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrPromoExists
		}
		return nil, err
	}
	s.logger.Info("promo code created", zap.String("code", code), zap.String("amount", req.Amount.String()), zap.Int("max_uses", req.MaxUses))
	return promo, nil
}

func (s *PromoService) List(ctx context.Context) ([]*models.PromoCode, error) {
	return s.repo.FindAll(ctx)
}

// Toggle flips the active flag.
func (s *PromoService) Toggle(ctx context.Context, code string) (*models.PromoCode, error) {
	promo, err := s.repo.FindByCode(ctx, normalizeCode(code))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrPromoNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.repo.SetActive(ctx, promo.Code, !promo.Active)
}

// Redeem claims one use of code for the account and credits its amount. If the
// credit fails the use is released again.
func (s *PromoService) Redeem(ctx context.Context, accountID, code string) (*models.PromoCode, *models.Account, error) {
	code = normalizeCode(code)
	acct, err := s.ledger.Account(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}
	if !acct.Active {
		s.metrics.PromoRedemptions.WithLabelValues("inactive_account").Inc()
		return nil, nil, ErrAccountInactive
	}

	promo, err := s.repo.ClaimUse(ctx, code, accountID)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		s.metrics.PromoRedemptions.WithLabelValues("not_found").Inc()
		return nil, nil, ErrPromoNotFound
	case errors.Is(err, repositories.ErrConflict):
		reason := s.claimFailure(ctx, code, accountID)
		s.metrics.PromoRedemptions.WithLabelValues("rejected").Inc()
		return nil, nil, reason
	case err != nil:
		return nil, nil, err
	}

	acct, err = s.ledger.Credit(ctx, accountID, promo.Amount, models.EntryKindPromo, code)
	if err != nil {
		if rerr := s.repo.ReleaseUse(context.WithoutCancel(ctx), code, accountID); rerr != nil {
			s.logger.Error("release promo use after failed credit", zap.String("code", code), zap.String("account_id", accountID), zap.Error(rerr))
		}
		s.metrics.PromoRedemptions.WithLabelValues("error").Inc()
		return nil, nil, err
	}

	s.metrics.PromoRedemptions.WithLabelValues("redeemed").Inc()
	s.logger.Info("promo redeemed", zap.String("code", code), zap.String("account_id", accountID))
	return promo, acct, nil
}

// claimFailure explains why a conditional claim did not match.
func (s *PromoService) claimFailure(ctx context.Context, code, accountID string) error {
	promo, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return ErrPromoNotFound
	}
	if !promo.Active {
		return ErrPromoInactive
	}
	for _, id := range promo.UsedBy {
		if id == accountID {
			return ErrPromoAlreadyUsed
		}
	}
	return ErrPromoExhausted
}

// SeedDefaults creates the default codes that do not exist yet.
func (s *PromoService) SeedDefaults(ctx context.Context) error {
	for _, req := range DefaultPromos {
		if _, err := s.Create(ctx, req); err != nil && !errors.Is(err, ErrPromoExists) {
			return err
		}
	}
	return nil
}
