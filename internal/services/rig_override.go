package services

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/ArowuTest/jackpot-backend/internal/models"
	"github.com/ArowuTest/jackpot-backend/internal/repositories"
)

// RigOverride holds the operator-chosen winner for the next draw. It is persisted
// so that a restart between Set and the draw does not lose it, and it is cleared
// by every completed draw whether or not it applied.
type RigOverride struct {
	mu     sync.Mutex
	repo   repositories.SettingRepository
	clock  Clock
	logger *zap.Logger
	value  string
}

func NewRigOverride(repo repositories.SettingRepository, clock Clock, logger *zap.Logger) *RigOverride {
	return &RigOverride{repo: repo, clock: clock, logger: logger}
}

// Load reads the persisted value at startup.
func (o *RigOverride) Load(ctx context.Context) error {
	s, err := o.repo.Get(ctx, models.SettingRiggedWinner)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	o.mu.Lock()
	o.value = s.Value
	o.mu.Unlock()
	if s.Value != "" {
		o.logger.Warn("rigged winner pending from previous run", zap.String("account_id", s.Value))
	}
	return nil
}

func (o *RigOverride) Set(ctx context.Context, accountID, actor string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	err := o.repo.Upsert(ctx, &models.Setting{
		Key:       models.SettingRiggedWinner,
		Value:     accountID,
		UpdatedBy: actor,
		UpdatedAt: o.clock.Now(),
	})
	if err != nil {
		return err
	}
	o.value = accountID
	o.logger.Warn("rigged winner set for next draw", zap.String("account_id", accountID), zap.String("actor", actor))
	return nil
}

func (o *RigOverride) Clear(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.value = ""
	if err := o.repo.Delete(ctx, models.SettingRiggedWinner); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return err
	}
	return nil
}

func (o *RigOverride) Peek() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.value
}

// Consume clears the pending value once a draw has used it. A value set after
// the draw read it is left for the next draw.
func (o *RigOverride) Consume(ctx context.Context, drawn string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if drawn == "" || o.value != drawn {
		return
	}
	o.value = ""
	if err := o.repo.Delete(ctx, models.SettingRiggedWinner); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		o.logger.Error("clear persisted rigged winner", zap.Error(err))
	}
}
