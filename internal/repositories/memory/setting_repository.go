package memory

import (
	"context"
	"sync"

	"github.com/ArowuTest/jackpot-backend/internal/models"
	"github.com/ArowuTest/jackpot-backend/internal/repositories"
)

var _ repositories.SettingRepository = (*SettingRepository)(nil)

type SettingRepository struct {
	mu       sync.Mutex
	settings map[string]models.Setting
}

func NewSettingRepository() *SettingRepository {
	return &SettingRepository{settings: make(map[string]models.Setting)}
}

func (r *SettingRepository) Get(_ context.Context, key string) (*models.Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.settings[key]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &s, nil
}

func (r *SettingRepository) Upsert(_ context.Context, setting *models.Setting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings[setting.Key] = *setting
	return nil
}

func (r *SettingRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.settings, key)
	return nil
}
