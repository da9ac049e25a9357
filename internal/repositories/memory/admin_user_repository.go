package memory

import (
	"context"
	"sync"

	"github.com/ArowuTest/jackpot-backend/internal/models"
	"github.com/ArowuTest/jackpot-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ repositories.AdminUserRepository = (*AdminUserRepository)(nil)

type AdminUserRepository struct {
	mu     sync.Mutex
	admins map[string]*models.AdminUser
}

func NewAdminUserRepository() *AdminUserRepository {
	return &AdminUserRepository{admins: make(map[string]*models.AdminUser)}
}

func (r *AdminUserRepository) Create(_ context.Context, adminUser *models.AdminUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.admins[adminUser.Email]; ok {
		return repositories.ErrDuplicate
	}
	adminUser.ID = primitive.NewObjectID()
	cp := *adminUser
	r.admins[adminUser.Email] = &cp
	return nil
}

func (r *AdminUserRepository) FindByEmail(_ context.Context, email string) (*models.AdminUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.admins[email]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *AdminUserRepository) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.admins)), nil
}
