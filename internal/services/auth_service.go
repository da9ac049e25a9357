package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ArowuTest/jackpot-backend/internal/config"
	"github.com/ArowuTest/jackpot-backend/internal/models"
	"github.com/ArowuTest/jackpot-backend/internal/repositories"
	"github.com/ArowuTest/jackpot-backend/pkg/jwt"
)

// AuthService issues access tokens for players and operators.
type AuthService struct {
	admins   repositories.AdminUserRepository
	accounts *AccountService
	tokens   *jwt.Manager
	cfg      config.AuthConfig
	clock    Clock
	logger   *zap.Logger
}

func NewAuthService(
	admins repositories.AdminUserRepository,
	accounts *AccountService,
	tokens *jwt.Manager,
	cfg config.AuthConfig,
	clock Clock,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		admins:   admins,
		accounts: accounts,
		tokens:   tokens,
		cfg:      cfg,
		clock:    clock,
		logger:   logger,
	}
}

// AdminLogin checks the bcrypt hash and returns an admin token.
func (s *AuthService) AdminLogin(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	admin, err := s.admins.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(req.Password)); err != nil {
		s.logger.Warn("admin login rejected", zap.String("email", admin.Email))
		return nil, ErrInvalidCredentials
	}

	token, expires, err := s.tokens.Issue(admin.Email, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, ExpiresAt: expires}, nil
}

// SeedAdmin creates the first operator when none exists and credentials are configured.
func (s *AuthService) SeedAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	n, err := s.admins.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	now := s.clock.Now()
	err = s.admins.Create(ctx, &models.AdminUser{
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Password:  string(hash),
		Role:      models.RoleAdmin,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil && !errors.Is(err, repositories.ErrDuplicate) {
		return err
	}
	s.logger.Info("seeded admin user", zap.String("email", email))
	return nil
}

// MockLogin signs a player in by display name. Development only.
func (s *AuthService) MockLogin(ctx context.Context, req models.MockLoginRequest) (*models.AuthResponse, error) {
	if !s.cfg.AllowMockLogin {
		return nil, ErrMockLoginDisabled
	}
	name, key, err := normalizeName(req.DisplayName)
	if err != nil {
		return nil, err
	}
	return s.playerLogin(ctx, models.Identity{ID: "mock:" + key, DisplayName: name})
}

// TelegramLogin verifies the login widget signature and signs the player in.
func (s *AuthService) TelegramLogin(ctx context.Context, req models.TelegramLoginRequest) (*models.AuthResponse, error) {
	if s.cfg.TelegramBotToken == "" {
		if !s.cfg.AllowMockLogin {
			return nil, ErrInvalidCredentials
		}
		s.logger.Warn("telegram bot token not configured; accepting unsigned login", zap.Int64("telegram_id", req.ID))
	} else if err := VerifyTelegramLogin(req, s.cfg.TelegramBotToken, s.cfg.TelegramMaxAge, s.clock.Now()); err != nil {
		s.logger.Warn("telegram login rejected", zap.Int64("telegram_id", req.ID), zap.Error(err))
		return nil, ErrInvalidCredentials
	}

	name := strings.TrimSpace(req.FirstName + " " + req.LastName)
	if req.Username != "" {
		name = req.Username
	}
	if len(name) < 2 {
		name = "player" + strconv.FormatInt(req.ID, 10)
	}
	return s.playerLogin(ctx, models.Identity{
		ID:          "tg:" + strconv.FormatInt(req.ID, 10),
		DisplayName: name,
		Avatar:      req.PhotoURL,
	})
}

func (s *AuthService) playerLogin(ctx context.Context, ident models.Identity) (*models.AuthResponse, error) {
	acct, _, err := s.accounts.Authenticate(ctx, ident)
	if err != nil {
		return nil, err
	}
	token, expires, err := s.tokens.Issue(acct.ID, models.RolePlayer)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, ExpiresAt: expires, Account: acct}, nil
}

// Tokens exposes the token manager to the auth middleware.
func (s *AuthService) Tokens() *jwt.Manager { return s.tokens }
