package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/ArowuTest/jackpot-backend/internal/models"
	"github.com/shopspring/decimal"
)

// Errors shared by every storage implementation. Drivers translate their own errors into these.
var (
	ErrNotFound            = errors.New("record not found")
	ErrDuplicate           = errors.New("duplicate record")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInactive            = errors.New("account inactive")
	ErrConflict            = errors.New("conditional update did not match")
)

// AccountRepository defines the interface for account data operations.
// Balance mutations are single atomic operations; callers never read-modify-write a balance.
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, id string) (*models.Account, error)
	FindByNameKey(ctx context.Context, nameKey string) (*models.Account, error)
	FindAll(ctx context.Context, page, limit int) ([]*models.Account, error)
	Count(ctx context.Context) (int64, error)
	UpdateProfile(ctx context.Context, id, displayName, nameKey, avatar string) (*models.Account, error)
	SetActive(ctx context.Context, id string, active bool) (*models.Account, error)
	// Debit subtracts amount when the account is active and the balance covers it, and increments totalBets.
	Debit(ctx context.Context, id string, amount decimal.Decimal) (*models.Account, error)
	// Credit adds amount.
	Credit(ctx context.Context, id string, amount decimal.Decimal) (*models.Account, error)
	// Payout adds amount and increments totalWins at most once per roundID. When
	// the round is already on the account, it returns the account unchanged with
	// applied set to false.
	Payout(ctx context.Context, id string, amount decimal.Decimal, roundID string) (acct *models.Account, applied bool, err error)
	// Adjust adds a signed delta and clamps the result at zero.
	Adjust(ctx context.Context, id string, delta decimal.Decimal) (*models.Account, error)
}

// RoundRepository persists the live round with its bet slots.
type RoundRepository interface {
	SaveCurrent(ctx context.Context, round *models.Round) error
	FindCurrent(ctx context.Context) (*models.Round, error)
	DeleteCurrent(ctx context.Context, id string) error
}

// HistoryRepository is the append-only archive of finished rounds.
type HistoryRepository interface {
	// Append fails with ErrDuplicate when the round already has a record.
	Append(ctx context.Context, record *models.HistoryRecord) error
	FindByRoundID(ctx context.Context, roundID string) (*models.HistoryRecord, error)
	FindRecent(ctx context.Context, limit int) ([]*models.HistoryRecord, error)
	CountWins(ctx context.Context, accountID string) (int64, error)
	LastRoundNumber(ctx context.Context) (int64, error)
}

// BetHistoryRepository defines the interface for per-submission bet records
type BetHistoryRepository interface {
	Create(ctx context.Context, bet *models.BetHistory) error
	FindByAccountID(ctx context.Context, accountID string, limit int) ([]*models.BetHistory, error)
	// SettleRound marks pending bets of the round won for winnerID and lost for everyone else.
	SettleRound(ctx context.Context, roundID, winnerID string, at time.Time) error
	RefundRound(ctx context.Context, roundID string, at time.Time) error
}

// LedgerEntryRepository defines the interface for the balance journal
type LedgerEntryRepository interface {
	Create(ctx context.Context, entry *models.LedgerEntry) error
	FindByAccountID(ctx context.Context, accountID string, limit int) ([]*models.LedgerEntry, error)
	FindByReference(ctx context.Context, reference string) ([]*models.LedgerEntry, error)
}

// PromoCodeRepository defines the interface for promo code operations
type PromoCodeRepository interface {
	Create(ctx context.Context, promo *models.PromoCode) error
	FindByCode(ctx context.Context, code string) (*models.PromoCode, error)
	FindAll(ctx context.Context) ([]*models.PromoCode, error)
	SetActive(ctx context.Context, code string, active bool) (*models.PromoCode, error)
	// ClaimUse appends accountID to usedBy only if the code is active, unused by the account
	// and below its cap. ErrConflict reports that one of those guards failed.
	ClaimUse(ctx context.Context, code, accountID string) (*models.PromoCode, error)
	ReleaseUse(ctx context.Context, code, accountID string) error
}

// AdminUserRepository defines the interface for admin user data operations
type AdminUserRepository interface {
	Create(ctx context.Context, adminUser *models.AdminUser) error
	FindByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	Count(ctx context.Context) (int64, error)
}

// SettingRepository stores runtime key/value settings
type SettingRepository interface {
	Get(ctx context.Context, key string) (*models.Setting, error)
	Upsert(ctx context.Context, setting *models.Setting) error
	Delete(ctx context.Context, key string) error
}
