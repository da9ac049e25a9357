package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArowuTest/jackpot-backend/internal/models"
	"github.com/ArowuTest/jackpot-backend/internal/repositories"
)

func TestPayoutAppliesOncePerRound(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &models.Account{ID: "A", NameKey: "alice", Balance: decimal.NewFromInt(50), Active: true}))

	acct, applied, err := repo.Payout(ctx, "A", decimal.NewFromInt(100), "r1")
	require.NoError(t, err)
	assert.True(t, applied)
	assert.True(t, acct.Balance.Equal(decimal.NewFromInt(150)))

	acct, applied, err = repo.Payout(ctx, "A", decimal.NewFromInt(100), "r1")
	require.NoError(t, err)
	assert.False(t, applied)
	assert.True(t, acct.Balance.Equal(decimal.NewFromInt(150)))
	assert.EqualValues(t, 1, acct.TotalWins)

	_, _, err = repo.Payout(ctx, "ghost", decimal.NewFromInt(1), "r1")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestPaidRoundsAreBounded(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &models.Account{ID: "A", NameKey: "alice", Active: true}))

	for i := 0; i <= models.PaidRoundsKept; i++ {
		_, applied, err := repo.Payout(ctx, "A", decimal.NewFromInt(1), fmt.Sprintf("r%d", i))
		require.NoError(t, err)
		require.True(t, applied)
	}

	acct, err := repo.FindByID(ctx, "A")
	require.NoError(t, err)
	assert.Len(t, acct.PaidRounds, models.PaidRoundsKept)
	assert.False(t, acct.WasPaid("r0"))
	assert.True(t, acct.WasPaid(fmt.Sprintf("r%d", models.PaidRoundsKept)))
}
