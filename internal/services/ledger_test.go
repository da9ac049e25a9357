package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ArowuTest/jackpot-backend/internal/events"
	"github.com/ArowuTest/jackpot-backend/internal/models"
)

func TestDebitInsufficientFunds(t *testing.T) {
	env := newTestEnv(t, fixedRandom(0.5))
	env.account("A", "alice", 5)

	_, err := env.ledger.Debit(context.Background(), "A", dec("10"), "r1")
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.True(t, env.balance("A").Equal(dec("5")))

	journal, err := env.ledger.Journal(context.Background(), "r1")
	require.NoError(t, err)
	assert.Empty(t, journal)
}

func TestDebitUnknownAndInactive(t *testing.T) {
	env := newTestEnv(t, fixedRandom(0.5))
	ctx := context.Background()

	_, err := env.ledger.Debit(ctx, "ghost", dec("1"), "r1")
	assert.ErrorIs(t, err, ErrUnknownAccount)

	env.account("A", "alice", 50)
	_, err = env.accounts.SetActive(ctx, "A", false)
	require.NoError(t, err)
	_, err = env.ledger.Debit(ctx, "A", dec("1"), "r1")
	assert.ErrorIs(t, err, ErrAccountInactive)

	_, err = env.ledger.Debit(ctx, "A", dec("0"), "r1")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestUnknownAccountIsLogged(t *testing.T) {
	env := newTestEnv(t, fixedRandom(0.5))
	core, logs := observer.New(zapcore.ErrorLevel)
	env.logger = zap.New(core)
	env.build(fixedRandom(0.5))
	ctx := context.Background()

	_, err := env.ledger.Credit(ctx, "ghost", dec("5"), models.EntryKindPromo, "WELCOME")
	assert.ErrorIs(t, err, ErrUnknownAccount)
	_, err = env.ledger.Adjust(ctx, "ghost", dec("5"), "ops")
	assert.ErrorIs(t, err, ErrUnknownAccount)

	entries := logs.FilterMessage("operation on unknown account").AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, "ghost", entries[0].ContextMap()["account_id"])
	assert.Equal(t, "credit", entries[0].ContextMap()["op"])
	assert.Equal(t, "lookup", entries[1].ContextMap()["op"])
}

func TestPayoutReplayMovesNothing(t *testing.T) {
	env := newTestEnv(t, fixedRandom(0.5))
	env.account("A", "alice", 100)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		acct, err := env.ledger.Credit(ctx, "A", dec("40"), models.EntryKindPayout, "r1")
		require.NoError(t, err)
		assert.True(t, acct.Balance.Equal(dec("140")))
		assert.EqualValues(t, 1, acct.TotalWins)
	}

	// a different round still pays
	acct, err := env.ledger.Credit(ctx, "A", dec("10"), models.EntryKindPayout, "r2")
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(dec("150")))

	journal, err := env.ledger.Journal(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, journal, 1)
}

func TestDebitAndCreditJournal(t *testing.T) {
	env := newTestEnv(t, fixedRandom(0.5))
	env.account("A", "alice", 100)
	ctx := context.Background()

	acct, err := env.ledger.Debit(ctx, "A", dec("30"), "r1")
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(dec("70")))
	assert.EqualValues(t, 1, acct.TotalBets)

	acct, err = env.ledger.Credit(ctx, "A", dec("55"), models.EntryKindPayout, "r1")
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(dec("125")))
	assert.EqualValues(t, 1, acct.TotalWins)

	journal, err := env.ledger.Journal(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, journal, 2)
	assert.Equal(t, models.EntryKindBet, journal[0].Kind)
	assert.True(t, journal[0].Amount.Equal(dec("-30")))
	assert.True(t, journal[1].BalanceAfter.Equal(dec("125")))

	assert.Equal(t, 2, env.events.count(events.BalanceChanged))
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	env := newTestEnv(t, fixedRandom(0.5))
	env.account("A", "alice", 100)

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.ledger.Debit(context.Background(), "A", dec("7"), "r1"); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 14, accepted)
	assert.True(t, env.balance("A").Equal(dec("2")))
}

func TestAdjustClampsAtZero(t *testing.T) {
	env := newTestEnv(t, fixedRandom(0.5))
	env.account("A", "alice", 20)
	ctx := context.Background()

	acct, err := env.ledger.Adjust(ctx, "A", dec("-50"), "ops@example.com")
	require.NoError(t, err)
	assert.True(t, acct.Balance.IsZero())

	statement, err := env.ledger.Statement(ctx, "A", 10)
	require.NoError(t, err)
	require.Len(t, statement, 1)
	assert.True(t, statement[0].Amount.Equal(dec("-20")))

	_, err = env.ledger.Adjust(ctx, "A", dec("0"), "ops@example.com")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}
