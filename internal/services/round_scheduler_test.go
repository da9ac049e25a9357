package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ArowuTest/jackpot-backend/internal/events"
	"github.com/ArowuTest/jackpot-backend/internal/models"
)

func startedEnv(t *testing.T, rnd Random) *testEnv {
	t.Helper()
	env := newTestEnv(t, rnd)
	env.account("A", "alice", 1000)
	env.account("B", "bob", 1000)
	env.account("C", "carol", 1000)
	require.NoError(t, env.scheduler.Start(context.Background()))
	t.Cleanup(env.scheduler.Stop)
	return env
}

func TestFullRoundLifecycle(t *testing.T) {
	env := startedEnv(t, fixedRandom(0.55))
	ctx := context.Background()

	first := env.scheduler.State()
	assert.Equal(t, models.PhaseWaiting, first.Phase)
	assert.EqualValues(t, 1, first.Number)

	receipt, err := env.scheduler.SubmitBet(ctx, "A", dec("40"))
	require.NoError(t, err)
	assert.Equal(t, models.PhaseWaiting, receipt.Phase)
	assert.True(t, receipt.Balance.Equal(dec("960")))

	receipt, err = env.scheduler.SubmitBet(ctx, "B", dec("60"))
	require.NoError(t, err)
	assert.Equal(t, models.PhaseCountdown, receipt.Phase)
	assert.True(t, receipt.Pot.Equal(dec("100")))
	assert.True(t, receipt.Probability.Equal(dec("0.6")))

	view := env.scheduler.State()
	require.NotNil(t, view.Deadline)
	assert.Equal(t, env.clock.Now().Add(60*time.Second), *view.Deadline)
	assert.InDelta(t, 60, view.TimeLeft, 0.001)

	env.clock.Advance(30 * time.Second)
	assert.InDelta(t, 30, env.scheduler.State().TimeLeft, 0.001)

	env.clock.Advance(30 * time.Second)
	assert.Equal(t, models.PhaseLocked, env.scheduler.State().Phase)
	_, err = env.scheduler.SubmitBet(ctx, "C", dec("5"))
	assert.ErrorIs(t, err, ErrRoundClosed)
	assert.True(t, env.balance("C").Equal(dec("1000")))

	env.clock.Advance(3 * time.Second)
	view = env.scheduler.State()
	assert.Equal(t, models.PhaseFinished, view.Phase)
	assert.Equal(t, "B", view.WinnerID)
	_, err = env.scheduler.SubmitBet(ctx, "C", dec("5"))
	assert.ErrorIs(t, err, ErrRoundClosed)
	assert.True(t, env.balance("C").Equal(dec("1000")))
	assert.True(t, env.balance("B").Equal(dec("1040")))
	assert.True(t, env.balance("A").Equal(dec("960")))

	rec, err := env.history.Get(ctx, first.RoundID)
	require.NoError(t, err)
	assert.True(t, rec.Pot.Equal(dec("100")))
	assert.Equal(t, "B", rec.Winner.AccountID)
	require.Len(t, rec.Entries, 2)
	assert.True(t, rec.Entries[0].Probability.Equal(dec("0.4")))

	env.clock.Advance(10 * time.Second)
	next := env.scheduler.State()
	assert.Equal(t, models.PhaseWaiting, next.Phase)
	assert.NotEqual(t, first.RoundID, next.RoundID)
	assert.EqualValues(t, 2, next.Number)
	assert.True(t, next.Pot.IsZero())

	bets, err := env.history.Bets(ctx, "A", 10)
	require.NoError(t, err)
	require.Len(t, bets, 1)
	assert.Equal(t, models.BetOutcomeLost, bets[0].Outcome)

	assert.Equal(t, 1, env.events.count(events.RoundCountdown))
	assert.Equal(t, 1, env.events.count(events.RoundLocked))
	assert.Equal(t, 1, env.events.count(events.RoundFinished))
	assert.Equal(t, 2, env.events.count(events.RoundOpened))
	assert.GreaterOrEqual(t, env.events.count(events.RoundTick), 50)
}

func TestSingleBettorWaitsIndefinitely(t *testing.T) {
	env := startedEnv(t, fixedRandom(0.5))
	ctx := context.Background()

	_, err := env.scheduler.SubmitBet(ctx, "A", dec("10"))
	require.NoError(t, err)
	_, err = env.scheduler.SubmitBet(ctx, "A", dec("15"))
	require.NoError(t, err)

	env.clock.Advance(time.Hour)
	view := env.scheduler.State()
	assert.Equal(t, models.PhaseWaiting, view.Phase)
	assert.True(t, view.Pot.Equal(dec("25")))
	require.Len(t, view.Entries, 1)
	assert.Nil(t, view.Deadline)
}

func TestCountdownIsNotExtendedByLaterBets(t *testing.T) {
	env := startedEnv(t, fixedRandom(0.5))
	ctx := context.Background()

	_, err := env.scheduler.SubmitBet(ctx, "A", dec("10"))
	require.NoError(t, err)
	_, err = env.scheduler.SubmitBet(ctx, "B", dec("10"))
	require.NoError(t, err)
	deadline := *env.scheduler.State().Deadline

	env.clock.Advance(20 * time.Second)
	_, err = env.scheduler.SubmitBet(ctx, "C", dec("10"))
	require.NoError(t, err)
	assert.Equal(t, deadline, *env.scheduler.State().Deadline)

	env.clock.Advance(40 * time.Second)
	assert.Equal(t, models.PhaseLocked, env.scheduler.State().Phase)
}

func TestSubmitBetValidation(t *testing.T) {
	env := startedEnv(t, fixedRandom(0.5))
	ctx := context.Background()

	_, err := env.scheduler.SubmitBet(ctx, "A", dec("0"))
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = env.scheduler.SubmitBet(ctx, "A", dec("1.005"))
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = env.scheduler.SubmitBet(ctx, "ghost", dec("1"))
	assert.ErrorIs(t, err, ErrUnknownAccount)
	_, err = env.scheduler.SubmitBet(ctx, "A", dec("5000"))
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	assert.True(t, env.scheduler.State().Pot.IsZero())
	assert.True(t, env.balance("A").Equal(dec("1000")))
}

func TestBetFromUnknownAccountIsLogged(t *testing.T) {
	env := newTestEnv(t, fixedRandom(0.5))
	core, logs := observer.New(zapcore.ErrorLevel)
	env.logger = zap.New(core)
	env.build(fixedRandom(0.5))
	require.NoError(t, env.scheduler.Start(context.Background()))
	t.Cleanup(env.scheduler.Stop)

	_, err := env.scheduler.SubmitBet(context.Background(), "ghost", dec("10"))
	assert.ErrorIs(t, err, ErrUnknownAccount)

	entries := logs.FilterMessage("operation on unknown account").AllUntimed()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "ghost", entries[0].ContextMap()["account_id"])
}

func TestForceDrawOnlyDuringCountdown(t *testing.T) {
	env := startedEnv(t, fixedRandom(0.1))
	ctx := context.Background()

	assert.ErrorIs(t, env.scheduler.ForceDraw(ctx), ErrInvalidPhase)

	_, err := env.scheduler.SubmitBet(ctx, "A", dec("10"))
	require.NoError(t, err)
	_, err = env.scheduler.SubmitBet(ctx, "B", dec("10"))
	require.NoError(t, err)

	require.NoError(t, env.scheduler.ForceDraw(ctx))
	assert.Equal(t, models.PhaseLocked, env.scheduler.State().Phase)
	assert.ErrorIs(t, env.scheduler.ForceDraw(ctx), ErrInvalidPhase)

	env.clock.Advance(3 * time.Second)
	assert.Equal(t, models.PhaseFinished, env.scheduler.State().Phase)
	assert.True(t, env.balance("A").Equal(dec("1010")))

	// the stale countdown timers must not fire into the next round
	env.clock.Advance(70 * time.Second)
	assert.Equal(t, models.PhaseWaiting, env.scheduler.State().Phase)
	assert.Equal(t, 1, env.events.count(events.RoundFinished))
}

func TestVoidRoundRefundsStakes(t *testing.T) {
	env := startedEnv(t, fixedRandom(0.5))
	ctx := context.Background()

	_, err := env.scheduler.SubmitBet(ctx, "A", dec("10"))
	require.NoError(t, err)
	_, err = env.scheduler.SubmitBet(ctx, "A", dec("5"))
	require.NoError(t, err)
	_, err = env.scheduler.SubmitBet(ctx, "B", dec("20"))
	require.NoError(t, err)
	voided := env.scheduler.State().RoundID

	require.NoError(t, env.scheduler.VoidRound(ctx, "maintenance"))
	assert.True(t, env.balance("A").Equal(dec("1000")))
	assert.True(t, env.balance("B").Equal(dec("1000")))

	view := env.scheduler.State()
	assert.Equal(t, models.PhaseWaiting, view.Phase)
	assert.NotEqual(t, voided, view.RoundID)
	assert.Equal(t, 1, env.events.count(events.RoundVoided))

	// the old countdown is gone
	env.clock.Advance(2 * time.Minute)
	assert.Equal(t, models.PhaseWaiting, env.scheduler.State().Phase)
	exists, err := env.history.Exists(ctx, voided)
	require.NoError(t, err)
	assert.False(t, exists)

	bets, err := env.history.Bets(ctx, "A", 10)
	require.NoError(t, err)
	for _, b := range bets {
		assert.Equal(t, models.BetOutcomeRefunded, b.Outcome)
	}
}

func TestHaltedSettlementResumes(t *testing.T) {
	env := startedEnv(t, fixedRandom(0.9))
	ctx := context.Background()

	_, err := env.scheduler.SubmitBet(ctx, "A", dec("50"))
	require.NoError(t, err)
	_, err = env.scheduler.SubmitBet(ctx, "B", dec("50"))
	require.NoError(t, err)

	env.accounts.failCredits.Store(100)
	env.clock.Advance(63 * time.Second)

	view := env.scheduler.State()
	assert.True(t, view.Halted)
	assert.Equal(t, models.PhaseLocked, view.Phase)
	assert.Equal(t, 1, env.events.count(events.SettlementHalted))
	_, err = env.scheduler.SubmitBet(ctx, "C", dec("1"))
	assert.ErrorIs(t, err, ErrRoundClosed)

	// nothing advances while halted
	env.clock.Advance(time.Minute)
	assert.Equal(t, models.PhaseLocked, env.scheduler.State().Phase)

	env.accounts.failCredits.Store(0)
	require.NoError(t, env.scheduler.ResumeSettlement(ctx))
	view = env.scheduler.State()
	assert.False(t, view.Halted)
	assert.Equal(t, models.PhaseFinished, view.Phase)
	assert.Equal(t, "B", view.WinnerID)
	assert.True(t, env.balance("B").Equal(dec("1050")))

	assert.ErrorIs(t, env.scheduler.ResumeSettlement(ctx), ErrInvalidPhase)
}

func TestHaltedUnpaidRoundCanBeVoided(t *testing.T) {
	env := startedEnv(t, fixedRandom(0.9))
	ctx := context.Background()

	_, err := env.scheduler.SubmitBet(ctx, "A", dec("50"))
	require.NoError(t, err)
	_, err = env.scheduler.SubmitBet(ctx, "B", dec("50"))
	require.NoError(t, err)

	env.accounts.failCredits.Store(3)
	env.clock.Advance(63 * time.Second)
	require.True(t, env.scheduler.State().Halted)

	require.NoError(t, env.scheduler.VoidRound(ctx, "payout store down"))
	assert.True(t, env.balance("A").Equal(dec("1000")))
	assert.True(t, env.balance("B").Equal(dec("1000")))
	assert.False(t, env.scheduler.State().Halted)
}

func TestRestartVoidsInFlightRound(t *testing.T) {
	env := startedEnv(t, fixedRandom(0.5))
	ctx := context.Background()

	_, err := env.scheduler.SubmitBet(ctx, "A", dec("30"))
	require.NoError(t, err)
	_, err = env.scheduler.SubmitBet(ctx, "B", dec("20"))
	require.NoError(t, err)
	crashed := env.scheduler.State()
	env.scheduler.Stop()

	env.build(fixedRandom(0.5))
	require.NoError(t, env.scheduler.Start(ctx))
	t.Cleanup(env.scheduler.Stop)

	assert.True(t, env.balance("A").Equal(dec("1000")))
	assert.True(t, env.balance("B").Equal(dec("1000")))

	view := env.scheduler.State()
	assert.Equal(t, models.PhaseWaiting, view.Phase)
	assert.NotEqual(t, crashed.RoundID, view.RoundID)
	assert.EqualValues(t, crashed.Number+1, view.Number)
}

func TestRestartArchivesPaidRound(t *testing.T) {
	env := startedEnv(t, fixedRandom(0.5))
	ctx := context.Background()

	_, err := env.scheduler.SubmitBet(ctx, "A", dec("30"))
	require.NoError(t, err)
	_, err = env.scheduler.SubmitBet(ctx, "B", dec("20"))
	require.NoError(t, err)
	crashed := env.scheduler.State()
	env.scheduler.Stop()

	// the payout went through but the process died before archiving
	_, err = env.ledger.Credit(ctx, "B", dec("50"), models.EntryKindPayout, crashed.RoundID)
	require.NoError(t, err)

	env.build(fixedRandom(0.5))
	require.NoError(t, env.scheduler.Start(ctx))
	t.Cleanup(env.scheduler.Stop)

	rec, err := env.history.Get(ctx, crashed.RoundID)
	require.NoError(t, err)
	assert.Equal(t, "B", rec.Winner.AccountID)
	assert.True(t, env.balance("B").Equal(dec("1030")))
	assert.True(t, env.balance("A").Equal(dec("970")))
}

func TestRestartArchivesRoundPaidWithoutJournal(t *testing.T) {
	env := startedEnv(t, fixedRandom(0.5))
	ctx := context.Background()

	_, err := env.scheduler.SubmitBet(ctx, "A", dec("30"))
	require.NoError(t, err)
	_, err = env.scheduler.SubmitBet(ctx, "B", dec("20"))
	require.NoError(t, err)
	crashed := env.scheduler.State()
	env.scheduler.Stop()

	// the account took the pot but the process died before the journal write
	_, applied, err := env.accounts.Payout(ctx, "B", dec("50"), crashed.RoundID)
	require.NoError(t, err)
	require.True(t, applied)

	env.build(fixedRandom(0.5))
	require.NoError(t, env.scheduler.Start(ctx))
	t.Cleanup(env.scheduler.Stop)

	rec, err := env.history.Get(ctx, crashed.RoundID)
	require.NoError(t, err)
	assert.Equal(t, "B", rec.Winner.AccountID)
	assert.True(t, env.balance("B").Equal(dec("1030")))
	assert.True(t, env.balance("A").Equal(dec("970")))

	journal, err := env.ledger.Journal(ctx, crashed.RoundID)
	require.NoError(t, err)
	kinds := map[models.EntryKind]int{}
	for _, e := range journal {
		kinds[e.Kind]++
	}
	assert.Equal(t, 1, kinds[models.EntryKindPayout])
	assert.Zero(t, kinds[models.EntryKindRefund])
}

func TestAuditLiveRound(t *testing.T) {
	env := startedEnv(t, fixedRandom(0.5))
	ctx := context.Background()

	_, err := env.scheduler.SubmitBet(ctx, "A", dec("12.5"))
	require.NoError(t, err)

	report, err := env.scheduler.AuditLiveRound(ctx)
	require.NoError(t, err)
	assert.True(t, report.Balanced)
	assert.True(t, report.Pot.Equal(dec("12.5")))
}
