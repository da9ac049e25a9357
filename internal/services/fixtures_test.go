package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ArowuTest/jackpot-backend/internal/config"
	"github.com/ArowuTest/jackpot-backend/internal/events"
	"github.com/ArowuTest/jackpot-backend/internal/metrics"
	"github.com/ArowuTest/jackpot-backend/internal/models"
	"github.com/ArowuTest/jackpot-backend/internal/repositories"
	"github.com/ArowuTest/jackpot-backend/internal/repositories/memory"
)

// manualClock fires timers only when the test advances it.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	clock *manualClock
	when  time.Time
	f     func()
	done  bool
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, when: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

// Advance moves time forward, running due timers in order on the calling goroutine.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()
	for {
		c.mu.Lock()
		var next *manualTimer
		for _, t := range c.timers {
			if t.done || t.when.After(target) {
				continue
			}
			if next == nil || t.when.Before(next.when) {
				next = t
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		next.done = true
		if next.when.After(c.now) {
			c.now = next.when
		}
		c.mu.Unlock()
		next.f()
	}
}

type fixedRandom float64

func (r fixedRandom) Float64() float64 { return float64(r) }

// recorder keeps every published event.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, ev events.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

func (r *recorder) count(t events.Type) int {
	n := 0
	for _, got := range r.types() {
		if got == t {
			n++
		}
	}
	return n
}

// flakyAccounts fails the first failCredits credits before they apply and
// reports the first lostPayouts payouts as failed after they apply.
type flakyAccounts struct {
	repositories.AccountRepository
	failCredits atomic.Int32
	lostPayouts atomic.Int32
}

var errStoreDown = errors.New("store unavailable")

func (f *flakyAccounts) Credit(ctx context.Context, id string, amount decimal.Decimal) (*models.Account, error) {
	if f.failCredits.Add(-1) >= 0 {
		return nil, errStoreDown
	}
	return f.AccountRepository.Credit(ctx, id, amount)
}

func (f *flakyAccounts) Payout(ctx context.Context, id string, amount decimal.Decimal, roundID string) (*models.Account, bool, error) {
	if f.failCredits.Add(-1) >= 0 {
		return nil, false, errStoreDown
	}
	acct, applied, err := f.AccountRepository.Payout(ctx, id, amount, roundID)
	if err == nil && f.lostPayouts.Add(-1) >= 0 {
		return nil, false, errStoreDown
	}
	return acct, applied, err
}

type testEnv struct {
	t         *testing.T
	clock     *manualClock
	events    *recorder
	metrics   *metrics.Metrics
	accounts  *flakyAccounts
	journal   *memory.LedgerEntryRepository
	rounds    *memory.RoundRepository
	archive   *memory.HistoryRepository
	bets      *memory.BetHistoryRepository
	settings  *memory.SettingRepository
	promos    *memory.PromoCodeRepository
	ledger    *Ledger
	history   *HistoryService
	overrides *RigOverride
	settler   *SettlementService
	scheduler *RoundScheduler
	logger    *zap.Logger
	cfg       config.GameConfig
}

func testGameConfig() config.GameConfig {
	return config.GameConfig{
		MinBettors:      2,
		CountdownWindow: 60 * time.Second,
		TickInterval:    time.Second,
		SpinDuration:    3 * time.Second,
		FinishGrace:     10 * time.Second,
		StartingBalance: 1000,
		AmountPrecision: 2,
		HistoryLimit:    20,
		PresenceTTL:     time.Minute,
		OpTimeout:       time.Second,
	}
}

func newTestEnv(t *testing.T, rnd Random) *testEnv {
	t.Helper()
	env := &testEnv{
		t:        t,
		clock:    newManualClock(),
		events:   &recorder{},
		metrics:  metrics.New(),
		accounts: &flakyAccounts{AccountRepository: memory.NewAccountRepository()},
		journal:  memory.NewLedgerEntryRepository(),
		rounds:   memory.NewRoundRepository(),
		archive:  memory.NewHistoryRepository(),
		bets:     memory.NewBetHistoryRepository(),
		settings: memory.NewSettingRepository(),
		promos:   memory.NewPromoCodeRepository(),
		cfg:      testGameConfig(),
		logger:   zap.NewNop(),
	}
	env.build(rnd)
	return env
}

// build wires services over the env's stores; calling it again simulates a restart.
func (e *testEnv) build(rnd Random) {
	logger := e.logger
	policy := RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}

	e.ledger = NewLedger(e.accounts, e.journal, e.events, e.clock, logger)
	e.history = NewHistoryService(e.archive, e.bets, e.cfg.HistoryLimit)
	e.overrides = NewRigOverride(e.settings, e.clock, logger)
	e.settler = NewSettlementService(e.ledger, NewDrawer(rnd), e.overrides, e.history, e.bets, policy, e.metrics, e.clock, logger)
	e.scheduler = NewRoundScheduler(RoundSchedulerDeps{
		Config:     e.cfg,
		Settlement: config.SettlementConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond},
		Ledger:     e.ledger,
		Settler:    e.settler,
		History:    e.history,
		Rounds:     e.rounds,
		Bets:       e.bets,
		Publisher:  e.events,
		Metrics:    e.metrics,
		Clock:      e.clock,
		Logger:     logger,
	})
}

func (e *testEnv) account(id, name string, balance int64) {
	e.t.Helper()
	require.NoError(e.t, e.accounts.Create(context.Background(), &models.Account{
		ID:          id,
		DisplayName: name,
		NameKey:     name,
		Balance:     decimal.NewFromInt(balance),
		Active:      true,
	}))
}

func (e *testEnv) balance(id string) decimal.Decimal {
	e.t.Helper()
	acct, err := e.accounts.FindByID(context.Background(), id)
	require.NoError(e.t, err)
	return acct.Balance
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
