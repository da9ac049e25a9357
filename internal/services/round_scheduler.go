package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ArowuTest/jackpot-backend/internal/config"
	"github.com/ArowuTest/jackpot-backend/internal/events"
	"github.com/ArowuTest/jackpot-backend/internal/metrics"
	"github.com/ArowuTest/jackpot-backend/internal/models"
	"github.com/ArowuTest/jackpot-backend/internal/repositories"
)

// RoundSchedulerDeps wires the scheduler.
type RoundSchedulerDeps struct {
	Config     config.GameConfig
	Settlement config.SettlementConfig
	Ledger     *Ledger
	Settler    *SettlementService
	History    *HistoryService
	Rounds     repositories.RoundRepository
	Bets       repositories.BetHistoryRepository
	Publisher  events.Publisher
	Metrics    *metrics.Metrics
	Clock      Clock
	Logger     *zap.Logger
}

// RoundScheduler owns the single live round and drives it through
// Waiting, Countdown, Locked and Finished. All state changes happen under mu;
// settlement runs outside it while the round is Locked.
type RoundScheduler struct {
	cfg       config.GameConfig
	ledger    *Ledger
	settler   *SettlementService
	history   *HistoryService
	rounds    repositories.RoundRepository
	bets      repositories.BetHistoryRepository
	publisher events.Publisher
	metrics   *metrics.Metrics
	clock     Clock
	logger    *zap.Logger

	minBet        decimal.Decimal
	maxBet        decimal.Decimal
	settleTimeout time.Duration

	mu         sync.Mutex
	round      *models.Round
	pool       *BetPool
	lastNumber int64
	timer      Timer
	gen        uint64
	settling   bool
	halted     error
	started    bool
	stopped    bool
}

var _ GameService = (*RoundScheduler)(nil)

func NewRoundScheduler(d RoundSchedulerDeps) *RoundScheduler {
	publisher := d.Publisher
	if publisher == nil {
		publisher = events.Discard{}
	}
	// every attempt may spend the op timeout plus the longest backoff
	attempts := d.Settlement.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	settleTimeout := time.Duration(2*attempts) * (d.Config.OpTimeout + d.Settlement.MaxBackoff)

	return &RoundScheduler{
		cfg:           d.Config,
		ledger:        d.Ledger,
		settler:       d.Settler,
		history:       d.History,
		rounds:        d.Rounds,
		bets:          d.Bets,
		publisher:     publisher,
		metrics:       d.Metrics,
		clock:         d.Clock,
		logger:        d.Logger,
		minBet:        decimal.NewFromFloat(d.Config.MinBet),
		maxBet:        decimal.NewFromFloat(d.Config.MaxBet),
		settleTimeout: settleTimeout,
	}
}

// Start resolves any round left over from a previous process and opens a fresh one.
// A leftover round whose payout is journaled is archived; any other is voided and refunded.
func (s *RoundScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	last, err := s.history.LastRoundNumber(ctx)
	if err != nil {
		return fmt.Errorf("read last round number: %w", err)
	}
	s.lastNumber = last

	leftover, err := s.rounds.FindCurrent(ctx)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
	case err != nil:
		return fmt.Errorf("load persisted round: %w", err)
	default:
		if leftover.Number > s.lastNumber {
			s.lastNumber = leftover.Number
		}
		if err := s.recoverLocked(ctx, leftover); err != nil {
			return fmt.Errorf("recover round %s: %w", leftover.ID, err)
		}
	}

	s.started = true
	s.openRoundLocked(ctx)
	return nil
}

// Stop cancels pending timers. A settlement already running completes.
func (s *RoundScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.cancelTimerLocked()
}

// SubmitBet debits the account and adds the stake to the live round. The debit
// and the slot update happen under the round lock, so a bet is never counted in a
// round that has already locked.
func (s *RoundScheduler) SubmitBet(ctx context.Context, accountID string, amount decimal.Decimal) (*models.BetReceipt, error) {
	if err := s.validateAmount(amount); err != nil {
		s.metrics.BetsRejected.WithLabelValues("invalid_amount").Inc()
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.round == nil || s.stopped || s.halted != nil || !s.round.Phase.AcceptsBets() || !s.pool.Open() {
		s.metrics.BetsRejected.WithLabelValues("round_closed").Inc()
		return nil, ErrRoundClosed
	}
	roundID := s.round.ID

	opCtx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
	defer cancel()

	acct, err := s.ledger.Debit(opCtx, accountID, amount, roundID)
	if err != nil {
		s.metrics.BetsRejected.WithLabelValues(rejectReason(err)).Inc()
		return nil, err
	}

	now := s.clock.Now()
	pot, prob, err := s.pool.AddOrIncrease(roundID, models.Identity{
		ID:          acct.ID,
		DisplayName: acct.DisplayName,
		Avatar:      acct.Avatar,
	}, amount, now)
	if err != nil {
		// unreachable while the lock is held; give the stake back
		s.logger.Error("bet pool rejected a debited stake", zap.String("round_id", roundID), zap.Error(err))
		if _, rerr := s.ledger.Credit(context.WithoutCancel(opCtx), accountID, amount, models.EntryKindRefund, roundID); rerr != nil {
			s.metrics.IntegrityViolations.WithLabelValues("stranded_stake").Inc()
			s.logger.Error("refund of rejected stake failed", zap.String("account_id", accountID), zap.Error(rerr))
		}
		return nil, err
	}

	if err := s.bets.Create(opCtx, &models.BetHistory{
		ID:        uuid.NewString(),
		AccountID: accountID,
		RoundID:   roundID,
		Amount:    amount,
		Outcome:   models.BetOutcomePending,
		CreatedAt: now,
	}); err != nil {
		s.logger.Warn("record bet history", zap.String("account_id", accountID), zap.Error(err))
	}

	s.metrics.BetsAccepted.Inc()
	s.metrics.BetVolume.Add(amount.InexactFloat64())
	s.metrics.PotSize.Set(pot.InexactFloat64())
	s.metrics.Bettors.Set(float64(s.pool.DistinctBettorCount()))

	s.persistLocked(opCtx)
	s.publishLocked(events.BetPlaced, map[string]any{
		"accountId": accountID,
		"amount":    amount,
		"pot":       pot,
		"entries":   s.pool.Snapshot(),
	})

	if s.round.Phase == models.PhaseWaiting && s.pool.DistinctBettorCount() >= s.cfg.MinBettors {
		s.startCountdownLocked(opCtx)
	}

	return &models.BetReceipt{
		RoundID:     roundID,
		AccountID:   accountID,
		SlotAmount:  s.pool.Slot(accountID),
		Pot:         pot,
		Probability: prob,
		Phase:       s.round.Phase,
		Balance:     acct.Balance,
	}, nil
}

// State returns the read model of the live round.
func (s *RoundScheduler) State() models.RoundView {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	view := models.RoundView{
		MinBettors: s.cfg.MinBettors,
		ServerTime: now,
		Entries:    []models.Entry{},
	}
	if s.halted != nil {
		view.Halted = true
		view.HaltReason = s.halted.Error()
	}
	if s.round == nil {
		return view
	}
	view.RoundID = s.round.ID
	view.Number = s.round.Number
	view.Phase = s.round.Phase
	view.Pot = s.pool.Pot()
	view.Entries = s.pool.Snapshot()
	view.WinnerID = s.round.WinnerID
	if s.round.Deadline != nil {
		deadline := *s.round.Deadline
		view.Deadline = &deadline
		if s.round.Phase == models.PhaseCountdown {
			if left := deadline.Sub(now); left > 0 {
				view.TimeLeft = left.Seconds()
			}
		}
	}
	return view
}

// ForceDraw ends the countdown immediately.
func (s *RoundScheduler) ForceDraw(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.halted != nil {
		return ErrSettlementHalted
	}
	if s.round == nil || s.round.Phase != models.PhaseCountdown {
		return ErrInvalidPhase
	}
	s.logger.Warn("countdown cut short by operator", zap.String("round_id", s.round.ID))
	s.lockInLocked(ctx, true)
	return nil
}

// VoidRound refunds every stake of the live round and opens a new one. A locked
// round can be voided only after its settlement halted without paying.
func (s *RoundScheduler) VoidRound(ctx context.Context, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.round == nil || s.settling {
		return ErrInvalidPhase
	}
	switch s.round.Phase {
	case models.PhaseWaiting, models.PhaseCountdown:
	case models.PhaseLocked:
		if s.halted == nil || s.settler.Paid(s.round.ID) {
			return ErrInvalidPhase
		}
	default:
		return ErrInvalidPhase
	}

	s.cancelTimerLocked()
	s.pool.Close()
	round := s.snapshotLocked()
	if err := s.voidLocked(ctx, round, reason); err != nil {
		return err
	}
	s.halted = nil
	s.openRoundLocked(ctx)
	return nil
}

// ResumeSettlement retries a halted settlement from the stage where it stopped.
// The winner is never drawn again.
func (s *RoundScheduler) ResumeSettlement(ctx context.Context) error {
	s.mu.Lock()
	if s.halted == nil || s.settling || s.round == nil || s.round.Phase != models.PhaseLocked {
		s.mu.Unlock()
		return ErrInvalidPhase
	}
	s.logger.Info("resuming halted settlement", zap.String("round_id", s.round.ID))
	s.halted = nil
	s.settling = true
	round := s.snapshotLocked()
	s.mu.Unlock()

	return s.runSettlement(round)
}

// Halted returns the error that stopped settlement, nil while the engine runs.
func (s *RoundScheduler) Halted() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.halted
}

func (s *RoundScheduler) validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !amount.Equal(amount.Truncate(s.cfg.AmountPrecision)) {
		return ErrInvalidAmount
	}
	if s.minBet.IsPositive() && amount.LessThan(s.minBet) {
		return ErrInvalidAmount
	}
	if s.maxBet.IsPositive() && amount.GreaterThan(s.maxBet) {
		return ErrInvalidAmount
	}
	return nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrUnknownAccount):
		return "unknown_account"
	case errors.Is(err, ErrAccountInactive):
		return "inactive"
	}
	return "error"
}

func (s *RoundScheduler) openRoundLocked(ctx context.Context) {
	s.lastNumber++
	now := s.clock.Now()
	s.round = &models.Round{
		ID:        uuid.NewString(),
		Number:    s.lastNumber,
		Phase:     models.PhaseWaiting,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.pool = NewBetPool(s.round.ID)
	s.metrics.PotSize.Set(0)
	s.metrics.Bettors.Set(0)

	s.persistLocked(ctx)
	s.publishLocked(events.RoundOpened, map[string]any{"number": s.round.Number})
	s.logger.Info("round opened", zap.String("round_id", s.round.ID), zap.Int64("round_number", s.round.Number))
}

func (s *RoundScheduler) startCountdownLocked(ctx context.Context) {
	now := s.clock.Now()
	deadline := now.Add(s.cfg.CountdownWindow)
	s.round.Phase = models.PhaseCountdown
	s.round.Deadline = &deadline

	s.persistLocked(ctx)
	s.publishLocked(events.RoundCountdown, map[string]any{
		"deadline": deadline,
		"timeLeft": s.cfg.CountdownWindow.Seconds(),
	})
	s.logger.Info("countdown started", zap.String("round_id", s.round.ID), zap.Time("deadline", deadline))
	s.schedule(minDuration(s.cfg.TickInterval, s.cfg.CountdownWindow), s.tickLocked)
}

func (s *RoundScheduler) tickLocked() func() {
	left := s.round.Deadline.Sub(s.clock.Now())
	if left <= 0 {
		s.lockInLocked(context.Background(), false)
		return nil
	}
	s.publishLocked(events.RoundTick, map[string]any{"timeLeft": left.Seconds()})
	s.schedule(minDuration(s.cfg.TickInterval, left), s.tickLocked)
	return nil
}

func (s *RoundScheduler) lockInLocked(ctx context.Context, forced bool) {
	s.cancelTimerLocked()
	now := s.clock.Now()
	s.pool.Close()
	s.round.Phase = models.PhaseLocked
	s.round.LockedAt = &now

	s.persistLocked(ctx)
	s.publishLocked(events.RoundLocked, map[string]any{
		"pot":     s.pool.Pot(),
		"entries": s.pool.Snapshot(),
		"forced":  forced,
	})
	s.logger.Info("round locked",
		zap.String("round_id", s.round.ID),
		zap.String("pot", s.pool.Pot().String()),
		zap.Int("bettors", s.pool.DistinctBettorCount()))
	s.schedule(s.cfg.SpinDuration, s.spinElapsedLocked)
}

func (s *RoundScheduler) spinElapsedLocked() func() {
	if s.settling || s.halted != nil {
		return nil
	}
	s.settling = true
	round := s.snapshotLocked()
	return func() { _ = s.runSettlement(round) }
}

// runSettlement is entered with settling set and mu released.
func (s *RoundScheduler) runSettlement(round *models.Round) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.settleTimeout)
	defer cancel()
	rec, err := s.settler.Settle(ctx, round)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.settling = false
	if s.round == nil || s.round.ID != round.ID {
		return err
	}
	if err != nil {
		s.halted = err
		s.publishLocked(events.SettlementHalted, map[string]any{"reason": err.Error()})
		s.logger.Error("settlement halted; no new round until resumed or voided",
			zap.String("round_id", round.ID), zap.Error(err))
		return err
	}
	s.finishLocked(ctx, rec)
	return nil
}

func (s *RoundScheduler) finishLocked(ctx context.Context, rec *models.HistoryRecord) {
	now := s.clock.Now()
	s.round.Phase = models.PhaseFinished
	s.round.WinnerID = rec.Winner.AccountID
	s.round.FinishedAt = &now

	s.persistLocked(ctx)
	s.publishLocked(events.RoundFinished, rec)
	if s.stopped {
		return
	}
	s.schedule(s.cfg.FinishGrace, s.retireLocked)
}

func (s *RoundScheduler) retireLocked() func() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.OpTimeout)
	defer cancel()
	if err := s.rounds.DeleteCurrent(ctx, s.round.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		s.logger.Warn("delete retired round", zap.String("round_id", s.round.ID), zap.Error(err))
	}
	s.settler.Forget(s.round.ID)
	s.openRoundLocked(ctx)
	return nil
}

// voidLocked refunds round and drops it from storage. Refunds are idempotent:
// the amount owed is the larger of the slot and the journaled stake, less what
// the journal shows as already refunded.
func (s *RoundScheduler) voidLocked(ctx context.Context, round *models.Round, reason string) error {
	journal, err := s.ledger.Journal(ctx, round.ID)
	if err != nil {
		return fmt.Errorf("read journal for %s: %w", round.ID, err)
	}
	staked := make(map[string]decimal.Decimal)
	refunded := make(map[string]decimal.Decimal)
	var order []string
	for _, slot := range round.Slots {
		staked[slot.AccountID] = slot.Amount
		order = append(order, slot.AccountID)
	}
	journaled := make(map[string]decimal.Decimal)
	for _, e := range journal {
		switch e.Kind {
		case models.EntryKindBet:
			if _, ok := staked[e.AccountID]; !ok {
				staked[e.AccountID] = decimal.Zero
				order = append(order, e.AccountID)
			}
			journaled[e.AccountID] = journaled[e.AccountID].Add(e.Amount.Neg())
		case models.EntryKindRefund:
			refunded[e.AccountID] = refunded[e.AccountID].Add(e.Amount)
		}
	}

	for _, id := range order {
		owed := decimal.Max(staked[id], journaled[id]).Sub(refunded[id])
		if !owed.IsPositive() {
			continue
		}
		if _, err := s.ledger.Credit(ctx, id, owed, models.EntryKindRefund, round.ID); err != nil {
			s.logger.Error("refund failed", zap.String("round_id", round.ID), zap.String("account_id", id), zap.Error(err))
			return fmt.Errorf("refund %s: %w", id, err)
		}
	}

	now := s.clock.Now()
	if err := s.bets.RefundRound(ctx, round.ID, now); err != nil {
		s.logger.Warn("mark bet history refunded", zap.String("round_id", round.ID), zap.Error(err))
	}
	if err := s.rounds.DeleteCurrent(ctx, round.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		s.logger.Warn("delete voided round", zap.String("round_id", round.ID), zap.Error(err))
	}
	s.settler.Forget(round.ID)
	s.metrics.RoundsVoided.Inc()
	s.publisher.Publish(ctx, events.Event{
		Type:    events.RoundVoided,
		RoundID: round.ID,
		Payload: map[string]any{"reason": reason},
		At:      now,
	})
	s.logger.Warn("round voided", zap.String("round_id", round.ID), zap.String("reason", reason))
	return nil
}

func (s *RoundScheduler) recoverLocked(ctx context.Context, round *models.Round) error {
	archived, err := s.history.Exists(ctx, round.ID)
	if err != nil {
		return err
	}
	if archived {
		return s.rounds.DeleteCurrent(ctx, round.ID)
	}

	journal, err := s.ledger.Journal(ctx, round.ID)
	if err != nil {
		return err
	}
	for _, e := range journal {
		if e.Kind != models.EntryKindPayout {
			continue
		}
		s.logger.Warn("archiving round paid before restart",
			zap.String("round_id", round.ID), zap.String("winner_id", e.AccountID))
		if _, err := s.settler.CompletePaid(ctx, round, e.AccountID); err != nil {
			return err
		}
		return s.archivePaidLocked(ctx, round)
	}

	// The balance may have moved without its journal line landing.
	ids := make([]string, 0, len(round.Slots))
	for _, slot := range round.Slots {
		ids = append(ids, slot.AccountID)
	}
	winnerID, err := s.ledger.PaidFrom(ctx, round.ID, ids)
	if err != nil {
		return err
	}
	if winnerID != "" {
		s.logger.Warn("archiving round paid before restart without a journaled payout",
			zap.String("round_id", round.ID), zap.String("winner_id", winnerID))
		if _, err := s.ledger.Credit(ctx, winnerID, round.Pot(), models.EntryKindPayout, round.ID); err != nil {
			return err
		}
		if _, err := s.settler.CompletePaid(ctx, round, winnerID); err != nil {
			return err
		}
		return s.archivePaidLocked(ctx, round)
	}

	return s.voidLocked(ctx, round, "server restarted before settlement")
}

func (s *RoundScheduler) archivePaidLocked(ctx context.Context, round *models.Round) error {
	s.settler.Forget(round.ID)
	return s.rounds.DeleteCurrent(ctx, round.ID)
}

// schedule arms the single round timer. A callback that fires after the timer
// was replaced or cancelled sees a different generation and does nothing.
// step runs under mu; the func it returns runs after mu is released.
func (s *RoundScheduler) schedule(d time.Duration, step func() func()) {
	s.cancelTimerLocked()
	gen := s.gen
	s.timer = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		if s.stopped || gen != s.gen {
			s.mu.Unlock()
			return
		}
		s.timer = nil
		after := step()
		s.mu.Unlock()
		if after != nil {
			after()
		}
	})
}

func (s *RoundScheduler) cancelTimerLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// snapshotLocked copies the round with the pool's slots for use outside mu.
func (s *RoundScheduler) snapshotLocked() *models.Round {
	cp := *s.round
	cp.Slots = s.pool.Slots()
	return &cp
}

func (s *RoundScheduler) persistLocked(ctx context.Context) {
	s.round.Slots = s.pool.Slots()
	s.round.UpdatedAt = s.clock.Now()
	if err := s.rounds.SaveCurrent(context.WithoutCancel(ctx), s.round); err != nil {
		s.logger.Warn("persist live round", zap.String("round_id", s.round.ID), zap.Error(err))
	}
}

func (s *RoundScheduler) publishLocked(t events.Type, payload any) {
	s.publisher.Publish(context.Background(), events.Event{
		Type:    t,
		RoundID: s.round.ID,
		Payload: payload,
		At:      s.clock.Now(),
	})
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
