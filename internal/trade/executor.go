package trade

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/tradeboard/internal/domain"
	"go.uber.org/zap"
)

// State is the executor's position in the trade lifecycle.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateRejected
	StateAwaitingConfirmation
	StateCancelled
	StateSubmitting
	StateConfirmed
	StateFailed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateRejected:
		return "rejected"
	case StateAwaitingConfirmation:
		return "awaiting_confirmation"
	case StateCancelled:
		return "cancelled"
	case StateSubmitting:
		return "submitting"
	case StateConfirmed:
		return "confirmed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Confirmer presents the trade summary to the user and waits for an
// explicit decision. The context carries the confirmation deadline;
// implementations must return false on timeout or cancel.
type Confirmer interface {
	Confirm(ctx context.Context, intent domain.TradeIntent, quote Quote) (bool, error)
}

// Submitter sends a confirmed trade to the bot server. Submission is
// never retried: an accidental double-submit is worse than a missed trade.
type Submitter interface {
	SubmitManualTrade(ctx context.Context, intent domain.TradeIntent, clientOrderID string) (*domain.TradeRecord, error)
}

// Outcome reports how a single trade attempt ended.
type Outcome struct {
	State   State
	Verdict Verdict
	// Record set only when State is StateConfirmed.
	Record *domain.TradeRecord
	// Err set when State is StateFailed.
	Err error
}

// ConfirmedFunc is invoked exactly once per confirmed trade, after the
// external call resolved successfully. It is where the application applies
// the optimistic balance update, marks the chart and raises the toast.
type ConfirmedFunc func(intent domain.TradeIntent, quote Quote, record *domain.TradeRecord)

// Executor orchestrates a manual trade end to end. It is the one place
// with externally visible side effects besides the chart adapter.
type Executor struct {
	confirmer      Confirmer
	submitter      Submitter
	limits         Limits
	confirmTimeout time.Duration
	cooldown       time.Duration
	onConfirmed    ConfirmedFunc
	logger         *zap.Logger

	mu          sync.Mutex
	inFlight    bool
	lastTradeAt time.Time

	// now is swappable for tests.
	now func() time.Time
}

// ExecutorConfig carries the executor's policy knobs.
type ExecutorConfig struct {
	Limits         Limits
	ConfirmTimeout time.Duration
	Cooldown       time.Duration
}

const (
	defaultConfirmTimeout = 30 * time.Second
	defaultCooldown       = 5 * time.Second
)

// NewExecutor creates an executor. onConfirmed may be nil.
func NewExecutor(cfg ExecutorConfig, confirmer Confirmer, submitter Submitter, onConfirmed ConfirmedFunc, logger *zap.Logger) *Executor {
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = defaultConfirmTimeout
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = defaultCooldown
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		confirmer:      confirmer,
		submitter:      submitter,
		limits:         cfg.Limits,
		confirmTimeout: cfg.ConfirmTimeout,
		cooldown:       cfg.Cooldown,
		onConfirmed:    onConfirmed,
		logger:         logger,
		now:            time.Now,
	}
}

// CooldownState returns the current cooldown snapshot.
func (e *Executor) CooldownState() domain.CooldownState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.CooldownState{LastTradeAt: e.lastTradeAt, Cooldown: e.cooldown}
}

// Execute runs one trade attempt through the full state machine:
// Idle -> Validating -> (Rejected | AwaitingConfirmation) ->
// (Cancelled | Submitting) -> (Confirmed | Failed) -> Idle.
// It returns the terminal state for this attempt; validation rejections
// and submission failures are reported in the Outcome, not as an error.
func (e *Executor) Execute(ctx context.Context, intent domain.TradeIntent, balances domain.Balances) Outcome {
	e.mu.Lock()
	cooldown := domain.CooldownState{LastTradeAt: e.lastTradeAt, Cooldown: e.cooldown}
	inFlight := e.inFlight
	e.mu.Unlock()

	verdict := Validate(intent, balances, cooldown, e.limits, inFlight, e.now())
	if !verdict.Valid {
		e.logger.Info("trade rejected",
			zap.String("intent", intent.String()),
			zap.String("reason", verdict.Reason.String()))
		return Outcome{State: StateRejected, Verdict: verdict}
	}

	confirmCtx, cancel := context.WithTimeout(ctx, e.confirmTimeout)
	defer cancel()

	confirmed, err := e.confirmer.Confirm(confirmCtx, intent, verdict.Quote)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		e.logger.Warn("confirmation prompt failed", zap.Error(err))
	}
	if err != nil || !confirmed {
		e.logger.Info("trade cancelled", zap.String("intent", intent.String()))
		return Outcome{State: StateCancelled, Verdict: verdict}
	}

	// the one blocking window where re-entrant attempts must be rejected
	e.mu.Lock()
	if e.inFlight {
		e.mu.Unlock()
		return Outcome{State: StateRejected, Verdict: Verdict{
			Valid:   false,
			Reason:  ReasonExecutionInFlight,
			Message: "a trade is currently being executed, please wait",
		}}
	}
	e.inFlight = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.inFlight = false
		e.mu.Unlock()
	}()

	clientOrderID := uuid.New().String()
	e.logger.Info("submitting trade",
		zap.String("intent", intent.String()),
		zap.String("client_order_id", clientOrderID))

	record, err := e.submitter.SubmitManualTrade(ctx, intent, clientOrderID)
	if err != nil {
		// no cooldown charged for failed attempts
		e.logger.Error("trade submission failed", zap.Error(err))
		return Outcome{State: StateFailed, Verdict: verdict, Err: errors.Wrap(err, "submit manual trade")}
	}

	e.mu.Lock()
	e.lastTradeAt = e.now()
	e.mu.Unlock()

	if record == nil {
		record = &domain.TradeRecord{
			Timestamp: e.now(),
			Side:      intent.Side,
			Amount:    intent.Amount,
			Price:     intent.Price,
		}
	}

	if e.onConfirmed != nil {
		e.onConfirmed(intent, verdict.Quote, record)
	}

	e.logger.Info("trade confirmed",
		zap.String("intent", intent.String()),
		zap.String("client_order_id", clientOrderID))

	return Outcome{State: StateConfirmed, Verdict: verdict, Record: record}
}

// ApplyFill returns balances adjusted by a confirmed trade: buys spend
// quote (value plus fee) and receive base, sells spend base and receive
// quote net of fee.
func ApplyFill(balances domain.Balances, intent domain.TradeIntent, quote Quote) domain.Balances {
	switch intent.Side {
	case domain.SideBuy:
		balances.Quote = balances.Quote.Sub(quote.Total)
		balances.Base = balances.Base.Add(intent.Amount)
	case domain.SideSell:
		balances.Base = balances.Base.Sub(intent.Amount)
		balances.Quote = balances.Quote.Add(quote.Total)
	}
	return balances
}
