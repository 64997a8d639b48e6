package trade

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/tradeboard/internal/domain"
	"go.uber.org/zap"
)

type fakeConfirmer struct {
	answer bool
	err    error
	calls  int
}

func (f *fakeConfirmer) Confirm(_ context.Context, _ domain.TradeIntent, _ Quote) (bool, error) {
	f.calls++
	return f.answer, f.err
}

type fakeSubmitter struct {
	err    error
	record *domain.TradeRecord
	calls  int
	// block lets a test hold the submitter inside the submitting window.
	block chan struct{}
}

func (f *fakeSubmitter) SubmitManualTrade(_ context.Context, intent domain.TradeIntent, _ string) (*domain.TradeRecord, error) {
	f.calls++
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.record != nil {
		return f.record, nil
	}
	return &domain.TradeRecord{
		Timestamp: time.Now(),
		Side:      intent.Side,
		Amount:    intent.Amount,
		Price:     intent.Price,
	}, nil
}

func newTestExecutor(confirmer Confirmer, submitter Submitter, onConfirmed ConfirmedFunc) *Executor {
	return NewExecutor(ExecutorConfig{
		Limits:         testLimits(),
		ConfirmTimeout: time.Second,
		Cooldown:       5 * time.Second,
	}, confirmer, submitter, onConfirmed, zap.NewNop())
}

func richBalances() domain.Balances {
	return domain.Balances{Base: dec("1"), Quote: dec("100000")}
}

func TestExecuteRejectedSkipsConfirmAndSubmit(t *testing.T) {
	confirmer := &fakeConfirmer{answer: true}
	submitter := &fakeSubmitter{}
	e := newTestExecutor(confirmer, submitter, nil)

	out := e.Execute(context.Background(), buyIntent("0.5", "50000"), richBalances())
	require.Equal(t, StateRejected, out.State)
	require.Equal(t, ReasonAboveMaximum, out.Verdict.Reason)
	require.Zero(t, confirmer.calls)
	require.Zero(t, submitter.calls)
}

func TestExecuteCancelled(t *testing.T) {
	confirmer := &fakeConfirmer{answer: false}
	submitter := &fakeSubmitter{}
	e := newTestExecutor(confirmer, submitter, nil)

	out := e.Execute(context.Background(), buyIntent("0.01", "50000"), richBalances())
	require.Equal(t, StateCancelled, out.State)
	require.Equal(t, 1, confirmer.calls)
	require.Zero(t, submitter.calls)

	// a cancelled attempt charges no cooldown
	require.True(t, e.CooldownState().LastTradeAt.IsZero())
}

func TestExecuteConfirmed(t *testing.T) {
	confirmer := &fakeConfirmer{answer: true}
	submitter := &fakeSubmitter{}

	var gotIntent domain.TradeIntent
	var gotQuote Quote
	hookCalls := 0
	e := newTestExecutor(confirmer, submitter, func(intent domain.TradeIntent, quote Quote, record *domain.TradeRecord) {
		hookCalls++
		gotIntent = intent
		gotQuote = quote
		require.NotNil(t, record)
	})

	out := e.Execute(context.Background(), buyIntent("0.01", "50000"), richBalances())
	require.Equal(t, StateConfirmed, out.State)
	require.NotNil(t, out.Record)
	require.Equal(t, 1, hookCalls)
	require.Equal(t, domain.SideBuy, gotIntent.Side)
	require.True(t, dec("500.5").Equal(gotQuote.Total))

	// cooldown starts on confirmed success
	cd := e.CooldownState()
	require.False(t, cd.LastTradeAt.IsZero())
	require.True(t, cd.Active(time.Now()))
}

func TestExecuteFailedChargesNoCooldown(t *testing.T) {
	confirmer := &fakeConfirmer{answer: true}
	submitter := &fakeSubmitter{err: errors.New("boom")}
	hookCalls := 0
	e := newTestExecutor(confirmer, submitter, func(domain.TradeIntent, Quote, *domain.TradeRecord) { hookCalls++ })

	out := e.Execute(context.Background(), buyIntent("0.01", "50000"), richBalances())
	require.Equal(t, StateFailed, out.State)
	require.Error(t, out.Err)
	require.Zero(t, hookCalls)
	require.True(t, e.CooldownState().LastTradeAt.IsZero())
}

func TestExecuteCooldownBlocksNextAttempt(t *testing.T) {
	confirmer := &fakeConfirmer{answer: true}
	submitter := &fakeSubmitter{}
	e := newTestExecutor(confirmer, submitter, nil)

	first := e.Execute(context.Background(), buyIntent("0.01", "50000"), richBalances())
	require.Equal(t, StateConfirmed, first.State)

	second := e.Execute(context.Background(), buyIntent("0.01", "50000"), richBalances())
	require.Equal(t, StateRejected, second.State)
	require.Equal(t, ReasonCooldownActive, second.Verdict.Reason)
}

func TestExecuteReentrancyGuard(t *testing.T) {
	confirmer := &fakeConfirmer{answer: true}
	submitter := &fakeSubmitter{block: make(chan struct{})}
	e := newTestExecutor(confirmer, submitter, nil)

	firstDone := make(chan Outcome, 1)
	go func() {
		firstDone <- e.Execute(context.Background(), buyIntent("0.01", "50000"), richBalances())
	}()

	// wait until the first attempt is inside the submitting window
	require.Eventually(t, func() bool {
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.inFlight
	}, time.Second, 5*time.Millisecond)

	second := e.Execute(context.Background(), buyIntent("0.01", "50000"), richBalances())
	require.Equal(t, StateRejected, second.State)
	require.Equal(t, ReasonExecutionInFlight, second.Verdict.Reason)

	close(submitter.block)
	first := <-firstDone
	require.Equal(t, StateConfirmed, first.State)
}

func TestApplyFill(t *testing.T) {
	balances := domain.Balances{Base: dec("0.5"), Quote: dec("10000")}
	intent := buyIntent("0.01", "50000")
	quote := BuildQuote(domain.SideBuy, intent.Amount, intent.Price, dec("0.001"))

	after := ApplyFill(balances, intent, quote)
	require.True(t, dec("0.51").Equal(after.Base), "base = %s", after.Base)
	require.True(t, dec("9499.5").Equal(after.Quote), "quote = %s", after.Quote)

	sell := domain.TradeIntent{Side: domain.SideSell, Amount: dec("0.01"), Price: dec("50000")}
	sellQuote := BuildQuote(domain.SideSell, sell.Amount, sell.Price, dec("0.001"))
	afterSell := ApplyFill(after, sell, sellQuote)
	require.True(t, dec("0.5").Equal(afterSell.Base), "base = %s", afterSell.Base)
	require.True(t, dec("9999").Equal(afterSell.Quote), "quote = %s", afterSell.Quote)
}
