// Package copilot drives the AI trading advisor. It assembles market context
// from the dashboard state and indicator summaries, requests advice from the
// bot server, and in copilot mode routes actionable suggestions through the
// standard trade confirmation path.
package copilot

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/tradeboard/internal/botapi"
	"github.com/vadiminshakov/tradeboard/internal/domain"
	"github.com/vadiminshakov/tradeboard/internal/market"
	"github.com/vadiminshakov/tradeboard/internal/state"
	"go.uber.org/zap"
)

// Mode selects how proactive the advisor is.
type Mode string

const (
	// ModeOpinion periodically asks for a market opinion, display only.
	ModeOpinion Mode = "opinion"
	// ModeSuggest requests advice on demand, display only.
	ModeSuggest Mode = "suggest"
	// ModeCopilot turns actionable advice into trade intents that still go
	// through validation and manual confirmation.
	ModeCopilot Mode = "copilot"
)

// ParseMode validates a mode string, defaulting to opinion.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case ModeOpinion, "":
		return ModeOpinion, nil
	case ModeSuggest:
		return ModeSuggest, nil
	case ModeCopilot:
		return ModeCopilot, nil
	}

	return "", errors.Errorf("unknown copilot mode %q", s)
}

const (
	defaultOpinionInterval = 30 * time.Minute
	opinionPrompt          = "Give a brief opinion on the current market state for this pair."
	// Suggestions below this confidence stay advisory even in copilot mode.
	minActionConfidence = 0.6
)

// Advisor is the chat surface of the bot server.
type Advisor interface {
	Chat(ctx context.Context, req botapi.ChatRequest) (*botapi.Advice, error)
	AILog(ctx context.Context, payload any)
}

// ContextSource supplies the indicator summary attached to advice requests.
type ContextSource func(ctx context.Context) (market.Summary, error)

// IntentSink receives trade intents produced in copilot mode.
type IntentSink func(ctx context.Context, intent domain.TradeIntent)

// Copilot is the advisor loop.
type Copilot struct {
	advisor    Advisor
	store      *state.Store
	summarize  ContextSource
	submit     IntentSink
	suggestAmt decimal.Decimal
	interval   time.Duration
	logger     *zap.Logger

	mu   sync.Mutex
	mode Mode
}

// Config tunes the copilot loop.
type Config struct {
	Mode Mode
	// OpinionInterval is how often opinion mode polls, default 30m.
	OpinionInterval time.Duration
	// SuggestAmount is the base amount attached to copilot trade intents.
	SuggestAmount decimal.Decimal
}

// New creates a copilot. summarize and submit may be nil; a nil summarize
// sends advice requests without indicator context, a nil submit makes
// copilot mode behave like suggest mode.
func New(advisor Advisor, store *state.Store, summarize ContextSource, submit IntentSink, cfg Config, logger *zap.Logger) *Copilot {
	if cfg.Mode == "" {
		cfg.Mode = ModeOpinion
	}
	if cfg.OpinionInterval <= 0 {
		cfg.OpinionInterval = defaultOpinionInterval
	}

	return &Copilot{
		advisor:    advisor,
		store:      store,
		summarize:  summarize,
		submit:     submit,
		suggestAmt: cfg.SuggestAmount,
		interval:   cfg.OpinionInterval,
		logger:     logger,
		mode:       cfg.Mode,
	}
}

// Mode returns the current mode.
func (c *Copilot) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.mode
}

// SetMode switches the advisor mode at runtime.
func (c *Copilot) SetMode(mode Mode) {
	c.mu.Lock()
	c.mode = mode
	c.mu.Unlock()

	c.logger.Info("copilot mode changed", zap.String("mode", string(mode)))
}

// Run polls for opinions while in opinion mode. It returns when ctx is done.
func (c *Copilot) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if c.Mode() != ModeOpinion {
				continue
			}
			if _, err := c.Ask(ctx, opinionPrompt); err != nil {
				c.logger.Warn("opinion poll failed", zap.Error(err))
			}
		}
	}
}

// Ask requests advice for a question, stores the result for display, and in
// copilot mode forwards actionable suggestions to the intent sink.
func (c *Copilot) Ask(ctx context.Context, question string) (*botapi.Advice, error) {
	mode := c.Mode()

	req := botapi.ChatRequest{
		Message: question,
		Mode:    string(mode),
		Context: c.buildContext(ctx),
	}

	advice, err := c.advisor.Chat(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "advice request failed")
	}

	c.store.SetAdvice(state.Advice{
		Message:    advice.Message,
		Action:     advice.Action,
		Confidence: advice.Confidence,
		ReceivedAt: time.Now(),
	})
	c.advisor.AILog(ctx, map[string]any{
		"mode":       string(mode),
		"question":   question,
		"action":     advice.Action,
		"confidence": advice.Confidence,
	})

	if mode == ModeCopilot {
		c.forwardSuggestion(ctx, advice)
	}

	return advice, nil
}

// forwardSuggestion turns a confident buy/sell advice into a trade intent.
// The intent still passes validation and manual confirmation downstream.
func (c *Copilot) forwardSuggestion(ctx context.Context, advice *botapi.Advice) {
	if c.submit == nil || c.suggestAmt.IsZero() {
		return
	}

	side, ok := domain.SideFromString(advice.Action)
	if !ok {
		return
	}
	if advice.Confidence.LessThan(decimal.NewFromFloat(minActionConfidence)) {
		c.logger.Debug("suggestion below confidence threshold",
			zap.String("action", advice.Action),
			zap.String("confidence", advice.Confidence.String()))
		return
	}

	snap := c.store.Snapshot()
	price := snap.Position.CurrentPrice
	if price.IsZero() {
		return
	}

	c.logger.Info("copilot suggestion forwarded",
		zap.String("side", side.String()),
		zap.String("amount", c.suggestAmt.String()),
		zap.String("price", price.String()))

	c.submit(ctx, domain.TradeIntent{
		Side:   side,
		Amount: c.suggestAmt,
		Price:  price,
	})
}

func (c *Copilot) buildContext(ctx context.Context) botapi.ChatContext {
	snap := c.store.Snapshot()

	chatCtx := botapi.ChatContext{
		CurrentPrice:  snap.Position.CurrentPrice,
		EntryPrice:    snap.Position.EntryPrice,
		BaseBalance:   snap.Balances.Base,
		QuoteBalance:  snap.Balances.Quote,
		UnrealizedPnL: decimal.Decimal{},
	}
	if snap.Position.HasPosition {
		diff := snap.Position.CurrentPrice.Sub(snap.Position.EntryPrice)
		chatCtx.UnrealizedPnL = diff.Mul(snap.Position.Amount)
	}

	if c.summarize != nil {
		summary, err := c.summarize(ctx)
		if err != nil {
			c.logger.Debug("indicator summary unavailable", zap.Error(err))
		} else {
			chatCtx.RSI14 = summary.RSI14
			chatCtx.EMA20 = summary.EMA20
			chatCtx.Trend = summary.Trend
		}
	}

	return chatCtx
}
