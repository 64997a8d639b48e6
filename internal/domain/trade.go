package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TradeIntent is a proposed manual trade. Created transiently per attempt,
// consumed by the validator and executor, never stored.
type TradeIntent struct {
	Side   Side
	Amount decimal.Decimal
	Price  decimal.Decimal
}

// String returns a human-readable string representation.
func (t *TradeIntent) String() string {
	return fmt.Sprintf("%s %s @ %s", t.Side.String(), t.Amount.String(), t.Price.String())
}

// TradeRecord is a single executed trade from the bot server history.
// The authoritative copy lives server-side; records are held in memory
// only for rendering.
type TradeRecord struct {
	Timestamp time.Time
	Side      Side
	Amount    decimal.Decimal
	Price     decimal.Decimal
	// Profit realized profit for closing trades, zero when the server
	// did not report one.
	Profit decimal.Decimal
}

// CooldownState tracks the mandatory wait between successive trade
// submissions. It resets implicitly by time elapsing.
type CooldownState struct {
	LastTradeAt time.Time
	Cooldown    time.Duration
}

// Active reports whether the cooldown is still in effect at now.
func (c CooldownState) Active(now time.Time) bool {
	if c.LastTradeAt.IsZero() || c.Cooldown <= 0 {
		return false
	}
	return now.Sub(c.LastTradeAt) < c.Cooldown
}

// Remaining returns the time left before the next trade is allowed.
func (c CooldownState) Remaining(now time.Time) time.Duration {
	if !c.Active(now) {
		return 0
	}
	return c.Cooldown - now.Sub(c.LastTradeAt)
}

// GridLevels are the bot's current buy/sell threshold prices.
type GridLevels struct {
	BuyThreshold  decimal.Decimal
	SellThreshold decimal.Decimal
}
