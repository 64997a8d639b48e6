package domain

import "github.com/shopspring/decimal"

// Position is the current holding snapshot reported by the bot server.
// It is replaced wholesale on every snapshot fetch or trade confirmation
// and passed by value into the valuation code.
type Position struct {
	// HasPosition reports whether any base asset is currently held.
	HasPosition bool
	// Amount base-asset quantity held.
	Amount decimal.Decimal
	// EntryPrice price at which the position was opened. Meaningless when
	// HasPosition is false.
	EntryPrice decimal.Decimal
	// CurrentPrice latest observed market price.
	CurrentPrice decimal.Decimal
}

// EffectiveAmount returns the amount used for valuation. A flat position
// is always treated as holding zero regardless of the stored amount.
func (p Position) EffectiveAmount() decimal.Decimal {
	if !p.HasPosition {
		return decimal.Zero
	}
	return p.Amount
}

// Balances holds the base and quote asset balances.
// Mutated only as the side effect of a confirmed trade (optimistic update)
// or overwritten by the next authoritative snapshot fetch.
type Balances struct {
	Base  decimal.Decimal
	Quote decimal.Decimal
}
