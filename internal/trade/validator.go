// Package trade implements the manual-trade admission policy and the
// validate -> confirm -> submit execution workflow.
package trade

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/tradeboard/internal/domain"
)

// Reason identifies why a trade intent was rejected.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonAmountInvalid
	ReasonBelowMinimum
	ReasonAboveMaximum
	ReasonExecutionInFlight
	ReasonCooldownActive
	ReasonInsufficientQuote
	ReasonInsufficientBase
)

// String returns the string representation of the rejection reason.
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonAmountInvalid:
		return "amount_invalid"
	case ReasonBelowMinimum:
		return "below_minimum"
	case ReasonAboveMaximum:
		return "above_maximum"
	case ReasonExecutionInFlight:
		return "execution_in_flight"
	case ReasonCooldownActive:
		return "cooldown_active"
	case ReasonInsufficientQuote:
		return "insufficient_quote"
	case ReasonInsufficientBase:
		return "insufficient_base"
	default:
		return "unknown"
	}
}

// Limits holds the configured trade-size boundaries and the fee rate used
// for the cost pre-check.
type Limits struct {
	MinTradeSize decimal.Decimal
	MaxTradeSize decimal.Decimal
	FeeRate      decimal.Decimal
}

// Quote is the computed cost breakdown shown in the confirmation step.
type Quote struct {
	// Value is amount * price.
	Value decimal.Decimal
	// Fee is Value * feeRate.
	Fee decimal.Decimal
	// Total is Value+Fee for buys (cost) and Value-Fee for sells (proceeds).
	Total decimal.Decimal
}

// Verdict is the outcome of validating a trade intent.
type Verdict struct {
	Valid  bool
	Reason Reason
	// Message human-readable rejection text, empty when valid.
	Message string
	// Quote populated only when valid.
	Quote Quote
	// CooldownRemaining seconds left, ceiling-rounded; set only for
	// ReasonCooldownActive.
	CooldownRemaining int
}

// BuildQuote computes the displayed value, fee and side-dependent total
// for a trade at the given price.
func BuildQuote(side domain.Side, amount, price, feeRate decimal.Decimal) Quote {
	value := amount.Mul(price)
	fee := value.Mul(feeRate)
	total := value.Add(fee)
	if side == domain.SideSell {
		total = value.Sub(fee)
	}
	return Quote{Value: value, Fee: fee, Total: total}
}

// Validate admits or rejects a trade intent. Checks run in a fixed order
// and the first failure short-circuits, so error precedence is
// deterministic: amount checks, then the in-flight guard, then cooldown,
// then balance sufficiency.
func Validate(intent domain.TradeIntent, balances domain.Balances, cooldown domain.CooldownState,
	limits Limits, inFlight bool, now time.Time) Verdict {

	if !intent.Amount.IsPositive() {
		return rejected(ReasonAmountInvalid, "enter a valid trade amount")
	}
	if intent.Amount.LessThan(limits.MinTradeSize) {
		return rejected(ReasonBelowMinimum,
			fmt.Sprintf("amount must be at least %s", limits.MinTradeSize.String()))
	}
	if limits.MaxTradeSize.IsPositive() && intent.Amount.GreaterThan(limits.MaxTradeSize) {
		return rejected(ReasonAboveMaximum,
			fmt.Sprintf("amount exceeds max trade size (%s)", limits.MaxTradeSize.String()))
	}
	if inFlight {
		return rejected(ReasonExecutionInFlight, "a trade is currently being executed, please wait")
	}
	if cooldown.Active(now) {
		secs := int(math.Ceil(cooldown.Remaining(now).Seconds()))
		v := rejected(ReasonCooldownActive, fmt.Sprintf("cooldown active, please wait %ds", secs))
		v.CooldownRemaining = secs
		return v
	}

	quote := BuildQuote(intent.Side, intent.Amount, intent.Price, limits.FeeRate)
	switch intent.Side {
	case domain.SideBuy:
		if quote.Total.GreaterThan(balances.Quote) {
			return rejected(ReasonInsufficientQuote, "insufficient quote balance")
		}
	case domain.SideSell:
		if intent.Amount.GreaterThan(balances.Base) {
			return rejected(ReasonInsufficientBase, "insufficient base balance")
		}
	}

	return Verdict{Valid: true, Reason: ReasonNone, Quote: quote}
}

func rejected(reason Reason, msg string) Verdict {
	return Verdict{Valid: false, Reason: reason, Message: msg}
}
