// Package pnl provides pure valuation of a held position: unrealized
// profit and loss, net proceeds of an immediate sale, and the round-trip
// break-even price. It performs no I/O and never returns errors for
// expected edge cases such as a flat position.
package pnl

import "github.com/shopspring/decimal"

// DefaultFeeRate is the trading fee fraction applied on each side of a
// round trip (0.1%).
var DefaultFeeRate = decimal.NewFromFloat(0.001)

var hundred = decimal.NewFromInt(100)

// Engine values a single position. All fields are kept at full decimal
// precision; rounding happens only at presentation time.
type Engine struct {
	amount       decimal.Decimal
	entryPrice   decimal.Decimal
	currentPrice decimal.Decimal
	feeRate      decimal.Decimal
	holding      bool
}

// Result is an unrealized P&L figure with its percentage of cost basis.
type Result struct {
	PnL decimal.Decimal
	Pct decimal.Decimal
}

// SaleEstimate describes the outcome of selling the whole position now,
// net of both the entry and exit fee.
type SaleEstimate struct {
	NetProfit     decimal.Decimal
	ROI           decimal.Decimal
	GrossProceeds decimal.Decimal
	Fees          decimal.Decimal
	BreakEven     decimal.Decimal
}

// Valuation bundles both computations for a single price update.
type Valuation struct {
	Unrealized Result
	IfSold     *SaleEstimate
}

// New creates an engine for the given position. A non-positive feeRate
// falls back to DefaultFeeRate.
func New(amount, entryPrice, currentPrice, feeRate decimal.Decimal, holding bool) *Engine {
	if feeRate.LessThanOrEqual(decimal.Zero) {
		feeRate = DefaultFeeRate
	}
	return &Engine{
		amount:       amount,
		entryPrice:   entryPrice,
		currentPrice: currentPrice,
		feeRate:      feeRate,
		holding:      holding,
	}
}

// valuable reports whether there is anything to value. A flat position,
// a non-positive amount or a non-positive entry price all value to zero.
func (e *Engine) valuable() bool {
	return e.holding && e.amount.IsPositive() && e.entryPrice.IsPositive()
}

// Unrealized returns the paper profit at the current price before any
// closing fees. A position that is not valuable returns exactly {0, 0}.
func (e *Engine) Unrealized() Result {
	if !e.valuable() {
		return Result{PnL: decimal.Zero, Pct: decimal.Zero}
	}

	costBasis := e.amount.Mul(e.entryPrice)
	pnl := e.amount.Mul(e.currentPrice).Sub(costBasis)
	pct := pnl.Div(costBasis).Mul(hundred)

	return Result{PnL: pnl, Pct: pct}
}

// IfSoldNow returns the fee-adjusted outcome of closing the position at
// the current price. The second return value is false under the same
// guard as Unrealized.
func (e *Engine) IfSoldNow() (*SaleEstimate, bool) {
	if !e.valuable() {
		return nil, false
	}

	grossProceeds := e.amount.Mul(e.currentPrice)
	sellFee := grossProceeds.Mul(e.feeRate)

	costBasis := e.amount.Mul(e.entryPrice)
	buyFee := costBasis.Mul(e.feeRate)
	totalCost := costBasis.Add(buyFee)

	netProfit := grossProceeds.Sub(sellFee).Sub(totalCost)
	roi := netProfit.Div(totalCost).Mul(hundred)

	// price needed to recoup both round-trip fees
	breakEven := e.entryPrice.Mul(decimal.NewFromInt(1).Add(e.feeRate.Mul(decimal.NewFromInt(2))))

	return &SaleEstimate{
		NetProfit:     netProfit,
		ROI:           roi,
		GrossProceeds: grossProceeds,
		Fees:          sellFee.Add(buyFee),
		BreakEven:     breakEven,
	}, true
}

// UpdatePrice sets the current price and recomputes both valuations.
// Each call recomputes from the stored base values, so no rounding
// accumulates across calls.
func (e *Engine) UpdatePrice(price decimal.Decimal) Valuation {
	e.currentPrice = price

	v := Valuation{Unrealized: e.Unrealized()}
	if est, ok := e.IfSoldNow(); ok {
		v.IfSold = est
	}
	return v
}

// SetPosition replaces the tracked position wholesale, keeping the fee rate.
func (e *Engine) SetPosition(amount, entryPrice, currentPrice decimal.Decimal, holding bool) {
	e.amount = amount
	e.entryPrice = entryPrice
	e.currentPrice = currentPrice
	e.holding = holding
}

// CurrentPrice returns the last price fed into the engine.
func (e *Engine) CurrentPrice() decimal.Decimal {
	return e.currentPrice
}
