package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle single OHLCV candlestick.
type Candle struct {
	Time   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal
}

// Bullish reports whether the candle closed at or above its open.
func (c Candle) Bullish() bool {
	return c.Close.GreaterThanOrEqual(c.Open)
}
