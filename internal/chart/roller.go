// Package chart maintains the data the candlestick widget renders: the
// rolling "current" candle built from price ticks, trade markers and
// horizontal price lines. Historical candles come only from the REST
// snapshot and are never retroactively edited by tick data.
package chart

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/tradeboard/internal/domain"
)

// Roller folds a stream of scalar price ticks into exactly one mutable
// "current" candle per interval.
type Roller struct {
	interval time.Duration
	current  *domain.Candle
}

// NewRoller creates a roller for the given timeframe duration.
func NewRoller(interval time.Duration) *Roller {
	return &Roller{interval: interval}
}

// Seed primes the roller with the last historical candle so live ticks
// continue it instead of opening a fresh bucket.
func (r *Roller) Seed(candle domain.Candle) {
	c := candle
	r.current = &c
}

// Tick applies a price observed at t and returns the updated current
// candle. When the interval has elapsed the old candle is closed and a
// single new bucket opens at t; a tick never back-fills missed intervals.
func (r *Roller) Tick(t time.Time, price decimal.Decimal) domain.Candle {
	if r.current == nil || t.Sub(r.current.Time) >= r.interval {
		r.current = &domain.Candle{
			Time:  t,
			Open:  price,
			High:  price,
			Low:   price,
			Close: price,
		}
		return *r.current
	}

	if price.GreaterThan(r.current.High) {
		r.current.High = price
	}
	if price.LessThan(r.current.Low) {
		r.current.Low = price
	}
	r.current.Close = price

	return *r.current
}

// Current returns the current candle, if any.
func (r *Roller) Current() (domain.Candle, bool) {
	if r.current == nil {
		return domain.Candle{}, false
	}
	return *r.current, true
}

// IntervalSeconds maps a timeframe label to its bucket duration.
// Unknown labels default to one hour, matching the widget's default view.
func IntervalSeconds(timeframe string) time.Duration {
	switch timeframe {
	case "1m":
		return time.Minute
	case "5m":
		return 5 * time.Minute
	case "15m":
		return 15 * time.Minute
	case "1h":
		return time.Hour
	case "4h":
		return 4 * time.Hour
	case "1d":
		return 24 * time.Hour
	case "1w":
		return 7 * 24 * time.Hour
	default:
		return time.Hour
	}
}
