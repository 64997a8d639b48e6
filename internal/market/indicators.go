package market

import (
	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/tradeboard/internal/domain"
)

// Summary holds the latest values of the technical indicators shared with
// the AI co-pilot as market context.
type Summary struct {
	// EMA20 is the 20-period Exponential Moving Average
	EMA20 decimal.Decimal
	// EMA50 is the 50-period Exponential Moving Average
	EMA50 decimal.Decimal
	// RSI14 is the 14-period Relative Strength Index
	RSI14 decimal.Decimal
	// Trend is "up" when EMA20 is above EMA50, "down" otherwise
	Trend string
}

const summaryWarmup = 50

// Summarize computes the indicator summary from candle history. At least 50
// candles are required for the EMA50 warmup.
func Summarize(candles []domain.Candle) (Summary, error) {
	if len(candles) < summaryWarmup {
		return Summary{}, errors.Errorf("not enough candles for indicator summary: need %d, got %d", summaryWarmup, len(candles))
	}

	closes := make([]decimal.Decimal, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	ema20, err := lastEMA(closes, 20)
	if err != nil {
		return Summary{}, errors.Wrap(err, "failed to calculate EMA20")
	}

	ema50, err := lastEMA(closes, 50)
	if err != nil {
		return Summary{}, errors.Wrap(err, "failed to calculate EMA50")
	}

	rsi14, err := lastRSI(closes, 14)
	if err != nil {
		return Summary{}, errors.Wrap(err, "failed to calculate RSI14")
	}

	trendLabel := "down"
	if ema20.GreaterThan(ema50) {
		trendLabel = "up"
	}

	return Summary{
		EMA20: ema20,
		EMA50: ema50,
		RSI14: rsi14,
		Trend: trendLabel,
	}, nil
}

func lastEMA(closes []decimal.Decimal, period int) (decimal.Decimal, error) {
	if len(closes) < period {
		return decimal.Decimal{}, errors.Errorf("not enough data points: need %d, got %d", period, len(closes))
	}

	ema := trend.NewEmaWithPeriod[float64](period)
	outputChan := ema.Compute(helper.SliceToChan(decimalsToFloat64(closes)))

	return lastDecimal(helper.ChanToSlice(outputChan))
}

func lastRSI(closes []decimal.Decimal, period int) (decimal.Decimal, error) {
	if len(closes) < period+1 {
		return decimal.Decimal{}, errors.Errorf("not enough data points: need %d, got %d", period+1, len(closes))
	}

	rsi := momentum.NewRsiWithPeriod[float64](period)
	outputChan := rsi.Compute(helper.SliceToChan(decimalsToFloat64(closes)))

	return lastDecimal(helper.ChanToSlice(outputChan))
}

func lastDecimal(values []float64) (decimal.Decimal, error) {
	if len(values) == 0 {
		return decimal.Decimal{}, errors.New("indicator produced no values")
	}

	return decimal.NewFromFloat(values[len(values)-1]), nil
}

func decimalsToFloat64(values []decimal.Decimal) []float64 {
	result := make([]float64, len(values))
	for i, v := range values {
		result[i], _ = v.Float64()
	}

	return result
}
