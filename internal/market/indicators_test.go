package market

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/tradeboard/internal/domain"
)

func candlesFromCloses(closes []float64) []domain.Candle {
	candles := make([]domain.Candle, len(closes))
	for i, c := range closes {
		candles[i] = domain.Candle{
			Time:  time.Unix(int64(i*3600), 0),
			Open:  decimal.NewFromFloat(c),
			High:  decimal.NewFromFloat(c),
			Low:   decimal.NewFromFloat(c),
			Close: decimal.NewFromFloat(c),
		}
	}

	return candles
}

func TestSummarizeNotEnoughCandles(t *testing.T) {
	_, err := Summarize(candlesFromCloses(make([]float64, 49)))
	require.Error(t, err)
}

func TestSummarizeUptrend(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	summary, err := Summarize(candlesFromCloses(closes))
	require.NoError(t, err)

	// Monotonically rising closes: the short EMA leads the long one and RSI
	// pins near 100.
	require.Equal(t, "up", summary.Trend)
	require.True(t, summary.EMA20.GreaterThan(summary.EMA50))
	require.True(t, summary.RSI14.GreaterThan(decimal.NewFromInt(70)))
}

func TestSummarizeDowntrend(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 200 - float64(i)
	}

	summary, err := Summarize(candlesFromCloses(closes))
	require.NoError(t, err)

	require.Equal(t, "down", summary.Trend)
	require.True(t, summary.RSI14.LessThan(decimal.NewFromInt(30)))
}

func TestTimeframeLimit(t *testing.T) {
	require.Equal(t, 200, TimeframeLimit("1m"))
	require.Equal(t, 100, TimeframeLimit("1h"))
	require.Equal(t, 100, TimeframeLimit("1d"))
}
