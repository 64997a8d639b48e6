// Package market provides fallback market data from Binance for when the
// bot server's candle history endpoint is unavailable, plus technical
// indicator summaries fed to the AI co-pilot.
package market

import (
	"context"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/tradeboard/internal/domain"
)

// BinanceProvider fetches candles and prices directly from Binance.
type BinanceProvider struct {
	client *binance.Client
}

// NewBinanceProvider creates a provider backed by the public Binance API.
// API keys are not required for market data endpoints.
func NewBinanceProvider(client *binance.Client) *BinanceProvider {
	return &BinanceProvider{client: client}
}

// GetCandles fetches kline history for the pair. The interval uses Binance
// notation ("1m", "1h", "1d") which matches the dashboard timeframes.
func (p *BinanceProvider) GetCandles(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.Candle, error) {
	klines, err := p.client.NewKlinesService().
		Symbol(pair.Symbol()).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch klines from Binance for %s", pair.String())
	}

	result := make([]domain.Candle, len(klines))
	for i, k := range klines {
		open, err := decimal.NewFromString(k.Open)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse open price at index %d", i)
		}
		high, err := decimal.NewFromString(k.High)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse high price at index %d", i)
		}
		low, err := decimal.NewFromString(k.Low)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse low price at index %d", i)
		}
		closePrice, err := decimal.NewFromString(k.Close)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse close price at index %d", i)
		}
		volume, err := decimal.NewFromString(k.Volume)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse volume at index %d", i)
		}

		result[i] = domain.Candle{
			Time:   time.Unix(0, k.OpenTime*int64(time.Millisecond)),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: volume,
		}
	}

	return result, nil
}

// GetPrice returns the current ticker price for the pair.
func (p *BinanceProvider) GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	prices, err := p.client.NewListPricesService().Symbol(pair.Symbol()).Do(ctx)
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(err, "failed to fetch price from Binance for %s", pair.String())
	}
	if len(prices) == 0 {
		return decimal.Decimal{}, errors.Errorf("binance API returned empty prices for %s", pair.String())
	}

	price, err := decimal.NewFromString(prices[0].Price)
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "failed to parse ticker price")
	}

	return price, nil
}

// TimeframeLimit returns a default candle count for a timeframe, enough
// warmup for the indicator summaries.
func TimeframeLimit(timeframe string) int {
	switch timeframe {
	case "1m", "5m":
		return 200
	default:
		return 100
	}
}
