package pnl

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestUnrealizedFlatPositionIsZero(t *testing.T) {
	cases := []struct {
		name    string
		amount  string
		entry   string
		current string
		holding bool
	}{
		{"flat", "0.5", "50000", "51000", false},
		{"zero amount", "0", "50000", "51000", true},
		{"zero entry", "0.5", "0", "51000", true},
		{"all zero", "0", "0", "0", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := New(dec(tc.amount), dec(tc.entry), dec(tc.current), decimal.Zero, tc.holding)
			res := e.Unrealized()
			require.True(t, res.PnL.IsZero(), "pnl must be exactly zero")
			require.True(t, res.Pct.IsZero(), "pct must be exactly zero")

			_, ok := e.IfSoldNow()
			require.False(t, ok)
		})
	}
}

func TestUnrealizedHolding(t *testing.T) {
	e := New(dec("0.01"), dec("50000"), dec("51000"), dec("0.001"), true)

	res := e.Unrealized()
	require.True(t, dec("10").Equal(res.PnL), "pnl = %s", res.PnL)
	require.True(t, dec("2").Equal(res.Pct), "pct = %s", res.Pct)
}

func TestIfSoldNow(t *testing.T) {
	e := New(dec("0.01"), dec("50000"), dec("51000"), dec("0.001"), true)

	est, ok := e.IfSoldNow()
	require.True(t, ok)

	require.True(t, dec("510").Equal(est.GrossProceeds), "gross = %s", est.GrossProceeds)
	// sell fee 0.51 + buy fee 0.50
	require.True(t, dec("1.01").Equal(est.Fees), "fees = %s", est.Fees)
	// (510 - 0.51) - (500 + 0.50)
	require.True(t, dec("8.99").Equal(est.NetProfit), "net = %s", est.NetProfit)
	require.True(t, est.ROI.IsPositive())
}

func TestBreakEvenIndependentOfCurrentPrice(t *testing.T) {
	for _, current := range []string{"1", "50000", "51000", "99999.99"} {
		e := New(dec("0.01"), dec("50000"), dec(current), dec("0.001"), true)
		est, ok := e.IfSoldNow()
		require.True(t, ok)
		// entry * (1 + 2*fee) = 50000 * 1.002 = 50100
		require.True(t, dec("50100").Equal(est.BreakEven), "breakEven = %s at current %s", est.BreakEven, current)
	}
}

func TestUpdatePriceIdempotent(t *testing.T) {
	e := New(dec("0.25"), dec("40000"), dec("40000"), dec("0.001"), true)

	first := e.UpdatePrice(dec("42000"))
	second := e.UpdatePrice(dec("42000"))

	require.True(t, first.Unrealized.PnL.Equal(second.Unrealized.PnL))
	require.True(t, first.Unrealized.Pct.Equal(second.Unrealized.Pct))
	require.NotNil(t, first.IfSold)
	require.NotNil(t, second.IfSold)
	require.True(t, first.IfSold.NetProfit.Equal(second.IfSold.NetProfit))
	require.True(t, first.IfSold.Fees.Equal(second.IfSold.Fees))
}

func TestDefaultFeeRateApplied(t *testing.T) {
	e := New(dec("1"), dec("100"), dec("100"), decimal.Zero, true)
	est, ok := e.IfSoldNow()
	require.True(t, ok)
	// 100 * (1 + 0.002) = 100.2
	require.True(t, dec("100.2").Equal(est.BreakEven), "breakEven = %s", est.BreakEven)
}

func TestSetPositionReplacesWholesale(t *testing.T) {
	e := New(dec("1"), dec("100"), dec("110"), dec("0.001"), true)
	require.False(t, e.Unrealized().PnL.IsZero())

	e.SetPosition(decimal.Zero, decimal.Zero, dec("110"), false)
	require.True(t, e.Unrealized().PnL.IsZero())

	e.SetPosition(dec("2"), dec("50"), dec("55"), true)
	require.True(t, dec("10").Equal(e.Unrealized().PnL))
}
