package trade

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/tradeboard/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testLimits() Limits {
	return Limits{
		MinTradeSize: dec("0.001"),
		MaxTradeSize: dec("0.1"),
		FeeRate:      dec("0.001"),
	}
}

func buyIntent(amount, price string) domain.TradeIntent {
	return domain.TradeIntent{Side: domain.SideBuy, Amount: dec(amount), Price: dec(price)}
}

func TestValidateAmountChecks(t *testing.T) {
	balances := domain.Balances{Base: dec("1"), Quote: dec("100000")}
	now := time.Now()

	cases := []struct {
		name   string
		amount string
		want   Reason
	}{
		{"zero", "0", ReasonAmountInvalid},
		{"negative", "-0.01", ReasonAmountInvalid},
		{"below minimum", "0.0001", ReasonBelowMinimum},
		{"above maximum", "0.5", ReasonAboveMaximum},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := Validate(buyIntent(tc.amount, "50000"), balances, domain.CooldownState{}, testLimits(), false, now)
			require.False(t, v.Valid)
			require.Equal(t, tc.want, v.Reason)
		})
	}
}

func TestValidateOrderingMaxBeatsCooldown(t *testing.T) {
	// an over-limit amount during an active cooldown must report
	// AboveMaximum, never CooldownActive
	now := time.Now()
	cooldown := domain.CooldownState{LastTradeAt: now.Add(-time.Second), Cooldown: 5 * time.Second}
	balances := domain.Balances{Base: dec("1"), Quote: dec("100000")}

	v := Validate(buyIntent("0.5", "50000"), balances, cooldown, testLimits(), false, now)
	require.False(t, v.Valid)
	require.Equal(t, ReasonAboveMaximum, v.Reason)
}

func TestValidateInFlightBeatsCooldown(t *testing.T) {
	now := time.Now()
	cooldown := domain.CooldownState{LastTradeAt: now.Add(-time.Second), Cooldown: 5 * time.Second}
	balances := domain.Balances{Base: dec("1"), Quote: dec("100000")}

	v := Validate(buyIntent("0.01", "50000"), balances, cooldown, testLimits(), true, now)
	require.False(t, v.Valid)
	require.Equal(t, ReasonExecutionInFlight, v.Reason)
}

func TestValidateCooldownRemainingCeiling(t *testing.T) {
	now := time.Now()
	// 3.2s remaining rounds up to 4
	cooldown := domain.CooldownState{LastTradeAt: now.Add(-1800 * time.Millisecond), Cooldown: 5 * time.Second}
	balances := domain.Balances{Base: dec("1"), Quote: dec("100000")}

	v := Validate(buyIntent("0.01", "50000"), balances, cooldown, testLimits(), false, now)
	require.False(t, v.Valid)
	require.Equal(t, ReasonCooldownActive, v.Reason)
	require.Equal(t, 4, v.CooldownRemaining)
}

func TestValidateInsufficientQuote(t *testing.T) {
	// total = 0.05*50000*1.001 = 2502.50 > 1000
	balances := domain.Balances{Base: dec("1"), Quote: dec("1000")}

	v := Validate(buyIntent("0.05", "50000"), balances, domain.CooldownState{}, testLimits(), false, time.Now())
	require.False(t, v.Valid)
	require.Equal(t, ReasonInsufficientQuote, v.Reason)
}

func TestValidateInsufficientBase(t *testing.T) {
	balances := domain.Balances{Base: dec("0.005"), Quote: dec("100000")}
	intent := domain.TradeIntent{Side: domain.SideSell, Amount: dec("0.01"), Price: dec("50000")}

	v := Validate(intent, balances, domain.CooldownState{}, testLimits(), false, time.Now())
	require.False(t, v.Valid)
	require.Equal(t, ReasonInsufficientBase, v.Reason)
}

func TestValidateSuccessQuote(t *testing.T) {
	balances := domain.Balances{Base: dec("1"), Quote: dec("100000")}

	v := Validate(buyIntent("0.01", "50000"), balances, domain.CooldownState{}, testLimits(), false, time.Now())
	require.True(t, v.Valid)
	require.Equal(t, ReasonNone, v.Reason)
	require.True(t, dec("500").Equal(v.Quote.Value), "value = %s", v.Quote.Value)
	require.True(t, dec("0.5").Equal(v.Quote.Fee), "fee = %s", v.Quote.Fee)
	require.True(t, dec("500.5").Equal(v.Quote.Total), "total = %s", v.Quote.Total)
}

func TestBuildQuoteSellTotalSubtractsFee(t *testing.T) {
	q := BuildQuote(domain.SideSell, dec("0.01"), dec("50000"), dec("0.001"))
	require.True(t, dec("500").Equal(q.Value))
	require.True(t, dec("0.5").Equal(q.Fee))
	require.True(t, dec("499.5").Equal(q.Total))
}
