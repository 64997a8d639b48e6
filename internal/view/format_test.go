package view

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

func TestCurrency(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"10", "$10.00"},
		{"8.994", "$8.99"},
		{"-12.3456", "-$12.35"},
		{"1234.5", "$1,234.50"},
		{"50123.456", "$50,123.46"},
		{"1234567.89", "$1,234,567.89"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Currency(dec(tc.in)), "input %s", tc.in)
	}
}

func TestPercent(t *testing.T) {
	require.Equal(t, "+2.00%", Percent(dec("2")))
	require.Equal(t, "-1.50%", Percent(dec("-1.5")))
	require.Equal(t, "0.00%", Percent(dec("0")))
}

func TestAmount(t *testing.T) {
	require.Equal(t, "0.010000", Amount(dec("0.01")))
	require.Equal(t, "1.234568", Amount(dec("1.2345678")))
}
