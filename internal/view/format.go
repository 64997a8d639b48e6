package view

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currency formats a monetary value with two decimals and a leading
// dollar sign, e.g. -12.3456 -> "-$12.35".
func Currency(v decimal.Decimal) string {
	s := v.Abs().StringFixed(2)
	s = groupThousands(s)
	if v.IsNegative() {
		return "-$" + s
	}
	return "$" + s
}

// Percent formats a percentage with two decimals and an explicit sign for
// gains, e.g. 2 -> "+2.00%".
func Percent(v decimal.Decimal) string {
	if v.IsPositive() {
		return "+" + v.StringFixed(2) + "%"
	}
	return v.StringFixed(2) + "%"
}

// Amount formats a base-asset quantity with six decimals.
func Amount(v decimal.Decimal) string {
	return v.StringFixed(6)
}

// groupThousands inserts thousands separators into the integer part of a
// fixed-point string.
func groupThousands(s string) string {
	intPart, fracPart, _ := strings.Cut(s, ".")

	if len(intPart) <= 3 {
		return intPart + "." + fracPart
	}

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return b.String() + "." + fracPart
}
