// Package money formats currency amounts for display strings.
package money

import (
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Format renders a whole-unit currency amount, e.g. 12000 -> "$12,000",
// -500 -> "-$500". Cents are rounded away.
func Format(amount decimal.Decimal) string {
	n := amount.Round(0).IntPart()
	if n < 0 {
		return "-$" + humanize.Comma(-n)
	}
	return "$" + humanize.Comma(n)
}

// Signed renders an amount with an explicit sign, e.g. "+$12,000".
// Zero renders as "+$0".
func Signed(amount decimal.Decimal) string {
	if amount.Round(0).IsNegative() {
		return Format(amount)
	}
	return "+" + Format(amount)
}

// Compact renders large amounts with a suffix, e.g. 1250000 -> "$1.2M".
func Compact(amount decimal.Decimal) string {
	f, _ := amount.Float64()
	abs := f
	prefix := "$"
	if f < 0 {
		abs = -f
		prefix = "-$"
	}
	if abs < 1000 {
		return Format(amount)
	}
	value, suffix := humanize.ComputeSI(abs)
	return prefix + humanize.FtoaWithDigits(value, 2) + compactSuffix(suffix)
}

func compactSuffix(si string) string {
	switch si {
	case "k":
		return "K"
	case "M":
		return "M"
	case "G":
		return "B"
	default:
		return si
	}
}
