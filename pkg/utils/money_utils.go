package utils

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Monetary amounts are stored as integer paisa (1/100 rupee) everywhere.
// These helpers convert between paisa and rupee representations at the edges.

// ToPaisa converts a rupee amount to integer paisa, rounding half up.
func ToPaisa(rupees decimal.Decimal) int64 {
	return rupees.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FromPaisa converts integer paisa to a rupee decimal with two fractional digits.
func FromPaisa(paisa int64) decimal.Decimal {
	return decimal.NewFromInt(paisa).Div(decimal.NewFromInt(100)).Round(2)
}

// FormatPaisa renders a paisa amount as a display string, e.g. "Rs. 1,250.00".
func FormatPaisa(paisa int64) string {
	rupees := paisa / 100
	fraction := paisa % 100
	if fraction < 0 {
		fraction = -fraction
	}
	return fmt.Sprintf("Rs. %s.%02d", groupThousands(rupees), fraction)
}

func groupThousands(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := fmt.Sprintf("%d", n)
	if len(digits) <= 3 {
		return sign + digits
	}
	var out []byte
	lead := len(digits) % 3
	if lead > 0 {
		out = append(out, digits[:lead]...)
	}
	for i := lead; i < len(digits); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, digits[i:i+3]...)
	}
	return sign + string(out)
}
