// Package amount converts between user-entered STX decimal strings and
// integer micro-STX base units.
package amount

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

const (
	// Decimals is the number of fractional digits of the native asset
	Decimals = 6
	// Symbol is the display symbol of the native asset
	Symbol = "STX"
)

var maxBaseUnits = decimal.NewFromBigInt(new(big.Int).SetUint64(math.MaxUint64), 0)

// Parse converts a decimal string such as "1.25" into base units (1250000).
// The boolean is false when the text is not a non-negative number with at
// most six fractional digits; callers disable dependent actions in that case.
func Parse(text string) (uint64, bool) {
	if !wellFormed(text) {
		return 0, false
	}
	normalized := text
	if normalized[0] == '.' {
		normalized = "0" + normalized
	}
	if normalized[len(normalized)-1] == '.' {
		normalized = normalized[:len(normalized)-1]
	}

	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return 0, false
	}
	scaled := d.Shift(Decimals).Truncate(0)
	if scaled.GreaterThan(maxBaseUnits) {
		return 0, false
	}
	return scaled.BigInt().Uint64(), true
}

// wellFormed accepts digits with at most one point and at most Decimals
// digits after it. Signs, exponents and whitespace are rejected.
func wellFormed(text string) bool {
	digits, fraction := 0, -1
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c >= '0' && c <= '9':
			digits++
			if fraction >= 0 {
				fraction++
				if fraction > Decimals {
					return false
				}
			}
		case c == '.':
			if fraction >= 0 {
				return false
			}
			fraction = 0
		default:
			return false
		}
	}
	return digits > 0
}

// Format renders base units as a decimal STX string without trailing zeros
func Format(base uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(base), -Decimals).String()
}

// FormatWithSymbol renders base units followed by the asset symbol
func FormatWithSymbol(base uint64) string {
	return Format(base) + " " + Symbol
}
