package ledger

import "github.com/shopspring/decimal"

// AmountScale is the number of decimal places stored for amounts and balances.
// It matches the NUMERIC(20, 4) columns of Schema.
const AmountScale = 4

// MaxAmount is the largest amount a single transaction may move.
var MaxAmount = decimal.New(1, 12)

// Exponent and digit bounds checked before any arithmetic, so absurd inputs
// such as 1e5000000 are rejected without being expanded.
const (
	maxExponent = 12
	minExponent = -32
	maxDigits   = 32
)

// ValidAmount reports whether d is a positive amount no larger than MaxAmount
// that needs no more than AmountScale decimal places.
func ValidAmount(d decimal.Decimal) bool {
	if !d.IsPositive() || !Bounded(d) {
		return false
	}
	if d.Cmp(MaxAmount) > 0 {
		return false
	}
	return d.Equal(d.Truncate(AmountScale))
}

// Bounded reports whether d is small enough in magnitude and precision to be
// formatted or compared cheaply.
func Bounded(d decimal.Decimal) bool {
	exp := d.Exponent()
	return exp <= maxExponent && exp >= minExponent && d.NumDigits() <= maxDigits
}
