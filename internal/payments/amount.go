package payments

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// MaxMinorUnits is the largest amount the processor accepts for a single
// intent (999,999.99 in a two-decimal currency).
const MaxMinorUnits = 99_999_999

var ErrAmountOutOfRange = errors.New("amount out of range")

var maxMinor = decimal.NewFromInt(MaxMinorUnits)

// ToMinorUnits converts a decimal currency amount to integer minor units,
// rounding half up. The float is read at its shortest decimal representation,
// so 49.99 becomes 4999 rather than 4998. Results outside 1..MaxMinorUnits
// return ErrAmountOutOfRange.
func ToMinorUnits(amount float64) (int64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, ErrAmountOutOfRange
	}

	minor := decimal.NewFromFloat(amount).Shift(2).Round(0)
	if minor.Sign() <= 0 || minor.GreaterThan(maxMinor) {
		return 0, ErrAmountOutOfRange
	}

	return minor.IntPart(), nil
}
