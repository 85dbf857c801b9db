// Package amount converts human-readable decimal token amounts into the
// atomic integer units contracts expect. All arithmetic is arbitrary
// precision; floating point is never used because it drifts at token-supply
// scale.
package amount

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/agentfi-labs/agentwallet-go/pkg/txError"
)

// NativeDecimals is the decimal count of the native asset on EVM chains.
const NativeDecimals = 18

// Parse validates a human-readable amount string. Amounts must parse as a
// decimal and be strictly greater than zero.
func Parse(human string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(human)
	if err != nil {
		return decimal.Decimal{}, txError.Newf(txError.CodeInvalidInput, "invalid amount %q: %s", human, err.Error())
	}
	if d.Sign() <= 0 {
		return decimal.Decimal{}, txError.Newf(txError.CodeInvalidInput, "amount must be greater than zero, got %s", d.String())
	}
	return d, nil
}

// ToAtomicUnits converts a parsed decimal amount into atomic units using the
// token's decimals, flooring away any fractional atomic unit.
func ToAtomicUnits(d decimal.Decimal, decimals uint8) *big.Int {
	return d.Shift(int32(decimals)).Floor().BigInt()
}

// ToAtomic parses a human amount and converts it in one step.
func ToAtomic(human string, decimals uint8) (*big.Int, error) {
	d, err := Parse(human)
	if err != nil {
		return nil, err
	}
	return ToAtomicUnits(d, decimals), nil
}

// FromAtomic renders an atomic amount as a human-readable decimal string.
func FromAtomic(atomic *big.Int, decimals uint8) string {
	return decimal.NewFromBigInt(atomic, -int32(decimals)).String()
}
