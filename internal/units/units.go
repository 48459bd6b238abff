// =============================
// File: internal/units/units.go
// =============================
// Package units converts human token amounts into base-unit integers.
package units

import (
	"fmt"
	"math"
	"math/big"
)

// MaxSupply is the largest base-unit amount a mint can represent (u64 max).
const MaxSupply = math.MaxUint64

var maxUint64 = new(big.Int).SetUint64(math.MaxUint64)

// ToBaseUnits computes amount * 10^decimals exactly.
// Returns an error when the result does not fit in a uint64.
func ToBaseUnits(amount uint64, decimals uint8) (uint64, error) {
	result := new(big.Int).SetUint64(amount)
	result.Mul(result, pow10(decimals))

	if result.Cmp(maxUint64) > 0 {
		return 0, fmt.Errorf("amount %d with %d decimals exceeds max supply %d", amount, decimals, uint64(MaxSupply))
	}
	return result.Uint64(), nil
}

// Fits reports whether amount * 10^decimals is representable as a uint64.
func Fits(amount uint64, decimals uint8) bool {
	_, err := ToBaseUnits(amount, decimals)
	return err == nil
}

func pow10(exp uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil)
}
