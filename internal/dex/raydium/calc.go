// internal/dex/raydium/calc.go
package raydium

import (
	"fmt"
	"math/big"

	"github.com/rovshanmuradov/solana-launcher/internal/types"
)

// SwapQuote is the input-side result of a fixed-output computation.
type SwapQuote struct {
	AmountIn    uint64 // fee-inclusive input at the current price
	MaxAmountIn uint64 // AmountIn with the slippage bound applied
}

// ComputeAmountIn quotes the exact input needed to receive amountOut from a
// constant-product pool, then widens it by the slippage tolerance. All
// intermediate math is arbitrary precision; rounding is always up so the
// quoted input never undershoots.
func ComputeAmountIn(state *PoolState, amountOut uint64, outputIsBase bool, slippage types.Percent) (*SwapQuote, error) {
	reserveIn, reserveOut := state.QuoteReserve, state.BaseReserve
	if !outputIsBase {
		reserveIn, reserveOut = state.BaseReserve, state.QuoteReserve
	}

	if reserveIn == 0 || reserveOut == 0 {
		return nil, fmt.Errorf("pool has empty reserves (in=%d, out=%d)", reserveIn, reserveOut)
	}
	if amountOut >= reserveOut {
		return nil, fmt.Errorf("output amount %d exceeds pool reserve %d", amountOut, reserveOut)
	}
	if slippage.Denominator == 0 {
		return nil, fmt.Errorf("invalid slippage: zero denominator")
	}

	feeNum, feeDen := state.SwapFeeNumerator, state.SwapFeeDenominator
	if feeDen == 0 {
		feeNum, feeDen = SwapFeeNumerator, SwapFeeDenominator
	}
	if feeNum >= feeDen {
		return nil, fmt.Errorf("invalid pool fee %d/%d", feeNum, feeDen)
	}

	rIn := new(big.Int).SetUint64(reserveIn)
	rOut := new(big.Int).SetUint64(reserveOut)
	out := new(big.Int).SetUint64(amountOut)

	// Invariant-preserving input before fees: ceil(rIn * out / (rOut - out)).
	amountIn := ceilDiv(
		new(big.Int).Mul(rIn, out),
		new(big.Int).Sub(rOut, out),
	)

	// Gross up for the input-side fee: ceil(in * feeDen / (feeDen - feeNum)).
	amountIn = ceilDiv(
		new(big.Int).Mul(amountIn, new(big.Int).SetUint64(feeDen)),
		new(big.Int).SetUint64(feeDen-feeNum),
	)

	// Slippage bound: ceil(in * (den + num) / den).
	num := new(big.Int).SetUint64(slippage.Numerator)
	den := new(big.Int).SetUint64(slippage.Denominator)
	maxAmountIn := ceilDiv(
		new(big.Int).Mul(amountIn, new(big.Int).Add(den, num)),
		den,
	)

	if !amountIn.IsUint64() || !maxAmountIn.IsUint64() {
		return nil, fmt.Errorf("computed input amount overflows u64")
	}

	return &SwapQuote{
		AmountIn:    amountIn.Uint64(),
		MaxAmountIn: maxAmountIn.Uint64(),
	}, nil
}

func ceilDiv(a, b *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(a, b, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}
