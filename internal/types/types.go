// =============================================
// File: internal/types/types.go
// =============================================
// Package types holds the domain model shared by the launch pipeline and the
// DEX layer.
package types

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	solanabc "github.com/rovshanmuradov/solana-launcher/internal/blockchain/solana"
	"github.com/rovshanmuradov/solana-launcher/internal/units"
)

const LamportsPerSOL = 1_000_000_000

// TokenInfo describes the token to be minted. Immutable after creation and
// consumed once by token creation.
type TokenInfo struct {
	Amount    uint64 // human units of total supply
	Decimals  uint8
	Symbol    string
	TokenName string
	Metadata  string
}

// Validate enforces the mint constraints: decimals in [1,9] and the scaled
// supply representable as u64.
func (t *TokenInfo) Validate() error {
	if t.Decimals < 1 || t.Decimals > 9 {
		return fmt.Errorf("invalid decimals %d: must be between 1 and 9", t.Decimals)
	}
	if !units.Fits(t.Amount, t.Decimals) {
		return fmt.Errorf("invalid supply: %d with %d decimals exceeds 18,446,744,073,709,551,615 base units",
			t.Amount, t.Decimals)
	}
	return nil
}

// BaseUnits returns the total supply in base units.
func (t *TokenInfo) BaseUnits() (uint64, error) {
	return units.ToBaseUnits(t.Amount, t.Decimals)
}

// Token identifies a mint together with its display attributes.
type Token struct {
	Mint     solana.PublicKey
	Decimals uint8
	Symbol   string
	Name     string
}

// WSOL returns the wrapped-SOL quote token.
func WSOL() Token {
	return Token{
		Mint:     solana.WrappedSol,
		Decimals: 9,
		Symbol:   "WSOL",
		Name:     "Wrapped SOL",
	}
}

// MarketParams configures order-book market creation. LotSize must be one of
// the eight enumerated values; TickSize is derived from it.
type MarketParams struct {
	BaseToken  Token
	QuoteToken Token
	LotSize    float64
	TickSize   float64
}

// lotTickMap pairs each allowed lot size with its fixed tick size.
var lotTickMap = map[float64]float64{
	0.001: 0.001,
	0.01:  0.0001,
	0.1:   0.00001,
	1:     0.000001,
	10:    0.0000001,
	100:   0.00000001,
	1000:  0.000000001,
	10000: 0.0000000001,
}

// AllowedLotSizes lists the valid lot sizes in ascending order.
func AllowedLotSizes() []float64 {
	return []float64{0.001, 0.01, 0.1, 1, 10, 100, 1000, 10000}
}

// TickSizeFor returns the tick size paired with the given lot size, or
// ok=false when the lot size is not in the enumerated set.
func TickSizeFor(lotSize float64) (float64, bool) {
	tick, ok := lotTickMap[lotSize]
	return tick, ok
}

// MarketInfo is the key set produced by market creation.
type MarketInfo struct {
	MarketID         solana.PublicKey
	RequestQueue     solana.PublicKey
	EventQueue       solana.PublicKey
	Bids             solana.PublicKey
	Asks             solana.PublicKey
	BaseVault        solana.PublicKey
	QuoteVault       solana.PublicKey
	VaultSigner      solana.PublicKey
	VaultSignerNonce uint64
}

// PoolSeed configures AMM pool creation. Read-only once pool creation begins.
type PoolSeed struct {
	BaseToken           Token
	QuoteToken          Token
	AddBaseAmount       uint64 // base units
	AddQuoteAmount      uint64 // base units (lamports for WSOL)
	TargetMarketID      solana.PublicKey
	StartTime           int64 // unix seconds, may include a lock-time offset
	WalletTokenAccounts []solanabc.TokenAccount
}

// PoolInfo is the key set produced by pool creation.
type PoolInfo struct {
	PoolID       solana.PublicKey
	LPMint       solana.PublicKey
	BaseVault    solana.PublicKey
	QuoteVault   solana.PublicKey
	OpenOrders   solana.PublicKey
	TargetOrders solana.PublicKey
	MarketID     solana.PublicKey
}

// Percent is an exact rational percentage, e.g. {1, 100} for 1%.
type Percent struct {
	Numerator   uint64
	Denominator uint64
}

// DefaultSlippage is the 1% bound applied to every swap's input side.
func DefaultSlippage() Percent {
	return Percent{Numerator: 1, Denominator: 100}
}

// SwapRequest describes one wallet's swap against a fixed pool. Each wallet
// gets its own instance; requests share no mutable state.
type SwapRequest struct {
	TargetPool   solana.PublicKey
	InputToken   Token
	OutputToken  Token
	OutputAmount uint64 // base units of the output token, fixed side
	Slippage     Percent
	WalletSecret string // base58 private key
}
