// internal/dex/raydium/types.go
// Package raydium implements token, market, pool and swap operations against
// the Raydium AMM and an OpenBook order-book market.
package raydium

import (
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// PoolKeys is the full account set required to trade against one AMM pool.
type PoolKeys struct {
	ID           solana.PublicKey
	Authority    solana.PublicKey
	OpenOrders   solana.PublicKey
	TargetOrders solana.PublicKey
	BaseVault    solana.PublicKey
	QuoteVault   solana.PublicKey

	BaseMint  solana.PublicKey
	QuoteMint solana.PublicKey
	LPMint    solana.PublicKey

	MarketProgramID   solana.PublicKey
	MarketID          solana.PublicKey
	MarketBids        solana.PublicKey
	MarketAsks        solana.PublicKey
	MarketEventQueue  solana.PublicKey
	MarketBaseVault   solana.PublicKey
	MarketQuoteVault  solana.PublicKey
	MarketVaultSigner solana.PublicKey
}

// PoolState is the dynamic reserve and fee state of a pool.
type PoolState struct {
	BaseReserve        uint64
	QuoteReserve       uint64
	SwapFeeNumerator   uint64
	SwapFeeDenominator uint64
	Status             uint64
}

// liquidityStateV4 mirrors the AMM v4 liquidity account layout (752 bytes).
type liquidityStateV4 struct {
	Status                 uint64
	Nonce                  uint64
	OrderNum               uint64
	Depth                  uint64
	BaseDecimal            uint64
	QuoteDecimal           uint64
	State                  uint64
	ResetFlag              uint64
	MinSize                uint64
	VolMaxCutRatio         uint64
	AmountWaveRatio        uint64
	BaseLotSize            uint64
	QuoteLotSize           uint64
	MinPriceMultiplier     uint64
	MaxPriceMultiplier     uint64
	SystemDecimalValue     uint64
	MinSeparateNumerator   uint64
	MinSeparateDenominator uint64
	TradeFeeNumerator      uint64
	TradeFeeDenominator    uint64
	PnlNumerator           uint64
	PnlDenominator         uint64
	SwapFeeNumerator       uint64
	SwapFeeDenominator     uint64
	BaseNeedTakePnl        uint64
	QuoteNeedTakePnl       uint64
	QuoteTotalPnl          uint64
	BaseTotalPnl           uint64
	PoolOpenTime           uint64
	PunishPcAmount         uint64
	PunishCoinAmount       uint64
	OrderbookToInitTime    uint64
	SwapBaseInAmount       bin.Uint128
	SwapQuoteOutAmount     bin.Uint128
	SwapBase2QuoteFee      uint64
	SwapQuoteInAmount      bin.Uint128
	SwapBaseOutAmount      bin.Uint128
	SwapQuote2BaseFee      uint64

	BaseVault       solana.PublicKey
	QuoteVault      solana.PublicKey
	BaseMint        solana.PublicKey
	QuoteMint       solana.PublicKey
	LpMint          solana.PublicKey
	OpenOrders      solana.PublicKey
	MarketID        solana.PublicKey
	MarketProgramID solana.PublicKey
	TargetOrders    solana.PublicKey
	WithdrawQueue   solana.PublicKey
	LpVault         solana.PublicKey
	Owner           solana.PublicKey

	LpReserve uint64
	Padding   [3]uint64
}

// marketStateV3 mirrors the OpenBook market account layout. The account is
// framed by 5 header and 7 tail padding bytes.
type marketStateV3 struct {
	HeadPadding [5]byte

	AccountFlags uint64
	OwnAddress   solana.PublicKey

	VaultSignerNonce uint64

	BaseMint  solana.PublicKey
	QuoteMint solana.PublicKey

	BaseVault         solana.PublicKey
	BaseDepositsTotal uint64
	BaseFeesAccrued   uint64

	QuoteVault         solana.PublicKey
	QuoteDepositsTotal uint64
	QuoteFeesAccrued   uint64

	QuoteDustThreshold uint64

	RequestQueue solana.PublicKey
	EventQueue   solana.PublicKey

	Bids solana.PublicKey
	Asks solana.PublicKey

	BaseLotSize  uint64
	QuoteLotSize uint64

	FeeRateBps             uint64
	ReferrerRebatesAccrued uint64

	TailPadding [7]byte
}
