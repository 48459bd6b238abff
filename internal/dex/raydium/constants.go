// internal/dex/raydium/constants.go
package raydium

import (
	"github.com/gagliardetto/solana-go"
)

// Program IDs
var (
	RaydiumV4ProgramID = solana.MPK("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")
	OpenBookProgramID  = solana.MPK("srmqPvymJeFKQ4zGQed1GFppgkRHL9kaELCbyksJtPX")
	FeeDestinationID   = solana.MPK("7YttLkHDoNj9wyDur5pM1ejNaAvT9X4eqaYcHQqtj2G5")
)

// Account sizes (bytes)
const (
	MintAccountSize    = 82
	TokenAccountSize   = 165
	MarketStateSize    = 388
	RequestQueueSize   = 764
	EventQueueSize     = 11308
	OrderBookSize      = 14524
	LiquidityStateSize = 752
)

// Instruction codes
const (
	SerumInitializeMarket     = 0
	AmmInstructionInit2       = 1
	AmmInstructionSwapBaseOut = 11
)

// Raydium swap fee: 0.25% taken on the input side.
const (
	SwapFeeNumerator   = 25
	SwapFeeDenominator = 10000
)

// PDA seeds used by the AMM program.
var (
	ammAuthoritySeed  = []byte("amm authority")
	ammConfigSeed     = []byte("amm_config_account_seed")
	ammAssociatedSeed = []byte("amm_associated_seed")
	lpMintSeed        = []byte("lp_mint_associated_seed")
	coinVaultSeed     = []byte("coin_vault_associated_seed")
	pcVaultSeed       = []byte("pc_vault_associated_seed")
	openOrderSeed     = []byte("open_order_associated_seed")
	targetSeed        = []byte("target_associated_seed")
)

// AmmAuthority derives the shared AMM authority PDA.
func AmmAuthority() (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress([][]byte{ammAuthoritySeed}, RaydiumV4ProgramID)
	return addr, bump, err
}

// AmmConfig derives the global AMM config PDA.
func AmmConfig() (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{ammConfigSeed}, RaydiumV4ProgramID)
	return addr, err
}

// derivePoolAccount derives one of the per-market pool PDAs.
func derivePoolAccount(marketID solana.PublicKey, seed []byte) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{RaydiumV4ProgramID.Bytes(), marketID.Bytes(), seed},
		RaydiumV4ProgramID,
	)
	return addr, err
}
