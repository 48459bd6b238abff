// internal/dex/raydium/market.go
package raydium

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-launcher/internal/types"
)

// CreateMarket creates and initializes an OpenBook market for the token pair.
// The market is built in two transactions: the vault accounts first, then the
// market state, queues and books together with the initialize instruction.
func (c *Client) CreateMarket(ctx context.Context, params *types.MarketParams) (*types.MarketInfo, error) {
	tickSize, ok := types.TickSizeFor(params.LotSize)
	if !ok {
		return nil, fmt.Errorf("invalid lot size %v: must be one of %v", params.LotSize, types.AllowedLotSizes())
	}
	if params.TickSize != 0 && params.TickSize != tickSize {
		return nil, fmt.Errorf("tick size %v does not match lot size %v", params.TickSize, params.LotSize)
	}

	baseLotSize := uint64(math.Round(params.LotSize * math.Pow10(int(params.BaseToken.Decimals))))
	quoteLotSize := uint64(math.Round(params.LotSize * tickSize * math.Pow10(int(params.QuoteToken.Decimals))))
	if baseLotSize == 0 || quoteLotSize == 0 {
		return nil, fmt.Errorf("lot size %v too small for token decimals", params.LotSize)
	}

	keys, err := generateMarketKeypairs()
	if err != nil {
		return nil, err
	}

	vaultSigner, vaultSignerNonce, err := findVaultSigner(keys.market.PublicKey())
	if err != nil {
		return nil, fmt.Errorf("failed to derive vault signer: %w", err)
	}

	c.logger.Info("Creating market",
		zap.String("market_id", keys.market.PublicKey().String()),
		zap.String("base_mint", params.BaseToken.Mint.String()),
		zap.String("quote_mint", params.QuoteToken.Mint.String()),
		zap.Float64("lot_size", params.LotSize),
		zap.Float64("tick_size", tickSize))

	// Transaction 1: token vaults owned by the market's vault signer.
	vaultIxs, err := c.buildVaultInstructions(ctx, keys, params, vaultSigner)
	if err != nil {
		return nil, err
	}
	if _, err := c.sendAndConfirm(ctx, vaultIxs,
		[]solana.PrivateKey{c.deployer.PrivateKey, keys.baseVault, keys.quoteVault}); err != nil {
		return nil, fmt.Errorf("market vault creation failed: %w", err)
	}

	// Transaction 2: market state accounts plus initialize.
	marketIxs, err := c.buildMarketInstructions(ctx, keys, params, vaultSignerNonce, baseLotSize, quoteLotSize)
	if err != nil {
		return nil, err
	}
	sig, err := c.sendAndConfirm(ctx, marketIxs, []solana.PrivateKey{
		c.deployer.PrivateKey, keys.market, keys.requestQueue, keys.eventQueue, keys.bids, keys.asks,
	})
	if err != nil {
		return nil, fmt.Errorf("market initialization failed: %w", err)
	}

	c.logger.Info("Market created",
		zap.String("market_id", keys.market.PublicKey().String()),
		zap.String("signature", sig.String()))

	return &types.MarketInfo{
		MarketID:         keys.market.PublicKey(),
		RequestQueue:     keys.requestQueue.PublicKey(),
		EventQueue:       keys.eventQueue.PublicKey(),
		Bids:             keys.bids.PublicKey(),
		Asks:             keys.asks.PublicKey(),
		BaseVault:        keys.baseVault.PublicKey(),
		QuoteVault:       keys.quoteVault.PublicKey(),
		VaultSigner:      vaultSigner,
		VaultSignerNonce: vaultSignerNonce,
	}, nil
}

type marketKeypairs struct {
	market       solana.PrivateKey
	requestQueue solana.PrivateKey
	eventQueue   solana.PrivateKey
	bids         solana.PrivateKey
	asks         solana.PrivateKey
	baseVault    solana.PrivateKey
	quoteVault   solana.PrivateKey
}

func generateMarketKeypairs() (*marketKeypairs, error) {
	keys := &marketKeypairs{}
	for _, target := range []*solana.PrivateKey{
		&keys.market, &keys.requestQueue, &keys.eventQueue,
		&keys.bids, &keys.asks, &keys.baseVault, &keys.quoteVault,
	} {
		key, err := solana.NewRandomPrivateKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate market keypair: %w", err)
		}
		*target = key
	}
	return keys, nil
}

// findVaultSigner searches for the first nonce producing a valid off-curve
// program address for the market's vault authority.
func findVaultSigner(marketID solana.PublicKey) (solana.PublicKey, uint64, error) {
	for nonce := uint64(0); nonce < 255; nonce++ {
		nonceBytes := make([]byte, 8)
		binary.LittleEndian.PutUint64(nonceBytes, nonce)

		signer, err := solana.CreateProgramAddress(
			[][]byte{marketID.Bytes(), nonceBytes},
			OpenBookProgramID,
		)
		if err == nil {
			return signer, nonce, nil
		}
	}
	return solana.PublicKey{}, 0, fmt.Errorf("no valid vault signer nonce for market %s", marketID)
}

func (c *Client) buildVaultInstructions(ctx context.Context, keys *marketKeypairs, params *types.MarketParams, vaultSigner solana.PublicKey) ([]solana.Instruction, error) {
	vaultRent, err := c.client.GetMinimumBalanceForRentExemption(ctx, TokenAccountSize)
	if err != nil {
		return nil, err
	}

	var instructions []solana.Instruction
	for _, vault := range []struct {
		key  solana.PrivateKey
		mint solana.PublicKey
	}{
		{keys.baseVault, params.BaseToken.Mint},
		{keys.quoteVault, params.QuoteToken.Mint},
	} {
		instructions = append(instructions,
			system.NewCreateAccountInstruction(
				vaultRent,
				TokenAccountSize,
				solana.TokenProgramID,
				c.deployer.PublicKey,
				vault.key.PublicKey(),
			).Build(),
			token.NewInitializeAccountInstruction(
				vault.key.PublicKey(),
				vault.mint,
				vaultSigner,
				solana.SysVarRentPubkey,
			).Build(),
		)
	}
	return instructions, nil
}

func (c *Client) buildMarketInstructions(ctx context.Context, keys *marketKeypairs, params *types.MarketParams, vaultSignerNonce, baseLotSize, quoteLotSize uint64) ([]solana.Instruction, error) {
	accountSpecs := []struct {
		key  solana.PrivateKey
		size uint64
	}{
		{keys.market, MarketStateSize},
		{keys.requestQueue, RequestQueueSize},
		{keys.eventQueue, EventQueueSize},
		{keys.bids, OrderBookSize},
		{keys.asks, OrderBookSize},
	}

	var instructions []solana.Instruction
	for _, spec := range accountSpecs {
		rent, err := c.client.GetMinimumBalanceForRentExemption(ctx, spec.size)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, system.NewCreateAccountInstruction(
			rent,
			spec.size,
			OpenBookProgramID,
			c.deployer.PublicKey,
			spec.key.PublicKey(),
		).Build())
	}

	instructions = append(instructions, buildInitializeMarketIx(
		keys, params, vaultSignerNonce, baseLotSize, quoteLotSize,
	))
	return instructions, nil
}

// buildInitializeMarketIx encodes the OpenBook InitializeMarket instruction:
// a version byte, a u32 instruction index, then the market parameters.
func buildInitializeMarketIx(keys *marketKeypairs, params *types.MarketParams, vaultSignerNonce, baseLotSize, quoteLotSize uint64) solana.Instruction {
	const quoteDustThreshold = 100

	data := make([]byte, 0, 5+8+8+2+8+8)
	data = append(data, 0) // version
	data = binary.LittleEndian.AppendUint32(data, SerumInitializeMarket)
	data = binary.LittleEndian.AppendUint64(data, baseLotSize)
	data = binary.LittleEndian.AppendUint64(data, quoteLotSize)
	data = binary.LittleEndian.AppendUint16(data, 0) // fee rate bps
	data = binary.LittleEndian.AppendUint64(data, vaultSignerNonce)
	data = binary.LittleEndian.AppendUint64(data, quoteDustThreshold)

	accounts := []*solana.AccountMeta{
		{PublicKey: keys.market.PublicKey(), IsWritable: true, IsSigner: false},
		{PublicKey: keys.requestQueue.PublicKey(), IsWritable: true, IsSigner: false},
		{PublicKey: keys.eventQueue.PublicKey(), IsWritable: true, IsSigner: false},
		{PublicKey: keys.bids.PublicKey(), IsWritable: true, IsSigner: false},
		{PublicKey: keys.asks.PublicKey(), IsWritable: true, IsSigner: false},
		{PublicKey: keys.baseVault.PublicKey(), IsWritable: true, IsSigner: false},
		{PublicKey: keys.quoteVault.PublicKey(), IsWritable: true, IsSigner: false},
		{PublicKey: params.BaseToken.Mint, IsWritable: false, IsSigner: false},
		{PublicKey: params.QuoteToken.Mint, IsWritable: false, IsSigner: false},
		{PublicKey: solana.SysVarRentPubkey, IsWritable: false, IsSigner: false},
	}

	return solana.NewInstruction(OpenBookProgramID, accounts, data)
}
