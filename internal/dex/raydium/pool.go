// internal/dex/raydium/pool.go
package raydium

import (
	"context"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-launcher/internal/poll"
	"github.com/rovshanmuradov/solana-launcher/internal/types"
)

// poolAccounts holds the PDAs derived for one AMM pool from its market.
type poolAccounts struct {
	AmmID        solana.PublicKey
	Authority    solana.PublicKey
	Nonce        uint8
	OpenOrders   solana.PublicKey
	TargetOrders solana.PublicKey
	LPMint       solana.PublicKey
	BaseVault    solana.PublicKey
	QuoteVault   solana.PublicKey
	Config       solana.PublicKey
}

// derivePoolAccounts computes the full PDA set for the pool keyed by the
// market it trades against. The derivations are deterministic, so re-running
// them after a restart always lands on the same pool.
func derivePoolAccounts(marketID solana.PublicKey) (*poolAccounts, error) {
	authority, nonce, err := AmmAuthority()
	if err != nil {
		return nil, fmt.Errorf("failed to derive amm authority: %w", err)
	}
	config, err := AmmConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to derive amm config: %w", err)
	}

	accounts := &poolAccounts{Authority: authority, Nonce: nonce, Config: config}
	for _, d := range []struct {
		target *solana.PublicKey
		seed   []byte
	}{
		{&accounts.AmmID, ammAssociatedSeed},
		{&accounts.OpenOrders, openOrderSeed},
		{&accounts.TargetOrders, targetSeed},
		{&accounts.LPMint, lpMintSeed},
		{&accounts.BaseVault, coinVaultSeed},
		{&accounts.QuoteVault, pcVaultSeed},
	} {
		addr, err := derivePoolAccount(marketID, d.seed)
		if err != nil {
			return nil, fmt.Errorf("failed to derive pool account for seed %q: %w", d.seed, err)
		}
		*d.target = addr
	}
	return accounts, nil
}

// CreatePool creates and seeds a Raydium AMM v4 pool on top of an existing
// market. The quote side is funded by wrapping native SOL in the same
// transaction.
func (c *Client) CreatePool(ctx context.Context, seed *types.PoolSeed) (*types.PoolInfo, error) {
	accounts, err := derivePoolAccounts(seed.TargetMarketID)
	if err != nil {
		return nil, err
	}

	baseATA, err := c.deployer.GetATA(seed.BaseToken.Mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive base token account: %w", err)
	}
	quoteATA, err := c.deployer.GetATA(seed.QuoteToken.Mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive quote token account: %w", err)
	}
	lpATA, _, err := solana.FindAssociatedTokenAddress(c.deployer.PublicKey, accounts.LPMint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive lp token account: %w", err)
	}

	c.logger.Info("Creating pool",
		zap.String("pool_id", accounts.AmmID.String()),
		zap.String("market_id", seed.TargetMarketID.String()),
		zap.Uint64("base_amount", seed.AddBaseAmount),
		zap.Uint64("quote_amount", seed.AddQuoteAmount),
		zap.Int64("start_time", seed.StartTime))

	instructions := []solana.Instruction{
		// Fund the quote side: create the WSOL account if missing, move
		// lamports in and sync the wrapped balance.
		c.deployer.CreateATAIdempotentInstruction(c.deployer.PublicKey, c.deployer.PublicKey, seed.QuoteToken.Mint),
		system.NewTransferInstruction(seed.AddQuoteAmount, c.deployer.PublicKey, quoteATA).Build(),
		token.NewSyncNativeInstruction(quoteATA).Build(),
		buildInitialize2Ix(accounts, seed, c.deployer.PublicKey, baseATA, quoteATA, lpATA),
	}

	sig, err := c.sendAndConfirm(ctx, instructions, []solana.PrivateKey{c.deployer.PrivateKey})
	if err != nil {
		return nil, fmt.Errorf("pool creation failed: %w", err)
	}

	c.logger.Info("Pool created",
		zap.String("pool_id", accounts.AmmID.String()),
		zap.String("signature", sig.String()))

	return &types.PoolInfo{
		PoolID:       accounts.AmmID,
		LPMint:       accounts.LPMint,
		BaseVault:    accounts.BaseVault,
		QuoteVault:   accounts.QuoteVault,
		OpenOrders:   accounts.OpenOrders,
		TargetOrders: accounts.TargetOrders,
		MarketID:     seed.TargetMarketID,
	}, nil
}

// buildInitialize2Ix encodes the AMM v4 initialize2 instruction. Account
// order is fixed by the program.
func buildInitialize2Ix(accounts *poolAccounts, seed *types.PoolSeed, user, userBaseATA, userQuoteATA, userLpATA solana.PublicKey) solana.Instruction {
	data := make([]byte, 0, 1+1+8+8+8)
	data = append(data, AmmInstructionInit2, accounts.Nonce)
	data = binary.LittleEndian.AppendUint64(data, uint64(seed.StartTime))
	data = binary.LittleEndian.AppendUint64(data, seed.AddQuoteAmount)
	data = binary.LittleEndian.AppendUint64(data, seed.AddBaseAmount)

	metas := []*solana.AccountMeta{
		{PublicKey: solana.TokenProgramID},
		{PublicKey: solana.SPLAssociatedTokenAccountProgramID},
		{PublicKey: solana.SystemProgramID},
		{PublicKey: solana.SysVarRentPubkey},
		{PublicKey: accounts.AmmID, IsWritable: true},
		{PublicKey: accounts.Authority},
		{PublicKey: accounts.OpenOrders, IsWritable: true},
		{PublicKey: accounts.LPMint, IsWritable: true},
		{PublicKey: seed.BaseToken.Mint},
		{PublicKey: seed.QuoteToken.Mint},
		{PublicKey: accounts.BaseVault, IsWritable: true},
		{PublicKey: accounts.QuoteVault, IsWritable: true},
		{PublicKey: accounts.TargetOrders, IsWritable: true},
		{PublicKey: accounts.Config},
		{PublicKey: FeeDestinationID, IsWritable: true},
		{PublicKey: OpenBookProgramID},
		{PublicKey: seed.TargetMarketID, IsWritable: true},
		{PublicKey: user, IsWritable: true, IsSigner: true},
		{PublicKey: userBaseATA, IsWritable: true},
		{PublicKey: userQuoteATA, IsWritable: true},
		{PublicKey: userLpATA, IsWritable: true},
	}

	return solana.NewInstruction(RaydiumV4ProgramID, metas, data)
}

// FetchPoolKeys polls the chain until the pool's liquidity account and its
// market account are both readable, then assembles the full key set a swap
// needs. A freshly created pool appears asynchronously, so not-found is a
// retry, not an error.
func (c *Client) FetchPoolKeys(ctx context.Context, poolID solana.PublicKey) (*PoolKeys, error) {
	return poll.Wait(ctx, c.logger, "pool keys", c.keysPollOpts,
		func(ctx context.Context) (*PoolKeys, bool, error) {
			state, ok, err := c.fetchLiquidityState(ctx, poolID)
			if err != nil || !ok {
				return nil, false, err
			}

			market, ok, err := c.fetchMarketState(ctx, state.MarketID)
			if err != nil || !ok {
				return nil, false, err
			}

			nonceBytes := make([]byte, 8)
			binary.LittleEndian.PutUint64(nonceBytes, market.VaultSignerNonce)
			vaultSigner, err := solana.CreateProgramAddress(
				[][]byte{state.MarketID.Bytes(), nonceBytes},
				state.MarketProgramID,
			)
			if err != nil {
				return nil, false, fmt.Errorf("failed to derive market vault signer: %w", err)
			}

			authority, _, err := AmmAuthority()
			if err != nil {
				return nil, false, err
			}

			return &PoolKeys{
				ID:           poolID,
				Authority:    authority,
				OpenOrders:   state.OpenOrders,
				TargetOrders: state.TargetOrders,
				BaseVault:    state.BaseVault,
				QuoteVault:   state.QuoteVault,

				BaseMint:  state.BaseMint,
				QuoteMint: state.QuoteMint,
				LPMint:    state.LpMint,

				MarketProgramID:   state.MarketProgramID,
				MarketID:          state.MarketID,
				MarketBids:        market.Bids,
				MarketAsks:        market.Asks,
				MarketEventQueue:  market.EventQueue,
				MarketBaseVault:   market.BaseVault,
				MarketQuoteVault:  market.QuoteVault,
				MarketVaultSigner: vaultSigner,
			}, true, nil
		})
}

// FetchPoolState polls until the pool reports live reserves. Reserves are
// the vault balances minus the pending PnL the program will take.
func (c *Client) FetchPoolState(ctx context.Context, keys *PoolKeys) (*PoolState, error) {
	return poll.Wait(ctx, c.logger, "pool state", c.statePollOpts,
		func(ctx context.Context) (*PoolState, bool, error) {
			state, ok, err := c.fetchLiquidityState(ctx, keys.ID)
			if err != nil || !ok {
				return nil, false, err
			}

			result, err := c.client.GetMultipleAccounts(ctx, keys.BaseVault, keys.QuoteVault)
			if err != nil {
				return nil, false, err
			}
			if len(result.Value) != 2 || result.Value[0] == nil || result.Value[1] == nil {
				return nil, false, nil
			}

			var baseAcc, quoteAcc token.Account
			if err := bin.NewBinDecoder(result.Value[0].Data.GetBinary()).Decode(&baseAcc); err != nil {
				return nil, false, fmt.Errorf("failed to decode base vault: %w", err)
			}
			if err := bin.NewBinDecoder(result.Value[1].Data.GetBinary()).Decode(&quoteAcc); err != nil {
				return nil, false, fmt.Errorf("failed to decode quote vault: %w", err)
			}

			if baseAcc.Amount <= state.BaseNeedTakePnl || quoteAcc.Amount <= state.QuoteNeedTakePnl {
				return nil, false, nil
			}

			return &PoolState{
				BaseReserve:        baseAcc.Amount - state.BaseNeedTakePnl,
				QuoteReserve:       quoteAcc.Amount - state.QuoteNeedTakePnl,
				SwapFeeNumerator:   state.SwapFeeNumerator,
				SwapFeeDenominator: state.SwapFeeDenominator,
				Status:             state.Status,
			}, true, nil
		})
}

// fetchLiquidityState reads and decodes the pool's liquidity account. A
// missing or short account means the pool is not visible yet.
func (c *Client) fetchLiquidityState(ctx context.Context, poolID solana.PublicKey) (*liquidityStateV4, bool, error) {
	result, err := c.client.GetAccountInfo(ctx, poolID)
	if err != nil {
		return nil, false, nil // transient RPC failure, retry
	}
	if result == nil || result.Value == nil {
		return nil, false, nil
	}
	data := result.Value.Data.GetBinary()
	if len(data) < LiquidityStateSize {
		return nil, false, nil
	}

	var state liquidityStateV4
	if err := bin.NewBinDecoder(data).Decode(&state); err != nil {
		return nil, false, fmt.Errorf("failed to decode liquidity state: %w", err)
	}
	return &state, true, nil
}

func (c *Client) fetchMarketState(ctx context.Context, marketID solana.PublicKey) (*marketStateV3, bool, error) {
	result, err := c.client.GetAccountInfo(ctx, marketID)
	if err != nil {
		return nil, false, nil
	}
	if result == nil || result.Value == nil {
		return nil, false, nil
	}

	var market marketStateV3
	if err := bin.NewBinDecoder(result.Value.Data.GetBinary()).Decode(&market); err != nil {
		return nil, false, fmt.Errorf("failed to decode market state: %w", err)
	}
	return &market, true, nil
}
