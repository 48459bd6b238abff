// internal/dex/raydium/swap.go
package raydium

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-launcher/internal/types"
	"github.com/rovshanmuradov/solana-launcher/internal/wallet"
)

// ExecuteSwap buys a fixed output amount from the pool on behalf of the
// wallet named in the request. The input side is native SOL, wrapped in the
// same transaction; the slippage bound caps how many lamports the wrap
// commits.
func (c *Client) ExecuteSwap(ctx context.Context, req *types.SwapRequest) ([]solana.Signature, error) {
	w, err := wallet.New(req.WalletSecret)
	if err != nil {
		return nil, fmt.Errorf("invalid swap wallet: %w", err)
	}

	logger := c.logger.With(zap.String("wallet", w.String()))

	keys, err := c.FetchPoolKeys(ctx, req.TargetPool)
	if err != nil {
		return nil, fmt.Errorf("pool keys unavailable: %w", err)
	}

	state, err := c.FetchPoolState(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("pool state unavailable: %w", err)
	}

	outputIsBase := req.OutputToken.Mint.Equals(keys.BaseMint)
	quote, err := ComputeAmountIn(state, req.OutputAmount, outputIsBase, req.Slippage)
	if err != nil {
		return nil, fmt.Errorf("swap quote failed: %w", err)
	}

	logger.Info("Executing swap",
		zap.String("pool_id", keys.ID.String()),
		zap.Uint64("amount_out", req.OutputAmount),
		zap.Uint64("amount_in", quote.AmountIn),
		zap.Uint64("max_amount_in", quote.MaxAmountIn))

	sourceATA, err := w.GetATA(req.InputToken.Mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive source token account: %w", err)
	}
	destATA, err := w.GetATA(req.OutputToken.Mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive destination token account: %w", err)
	}

	instructions := []solana.Instruction{
		w.CreateATAIdempotentInstruction(w.PublicKey, w.PublicKey, req.OutputToken.Mint),
		w.CreateATAIdempotentInstruction(w.PublicKey, w.PublicKey, req.InputToken.Mint),
		system.NewTransferInstruction(quote.MaxAmountIn, w.PublicKey, sourceATA).Build(),
		token.NewSyncNativeInstruction(sourceATA).Build(),
		buildSwapBaseOutIx(keys, quote.MaxAmountIn, req.OutputAmount, sourceATA, destATA, w.PublicKey),
	}

	sig, err := c.signAndSend(ctx, instructions, w.PublicKey, []solana.PrivateKey{w.PrivateKey})
	if err != nil {
		return nil, fmt.Errorf("swap transaction failed: %w", err)
	}

	logger.Info("Swap sent", zap.String("signature", sig.String()))
	return []solana.Signature{sig}, nil
}

// buildSwapBaseOutIx encodes the AMM v4 swap_base_out instruction: the output
// amount is exact, the input is bounded by maxAmountIn.
func buildSwapBaseOutIx(keys *PoolKeys, maxAmountIn, amountOut uint64, userSource, userDest, owner solana.PublicKey) solana.Instruction {
	data := make([]byte, 0, 1+8+8)
	data = append(data, AmmInstructionSwapBaseOut)
	data = binary.LittleEndian.AppendUint64(data, maxAmountIn)
	data = binary.LittleEndian.AppendUint64(data, amountOut)

	metas := []*solana.AccountMeta{
		{PublicKey: solana.TokenProgramID},
		{PublicKey: keys.ID, IsWritable: true},
		{PublicKey: keys.Authority},
		{PublicKey: keys.OpenOrders, IsWritable: true},
		{PublicKey: keys.TargetOrders, IsWritable: true},
		{PublicKey: keys.BaseVault, IsWritable: true},
		{PublicKey: keys.QuoteVault, IsWritable: true},
		{PublicKey: keys.MarketProgramID},
		{PublicKey: keys.MarketID, IsWritable: true},
		{PublicKey: keys.MarketBids, IsWritable: true},
		{PublicKey: keys.MarketAsks, IsWritable: true},
		{PublicKey: keys.MarketEventQueue, IsWritable: true},
		{PublicKey: keys.MarketBaseVault, IsWritable: true},
		{PublicKey: keys.MarketQuoteVault, IsWritable: true},
		{PublicKey: keys.MarketVaultSigner},
		{PublicKey: userSource, IsWritable: true},
		{PublicKey: userDest, IsWritable: true},
		{PublicKey: owner, IsWritable: true, IsSigner: true},
	}

	return solana.NewInstruction(RaydiumV4ProgramID, metas, data)
}
