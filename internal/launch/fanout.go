// internal/launch/fanout.go
package launch

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/solana-launcher/internal/logger"
	"github.com/rovshanmuradov/solana-launcher/internal/types"
	"github.com/rovshanmuradov/solana-launcher/internal/wallet"
)

// SwapResult is one wallet's fan-out outcome. Failures are collected, not
// propagated, so one wallet cannot stop the rest.
type SwapResult struct {
	Wallet     string
	Signatures []solana.Signature
	Err        error
}

type swapFanOut struct {
	poolID       solana.PublicKey
	inputToken   types.Token
	outputToken  types.Token
	outputAmount uint64
	wallets      []*wallet.Wallet
}

// fanOutSwaps executes the deployer's swap first and waits for it, then runs
// one swap per wallet in file order with bounded concurrency. Results come
// back in wallet order regardless of completion order.
func (p *Pipeline) fanOutSwaps(ctx context.Context, job swapFanOut, log *logger.Logger) []SwapResult {
	results := make([]SwapResult, len(job.wallets)+1)
	results[0] = p.swapOne(ctx, job, p.deployer, log.WithWallet(p.deployer.PublicKey.String()))

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(p.swapConcurrency)

	for i, w := range job.wallets {
		group.Go(func() error {
			results[i+1] = p.swapOne(ctx, job, w, log.WithWallet(w.PublicKey.String()))
			return nil // failures are aggregated, never group-fatal
		})
	}
	_ = group.Wait()

	log.Info("Swap fan-out finished",
		zap.Int("wallets", len(results)),
		zap.Int("concurrency", p.swapConcurrency))
	return results
}

func (p *Pipeline) swapOne(ctx context.Context, job swapFanOut, w *wallet.Wallet, log *logger.Logger) SwapResult {
	log.Debug("Executing swap", zap.Uint64("output_amount", job.outputAmount))
	sigs, err := p.dex.ExecuteSwap(ctx, &types.SwapRequest{
		TargetPool:   job.poolID,
		InputToken:   job.inputToken,
		OutputToken:  job.outputToken,
		OutputAmount: job.outputAmount,
		Slippage:     types.DefaultSlippage(),
		WalletSecret: w.PrivateKey.String(),
	})
	return SwapResult{
		Wallet:     w.String(),
		Signatures: sigs,
		Err:        err,
	}
}
