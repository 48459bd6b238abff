// internal/launch/pipeline.go
package launch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	solanabc "github.com/rovshanmuradov/solana-launcher/internal/blockchain/solana"
	"github.com/rovshanmuradov/solana-launcher/internal/logger"
	"github.com/rovshanmuradov/solana-launcher/internal/poll"
	"github.com/rovshanmuradov/solana-launcher/internal/types"
	"github.com/rovshanmuradov/solana-launcher/internal/units"
	"github.com/rovshanmuradov/solana-launcher/internal/wallet"
)

// ErrInsufficientBalance aborts the run before any on-chain resource is
// created. The command layer maps it to exit code 1.
var ErrInsufficientBalance = errors.New("insufficient deployer balance")

// MinBalanceSOL is the flat deployer reserve required on top of twice the
// pool quote amount. The doubled quote covers both the pool seed and a fee
// buffer.
const MinBalanceSOL = 4

// DEX is the external-protocol collaborator the pipeline sequences. The
// Raydium client implements it; tests substitute a mock.
type DEX interface {
	CreateToken(ctx context.Context, info *types.TokenInfo) (solana.PublicKey, error)
	CreateMarket(ctx context.Context, params *types.MarketParams) (*types.MarketInfo, error)
	CreatePool(ctx context.Context, seed *types.PoolSeed) (*types.PoolInfo, error)
	ExecuteSwap(ctx context.Context, req *types.SwapRequest) ([]solana.Signature, error)
}

// Pipeline runs the five launch stages in order: balance check, token
// creation, market creation, pool creation, swap fan-out. Stage outputs are
// checkpointed so an interrupted run resumes at its first incomplete stage.
type Pipeline struct {
	client      solanabc.ClientInterface
	dex         DEX
	deployer    *wallet.Wallet
	checkpoints *CheckpointStore
	logger      *logger.Logger

	visibilityPollOpts poll.Options
	swapConcurrency    int
}

// Options tune pipeline behaviour beyond the collaborator set.
type Options struct {
	SwapConcurrency int // <= 1 means strictly sequential fan-out
}

func NewPipeline(client solanabc.ClientInterface, dex DEX, deployer *wallet.Wallet, store *CheckpointStore, opts Options, log *logger.Logger) *Pipeline {
	concurrency := opts.SwapConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pipeline{
		client:      client,
		dex:         dex,
		deployer:    deployer,
		checkpoints: store,
		logger:      log.Named("pipeline"),
		visibilityPollOpts: poll.Options{
			Interval:    time.Second,
			MaxAttempts: poll.DefaultMaxAttempts,
		},
		swapConcurrency: concurrency,
	}
}

// Run executes the pipeline from the checkpoint's first incomplete stage.
// For a fresh run pass NewCheckpoint output; for resume pass a loaded one.
func (p *Pipeline) Run(ctx context.Context, cp *Checkpoint, swapWallets []*wallet.Wallet) error {
	if err := cp.Inputs.Validate(); err != nil {
		return fmt.Errorf("invalid launch inputs: %w", err)
	}

	log := p.logger.WithRun(cp.RunID)
	log.Info("Starting launch pipeline",
		zap.String("network", cp.Network),
		zap.Uint64("supply", cp.Inputs.Supply),
		zap.Uint64("pool_base", cp.Inputs.PoolBaseAmount),
		zap.Uint64("pool_quote_sol", cp.Inputs.PoolQuoteSOL))

	if err := p.checkBalance(ctx, &cp.Inputs, log.WithStage("balance_check")); err != nil {
		return err
	}

	mint, err := p.ensureToken(ctx, cp, log.WithStage("token_creation"))
	if err != nil {
		return err
	}

	baseToken := types.Token{
		Mint:     mint,
		Decimals: cp.Inputs.Decimals,
		Symbol:   cp.Inputs.Symbol,
		Name:     cp.Inputs.TokenName,
	}

	marketID, err := p.ensureMarket(ctx, cp, baseToken, log.WithStage("market_creation"))
	if err != nil {
		return err
	}

	poolID, err := p.ensurePool(ctx, cp, baseToken, marketID, log.WithStage("pool_creation"))
	if err != nil {
		return err
	}

	if err := p.runSwaps(ctx, cp, baseToken, poolID, swapWallets, log.WithStage("swap_execution")); err != nil {
		return err
	}

	log.Info("Launch pipeline complete",
		zap.String("mint", cp.Mint),
		zap.String("market_id", cp.MarketID),
		zap.String("pool_id", cp.PoolID))
	return nil
}

// checkBalance enforces the fatal precondition: the deployer needs the flat
// minimum plus twice the quote amount it is about to commit to the pool.
func (p *Pipeline) checkBalance(ctx context.Context, in *Inputs, log *logger.Logger) error {
	balance, err := p.client.GetBalance(ctx, p.deployer.PublicKey)
	if err != nil {
		return fmt.Errorf("failed to read deployer balance: %w", err)
	}

	required := (MinBalanceSOL + 2*in.PoolQuoteSOL) * types.LamportsPerSOL
	if balance < required {
		log.Error("Deployer balance below required minimum",
			zap.Uint64("balance_lamports", balance),
			zap.Uint64("required_lamports", required))
		return fmt.Errorf("%w: have %.4f SOL, need %.4f SOL",
			ErrInsufficientBalance,
			float64(balance)/float64(types.LamportsPerSOL),
			float64(required)/float64(types.LamportsPerSOL))
	}
	return nil
}

func (p *Pipeline) ensureToken(ctx context.Context, cp *Checkpoint, log *logger.Logger) (solana.PublicKey, error) {
	if cp.Mint != "" {
		log.Info("Token already created, skipping", zap.String("mint", cp.Mint))
		return solana.PublicKeyFromBase58(cp.Mint)
	}

	mint, err := p.dex.CreateToken(ctx, cp.Inputs.TokenInfo())
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("token creation failed: %w", err)
	}

	cp.Mint = mint.String()
	if err := p.checkpoints.Save(cp); err != nil {
		return solana.PublicKey{}, err
	}
	return mint, nil
}

func (p *Pipeline) ensureMarket(ctx context.Context, cp *Checkpoint, baseToken types.Token, log *logger.Logger) (solana.PublicKey, error) {
	if cp.MarketID != "" {
		log.Info("Market already created, skipping", zap.String("market_id", cp.MarketID))
		return solana.PublicKeyFromBase58(cp.MarketID)
	}

	tickSize, _ := types.TickSizeFor(cp.Inputs.LotSize)
	market, err := p.dex.CreateMarket(ctx, &types.MarketParams{
		BaseToken:  baseToken,
		QuoteToken: types.WSOL(),
		LotSize:    cp.Inputs.LotSize,
		TickSize:   tickSize,
	})
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("market creation failed: %w", err)
	}

	cp.MarketID = market.MarketID.String()
	if err := p.checkpoints.Save(cp); err != nil {
		return solana.PublicKey{}, err
	}
	return market.MarketID, nil
}

func (p *Pipeline) ensurePool(ctx context.Context, cp *Checkpoint, baseToken types.Token, marketID solana.PublicKey, log *logger.Logger) (solana.PublicKey, error) {
	if cp.PoolID != "" {
		log.Info("Pool already created, skipping", zap.String("pool_id", cp.PoolID))
		return solana.PublicKeyFromBase58(cp.PoolID)
	}

	// The minted balance appears in the deployer's wallet asynchronously;
	// pool creation waits for it.
	snapshot, err := p.waitForTokenVisibility(ctx, baseToken.Mint, log)
	if err != nil {
		return solana.PublicKey{}, err
	}

	addBase, err := units.ToBaseUnits(cp.Inputs.PoolBaseAmount, cp.Inputs.Decimals)
	if err != nil {
		return solana.PublicKey{}, err
	}

	pool, err := p.dex.CreatePool(ctx, &types.PoolSeed{
		BaseToken:           baseToken,
		QuoteToken:          types.WSOL(),
		AddBaseAmount:       addBase,
		AddQuoteAmount:      cp.Inputs.PoolQuoteSOL * types.LamportsPerSOL,
		TargetMarketID:      marketID,
		StartTime:           time.Now().Add(time.Duration(cp.Inputs.LockHours) * time.Hour).Unix(),
		WalletTokenAccounts: snapshot,
	})
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("pool creation failed: %w", err)
	}

	cp.PoolID = pool.PoolID.String()
	if err := p.checkpoints.Save(cp); err != nil {
		return solana.PublicKey{}, err
	}
	return pool.PoolID, nil
}

// waitForTokenVisibility polls the deployer's token-account snapshot until
// the freshly minted token shows up in it.
func (p *Pipeline) waitForTokenVisibility(ctx context.Context, mint solana.PublicKey, log *logger.Logger) ([]solanabc.TokenAccount, error) {
	return poll.Wait(ctx, log.Logger, "token visibility", p.visibilityPollOpts,
		func(ctx context.Context) ([]solanabc.TokenAccount, bool, error) {
			snapshot, err := p.client.GetWalletTokenAccounts(ctx, p.deployer.PublicKey)
			if err != nil {
				return nil, false, err
			}
			for _, account := range snapshot {
				if account.Mint.Equals(mint) {
					return snapshot, true, nil
				}
			}
			return nil, false, nil
		})
}

func (p *Pipeline) runSwaps(ctx context.Context, cp *Checkpoint, baseToken types.Token, poolID solana.PublicKey, swapWallets []*wallet.Wallet, log *logger.Logger) error {
	if cp.SwapsDone {
		log.Info("Swaps already executed, skipping")
		return nil
	}

	outputAmount, err := cp.Inputs.SwapOutputBaseUnits()
	if err != nil {
		return err
	}

	results := p.fanOutSwaps(ctx, swapFanOut{
		poolID:       poolID,
		inputToken:   types.WSOL(),
		outputToken:  baseToken,
		outputAmount: outputAmount,
		wallets:      swapWallets,
	}, log)

	reportPath := p.checkpoints.SwapReportPath(cp.RunID)
	if err := WriteSwapReport(reportPath, results); err != nil {
		log.Warn("Failed to write swap report", zap.Error(err))
	} else {
		log.Info("Swap report written", zap.String("path", reportPath))
	}

	var failed int
	for _, res := range results {
		if res.Err != nil {
			failed++
			log.Error("Wallet swap failed",
				zap.String("wallet", res.Wallet), zap.Error(res.Err))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d swaps failed", failed, len(results))
	}

	cp.SwapsDone = true
	return p.checkpoints.Save(cp)
}
