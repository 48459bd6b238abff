// ====================================
// File: cmd/launcher/main.go
// ====================================
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	solanabc "github.com/rovshanmuradov/solana-launcher/internal/blockchain/solana"
	"github.com/rovshanmuradov/solana-launcher/internal/config"
	"github.com/rovshanmuradov/solana-launcher/internal/dex/raydium"
	"github.com/rovshanmuradov/solana-launcher/internal/launch"
	"github.com/rovshanmuradov/solana-launcher/internal/logger"
	"github.com/rovshanmuradov/solana-launcher/internal/types"
	"github.com/rovshanmuradov/solana-launcher/internal/units"
	"github.com/rovshanmuradov/solana-launcher/internal/wallet"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalOpts struct {
	configDir   string
	network     string
	concurrency int
}

func newRootCmd() *cobra.Command {
	opts := &globalOpts{}

	root := &cobra.Command{
		Use:           "launcher",
		Short:         "Token launch pipeline: mint, market, pool, swaps",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configDir, "config-dir", "configs", "directory with config.<network>.yaml")
	root.PersistentFlags().StringVar(&opts.network, "network", "", "network selector (defaults to devnet)")
	root.PersistentFlags().IntVar(&opts.concurrency, "swap-concurrency", 1, "parallel wallet swaps (1 = strictly sequential)")

	root.AddCommand(newLaunchCmd(opts))
	root.AddCommand(newResumeCmd(opts))
	root.AddCommand(newSwapCmd(opts))
	return root
}

// runtime bundles everything a pipeline run needs.
type runtime struct {
	cfg      *config.Config
	log      *logger.Logger
	dex      *raydium.Client
	pipeline *launch.Pipeline
	store    *launch.CheckpointStore
	deployer *wallet.Wallet
	wallets  []*wallet.Wallet
}

func setup(ctx context.Context, opts *globalOpts) (*runtime, error) {
	cfg, err := config.Load(opts.configDir, opts.network)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logCfg := logger.DefaultConfig()
	logCfg.Development = cfg.DebugLogging
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	client, err := solanabc.NewClient(cfg.RPCList,
		solanabc.Options{RateLimitRPS: cfg.RateLimitRPS}, log.Logger)
	if err != nil {
		return nil, err
	}
	if _, err := client.CheckHealth(ctx); err != nil {
		return nil, fmt.Errorf("RPC health check failed: %w", err)
	}

	deployer, err := wallet.New(cfg.DeployerPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("invalid deployer key: %w", err)
	}
	if deployer.PublicKey.String() != cfg.DeployerPublicKey {
		return nil, fmt.Errorf("deployer key mismatch: private key derives %s, config says %s",
			logger.ShortenAddress(deployer.PublicKey.String()),
			logger.ShortenAddress(cfg.DeployerPublicKey))
	}

	store, err := launch.NewCheckpointStore(cfg.CheckpointDir)
	if err != nil {
		return nil, err
	}

	wallets, err := wallet.LoadList(cfg.WalletsFile)
	if err != nil {
		return nil, err
	}

	dex := raydium.NewClient(client, deployer, log.Logger)
	pipeline := launch.NewPipeline(client, dex, deployer, store,
		launch.Options{SwapConcurrency: opts.concurrency}, log)

	log.Info("Launcher initialized",
		zap.String("network", cfg.Network),
		zap.String("deployer", deployer.String()),
		zap.Int("swap_wallets", len(wallets)))

	return &runtime{
		cfg:      cfg,
		log:      log,
		dex:      dex,
		pipeline: pipeline,
		store:    store,
		deployer: deployer,
		wallets:  wallets,
	}, nil
}

func newLaunchCmd(opts *globalOpts) *cobra.Command {
	var inputsFile string

	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Run the full launch pipeline, prompting for token parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer rt.log.Sync()

			var inputs *launch.Inputs
			if inputsFile != "" {
				inputs, err = launch.LoadInputs(inputsFile)
			} else {
				inputs, err = launch.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout()).Collect()
			}
			if err != nil {
				return fmt.Errorf("input collection failed: %w", err)
			}

			cp := launch.NewCheckpoint(rt.cfg.Network, *inputs)
			if err := rt.store.Save(cp); err != nil {
				return err
			}
			rt.log.Info("Run checkpoint created", zap.String("run_id", cp.RunID))

			return rt.pipeline.Run(cmd.Context(), cp, rt.wallets)
		},
	}

	cmd.Flags().StringVar(&inputsFile, "inputs", "", "YAML file with launch parameters (skips prompting)")
	return cmd
}

func newResumeCmd(opts *globalOpts) *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Resume an interrupted run from its first incomplete stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer rt.log.Sync()

			var cp *launch.Checkpoint
			if runID != "" {
				cp, err = rt.store.Load(runID)
			} else {
				cp, err = rt.store.Latest()
			}
			if err != nil {
				return fmt.Errorf("no run to resume: %w", err)
			}

			rt.log.Info("Resuming run",
				zap.String("run_id", cp.RunID),
				zap.String("mint", cp.Mint),
				zap.String("market_id", cp.MarketID),
				zap.String("pool_id", cp.PoolID))

			return rt.pipeline.Run(cmd.Context(), cp, rt.wallets)
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "run id to resume (defaults to the most recent)")
	return cmd
}

// newSwapCmd runs only the swap leg against an already live pool, for the
// case where a launch finished but more wallets need to buy in.
func newSwapCmd(opts *globalOpts) *cobra.Command {
	var (
		poolID   string
		mint     string
		amount   uint64
		decimals uint8
	)

	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Execute the wallet swaps against an existing pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer rt.log.Sync()

			pool, err := solana.PublicKeyFromBase58(poolID)
			if err != nil {
				return fmt.Errorf("invalid pool id: %w", err)
			}
			outputMint, err := solana.PublicKeyFromBase58(mint)
			if err != nil {
				return fmt.Errorf("invalid mint: %w", err)
			}
			outputAmount, err := units.ToBaseUnits(amount, decimals)
			if err != nil {
				return err
			}

			var failed int
			for _, w := range append([]*wallet.Wallet{rt.deployer}, rt.wallets...) {
				sigs, err := rt.dex.ExecuteSwap(cmd.Context(), &types.SwapRequest{
					TargetPool:   pool,
					InputToken:   types.WSOL(),
					OutputToken:  types.Token{Mint: outputMint, Decimals: decimals},
					OutputAmount: outputAmount,
					Slippage:     types.DefaultSlippage(),
					WalletSecret: w.PrivateKey.String(),
				})
				if err != nil {
					failed++
					rt.log.Error("Swap failed", zap.String("wallet", w.String()), zap.Error(err))
					continue
				}
				for _, sig := range sigs {
					rt.log.Info("Swap sent",
						zap.String("wallet", logger.ShortenAddress(w.String())),
						zap.String("signature", sig.String()))
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d swaps failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&poolID, "pool", "", "target pool id (base58)")
	cmd.Flags().StringVar(&mint, "mint", "", "output token mint (base58)")
	cmd.Flags().Uint64Var(&amount, "amount", 0, "output amount in human units")
	cmd.Flags().Uint8Var(&decimals, "decimals", 9, "output token decimals")
	_ = cmd.MarkFlagRequired("pool")
	_ = cmd.MarkFlagRequired("mint")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}
