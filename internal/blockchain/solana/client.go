// internal/blockchain/solana/client.go
package solana

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ClientInterface is the subset of ledger access the launch pipeline needs.
// The pipeline and DEX layers depend on this interface so tests can mock it.
type ClientInterface interface {
	GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
	GetLatestBlockhash(ctx context.Context) (solana.Hash, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, sig solana.Signature) (*rpc.GetSignatureStatusesResult, error)
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error)
	GetMultipleAccounts(ctx context.Context, accounts ...solana.PublicKey) (*rpc.GetMultipleAccountsResult, error)
	GetWalletTokenAccounts(ctx context.Context, owner solana.PublicKey) ([]TokenAccount, error)
	GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64) (uint64, error)
}

// TokenAccount is a point-in-time view of one SPL token account owned by a
// wallet. Snapshots are re-fetched on every poll because a freshly minted
// token appears asynchronously.
type TokenAccount struct {
	Pubkey solana.PublicKey
	Mint   solana.PublicKey
	Amount uint64
}

// Client provides rate-limited access to a pool of RPC endpoints.
type Client struct {
	rpcPool *RPCPool
	limiter *rate.Limiter
	logger  *zap.Logger
}

// Options tune the RPC client behaviour.
type Options struct {
	RateLimitRPS float64 // 0 disables rate limiting
}

// NewClient creates a Solana RPC client over the given endpoint list.
func NewClient(rpcList []string, opts Options, logger *zap.Logger) (*Client, error) {
	if len(rpcList) == 0 {
		return nil, errors.New("empty RPC list")
	}

	for _, rpcURL := range rpcList {
		if _, err := url.Parse(rpcURL); err != nil {
			return nil, errors.New("invalid RPC URL: " + rpcURL)
		}
	}

	var limiter *rate.Limiter
	if opts.RateLimitRPS > 0 {
		burst := int(opts.RateLimitRPS * 2)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), burst)
	}

	return &Client{
		rpcPool: NewRPCPool(rpcList),
		limiter: limiter,
		logger:  logger,
	}, nil
}

// CheckHealth probes every configured endpoint and fails when none of them
// answer. The launcher calls it once at startup so a dead RPC list is caught
// before any on-chain resource is created.
func (c *Client) CheckHealth(ctx context.Context) (int, error) {
	total := len(c.rpcPool.clients)
	healthy := c.rpcPool.HealthyCount(ctx)
	if healthy == 0 {
		return 0, fmt.Errorf("none of the %d RPC endpoints are reachable", total)
	}
	if healthy < total {
		c.logger.Warn("Some RPC endpoints are unreachable",
			zap.Int("healthy", healthy), zap.Int("total", total))
	}
	return healthy, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// GetBalance returns the account's native balance in lamports.
func (c *Client) GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	result, err := c.rpcPool.GetClient().GetBalance(ctx, account, rpc.CommitmentFinalized)
	if err != nil {
		c.logger.Error("Failed to fetch balance", zap.String("account", account.String()), zap.Error(err))
		return 0, err
	}
	return result.Value, nil
}

func (c *Client) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	if err := c.wait(ctx); err != nil {
		return solana.Hash{}, err
	}
	result, err := c.rpcPool.GetClient().GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		c.logger.Error("Failed to fetch blockhash", zap.Error(err))
		return solana.Hash{}, err
	}
	return result.Value.Blockhash, nil
}

// SendTransaction broadcasts a signed transaction, bypassing preflight
// simulation the way the launch flow requires.
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if err := c.wait(ctx); err != nil {
		return solana.Signature{}, err
	}
	txHash, err := c.rpcPool.GetClient().SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       true,
		PreflightCommitment: rpc.CommitmentFinalized,
	})
	if err != nil {
		c.logger.Error("Failed to send transaction", zap.Error(err))
		return solana.Signature{}, err
	}
	return txHash, nil
}

func (c *Client) GetSignatureStatuses(ctx context.Context, sig solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.rpcPool.GetClient().GetSignatureStatuses(ctx, true, sig)
}

func (c *Client) GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.rpcPool.GetClient().GetAccountInfo(ctx, account)
}

func (c *Client) GetMultipleAccounts(ctx context.Context, accounts ...solana.PublicKey) (*rpc.GetMultipleAccountsResult, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.rpcPool.GetClient().GetMultipleAccounts(ctx, accounts...)
}

// GetWalletTokenAccounts fetches and decodes all SPL token accounts owned by
// the wallet.
func (c *Client) GetWalletTokenAccounts(ctx context.Context, owner solana.PublicKey) ([]TokenAccount, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	out, err := c.rpcPool.GetClient().GetTokenAccountsByOwner(ctx, owner,
		&rpc.GetTokenAccountsConfig{ProgramId: solana.TokenProgramID.ToPointer()},
		&rpc.GetTokenAccountsOpts{Encoding: solana.EncodingBase64},
	)
	if err != nil {
		c.logger.Error("Failed to fetch token accounts", zap.String("owner", owner.String()), zap.Error(err))
		return nil, err
	}

	accounts := make([]TokenAccount, 0, len(out.Value))
	for _, raw := range out.Value {
		var acc token.Account
		data := raw.Account.Data.GetBinary()
		if err := bin.NewBinDecoder(data).Decode(&acc); err != nil {
			c.logger.Warn("Skipping undecodable token account",
				zap.String("pubkey", raw.Pubkey.String()), zap.Error(err))
			continue
		}
		accounts = append(accounts, TokenAccount{
			Pubkey: raw.Pubkey,
			Mint:   acc.Mint,
			Amount: acc.Amount,
		})
	}
	return accounts, nil
}

func (c *Client) GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64) (uint64, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	lamports, err := c.rpcPool.GetClient().GetMinimumBalanceForRentExemption(ctx, dataSize, rpc.CommitmentFinalized)
	if err != nil {
		return 0, fmt.Errorf("failed to get rent exemption for %d bytes: %w", dataSize, err)
	}
	return lamports, nil
}
