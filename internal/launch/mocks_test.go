// internal/launch/mocks_test.go
package launch

import (
	"context"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	solanabc "github.com/rovshanmuradov/solana-launcher/internal/blockchain/solana"
	"github.com/rovshanmuradov/solana-launcher/internal/logger"
	"github.com/rovshanmuradov/solana-launcher/internal/types"
	"github.com/rovshanmuradov/solana-launcher/internal/wallet"
)

// MockChainClient implements solanabc.ClientInterface for pipeline tests.
type MockChainClient struct {
	mock.Mock
}

func (m *MockChainClient) GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockChainClient) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	args := m.Called(ctx)
	return args.Get(0).(solana.Hash), args.Error(1)
}

func (m *MockChainClient) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).(solana.Signature), args.Error(1)
}

func (m *MockChainClient) GetSignatureStatuses(ctx context.Context, sig solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	args := m.Called(ctx, sig)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rpc.GetSignatureStatusesResult), args.Error(1)
}

func (m *MockChainClient) GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rpc.GetAccountInfoResult), args.Error(1)
}

func (m *MockChainClient) GetMultipleAccounts(ctx context.Context, accounts ...solana.PublicKey) (*rpc.GetMultipleAccountsResult, error) {
	args := m.Called(ctx, accounts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rpc.GetMultipleAccountsResult), args.Error(1)
}

func (m *MockChainClient) GetWalletTokenAccounts(ctx context.Context, owner solana.PublicKey) ([]solanabc.TokenAccount, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]solanabc.TokenAccount), args.Error(1)
}

func (m *MockChainClient) GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64) (uint64, error) {
	args := m.Called(ctx, dataSize)
	return args.Get(0).(uint64), args.Error(1)
}

// MockDEX implements the DEX collaborator and records the order swap wallets
// arrive in.
type MockDEX struct {
	mock.Mock

	mu        sync.Mutex
	swapOrder []string // wallet secrets in submission order
}

func (m *MockDEX) CreateToken(ctx context.Context, info *types.TokenInfo) (solana.PublicKey, error) {
	args := m.Called(ctx, info)
	return args.Get(0).(solana.PublicKey), args.Error(1)
}

func (m *MockDEX) CreateMarket(ctx context.Context, params *types.MarketParams) (*types.MarketInfo, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.MarketInfo), args.Error(1)
}

func (m *MockDEX) CreatePool(ctx context.Context, seed *types.PoolSeed) (*types.PoolInfo, error) {
	args := m.Called(ctx, seed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.PoolInfo), args.Error(1)
}

func (m *MockDEX) ExecuteSwap(ctx context.Context, req *types.SwapRequest) ([]solana.Signature, error) {
	m.mu.Lock()
	m.swapOrder = append(m.swapOrder, req.WalletSecret)
	m.mu.Unlock()

	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]solana.Signature), args.Error(1)
}

func (m *MockDEX) SwapOrder() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.swapOrder...)
}

func testWallet(t *testing.T) *wallet.Wallet {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	w, err := wallet.New(key.String())
	require.NoError(t, err)
	return w
}

func testStore(t *testing.T) *CheckpointStore {
	t.Helper()
	store, err := NewCheckpointStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func validInputs() Inputs {
	return Inputs{
		Supply:         10000,
		Decimals:       9,
		Symbol:         "TMT",
		TokenName:      "Test Mock Token",
		LotSize:        1,
		PoolBaseAmount: 2000,
		PoolQuoteSOL:   1,
		SwapPercent:    20,
	}
}

func newTestPipeline(t *testing.T, mc *MockChainClient, dex *MockDEX, concurrency int) (*Pipeline, *wallet.Wallet, *CheckpointStore) {
	t.Helper()
	deployer := testWallet(t)
	store := testStore(t)
	p := NewPipeline(mc, dex, deployer, store, Options{SwapConcurrency: concurrency}, logger.Nop())
	p.visibilityPollOpts.Interval = 1 // no real sleeps in tests
	p.visibilityPollOpts.MaxAttempts = 5
	return p, deployer, store
}
