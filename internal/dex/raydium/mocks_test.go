// internal/dex/raydium/mocks_test.go
package raydium

import (
	"bytes"
	"context"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	solanabc "github.com/rovshanmuradov/solana-launcher/internal/blockchain/solana"
	"github.com/rovshanmuradov/solana-launcher/internal/poll"
	"github.com/rovshanmuradov/solana-launcher/internal/wallet"
)

// MockChainClient implements solanabc.ClientInterface.
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

func newTestClient(t *testing.T, mc *MockChainClient) *Client {
	t.Helper()
	c := NewClient(mc, testWallet(t), zap.NewNop())
	// Tests never sleep through real poll intervals.
	c.keysPollOpts = poll.Options{Interval: 1, MaxAttempts: 3}
	c.statePollOpts = poll.Options{Interval: 1, MaxAttempts: 3}
	return c
}

func testWallet(t *testing.T) *wallet.Wallet {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	w, err := wallet.New(key.String())
	require.NoError(t, err)
	return w
}

// accountInfoWith wraps raw account data the way the RPC layer returns it.
func accountInfoWith(t *testing.T, data []byte) *rpc.GetAccountInfoResult {
	t.Helper()
	return &rpc.GetAccountInfoResult{
		RPCContext: rpc.RPCContext{},
		Value: &rpc.Account{
			Data: rpc.DataBytesOrJSONFromBytes(data),
		},
	}
}

func encodeAccount(t *testing.T, v interface{}) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, bin.NewBinEncoder(&buf).Encode(v))
	return buf.Bytes()
}
