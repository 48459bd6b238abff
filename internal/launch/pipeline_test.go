// internal/launch/pipeline_test.go
package launch

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	solanabc "github.com/rovshanmuradov/solana-launcher/internal/blockchain/solana"
	"github.com/rovshanmuradov/solana-launcher/internal/types"
	"github.com/rovshanmuradov/solana-launcher/internal/wallet"
)

func stubLaunchCalls(mc *MockChainClient, dex *MockDEX, deployer *wallet.Wallet, mint solana.PublicKey) (marketID, poolID solana.PublicKey) {
	marketID = solana.NewWallet().PublicKey()
	poolID = solana.NewWallet().PublicKey()

	// 6 SOL covers the 4 SOL floor plus twice the 1 SOL quote amount.
	mc.On("GetBalance", mock.Anything, deployer.PublicKey).
		Return(uint64(6*types.LamportsPerSOL), nil)
	dex.On("CreateToken", mock.Anything, mock.Anything).Return(mint, nil)
	dex.On("CreateMarket", mock.Anything, mock.Anything).
		Return(&types.MarketInfo{MarketID: marketID}, nil)
	mc.On("GetWalletTokenAccounts", mock.Anything, deployer.PublicKey).
		Return([]solanabc.TokenAccount{{Mint: mint, Amount: 1}}, nil)
	dex.On("CreatePool", mock.Anything, mock.Anything).
		Return(&types.PoolInfo{PoolID: poolID}, nil)
	return marketID, poolID
}

func TestPipeline_FullRun(t *testing.T) {
	mc := new(MockChainClient)
	dex := new(MockDEX)
	p, deployer, store := newTestPipeline(t, mc, dex, 1)

	mint := solana.NewWallet().PublicKey()
	marketID, poolID := stubLaunchCalls(mc, dex, deployer, mint)
	dex.On("ExecuteSwap", mock.Anything, mock.Anything).
		Return([]solana.Signature{{1}}, nil)

	cp := NewCheckpoint("devnet", validInputs())
	wallets := []*wallet.Wallet{testWallet(t), testWallet(t)}

	require.NoError(t, p.Run(context.Background(), cp, wallets))

	// Pool creation must be gated on the minted token's visibility.
	dex.AssertCalled(t, "CreatePool", mock.Anything, mock.MatchedBy(func(seed *types.PoolSeed) bool {
		return seed.BaseToken.Mint.Equals(mint) &&
			seed.TargetMarketID.Equals(marketID) &&
			seed.AddBaseAmount == 2_000_000_000_000 && // 2000 tokens at 9 decimals
			seed.AddQuoteAmount == 1*types.LamportsPerSOL &&
			len(seed.WalletTokenAccounts) == 1
	}))

	// Swap output is 20% of the 2000-token pool seed: 400 tokens in base units.
	dex.AssertCalled(t, "ExecuteSwap", mock.Anything, mock.MatchedBy(func(req *types.SwapRequest) bool {
		return req.OutputAmount == 400_000_000_000 &&
			req.TargetPool.Equals(poolID) &&
			req.OutputToken.Mint.Equals(mint)
	}))
	// Deployer plus both wallets swapped.
	assert.Len(t, dex.SwapOrder(), 3)

	// The finished run is fully checkpointed.
	saved, err := store.Load(cp.RunID)
	require.NoError(t, err)
	assert.Equal(t, mint.String(), saved.Mint)
	assert.Equal(t, marketID.String(), saved.MarketID)
	assert.Equal(t, poolID.String(), saved.PoolID)
	assert.True(t, saved.SwapsDone)
}

func TestPipeline_InsufficientBalanceAborts(t *testing.T) {
	mc := new(MockChainClient)
	dex := new(MockDEX)
	p, deployer, _ := newTestPipeline(t, mc, dex, 1)

	// 3 SOL < 4 + 2×1 required.
	mc.On("GetBalance", mock.Anything, deployer.PublicKey).
		Return(uint64(3*types.LamportsPerSOL), nil)

	err := p.Run(context.Background(), NewCheckpoint("devnet", validInputs()), nil)
	require.ErrorIs(t, err, ErrInsufficientBalance)
	dex.AssertNotCalled(t, "CreateToken", mock.Anything, mock.Anything)
}

func TestPipeline_InvalidInputsAbortBeforeAnyCall(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Inputs)
	}{
		{"disallowed lot size", func(in *Inputs) { in.LotSize = 3 }},
		{"pool amount exceeds supply", func(in *Inputs) { in.PoolBaseAmount = in.Supply + 1 }},
		{"decimals out of range", func(in *Inputs) { in.Decimals = 0 }},
		{"quote amount wraps lamport math", func(in *Inputs) { in.PoolQuoteSOL = 10_000_000_000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mc := new(MockChainClient)
			dex := new(MockDEX)
			p, _, _ := newTestPipeline(t, mc, dex, 1)

			inputs := validInputs()
			tt.mutate(&inputs)

			err := p.Run(context.Background(), NewCheckpoint("devnet", inputs), nil)
			require.Error(t, err)
			mc.AssertNotCalled(t, "GetBalance", mock.Anything, mock.Anything)
			dex.AssertNotCalled(t, "CreateToken", mock.Anything, mock.Anything)
		})
	}
}

func TestPipeline_VisibilityGateRetries(t *testing.T) {
	mc := new(MockChainClient)
	dex := new(MockDEX)
	p, deployer, _ := newTestPipeline(t, mc, dex, 1)

	mint := solana.NewWallet().PublicKey()
	mc.On("GetBalance", mock.Anything, deployer.PublicKey).
		Return(uint64(6*types.LamportsPerSOL), nil)
	dex.On("CreateToken", mock.Anything, mock.Anything).Return(mint, nil)
	dex.On("CreateMarket", mock.Anything, mock.Anything).
		Return(&types.MarketInfo{MarketID: solana.NewWallet().PublicKey()}, nil)

	// The mint only shows up on the third snapshot.
	mc.On("GetWalletTokenAccounts", mock.Anything, deployer.PublicKey).
		Return([]solanabc.TokenAccount{}, nil).Twice()
	mc.On("GetWalletTokenAccounts", mock.Anything, deployer.PublicKey).
		Return([]solanabc.TokenAccount{{Mint: mint, Amount: 1}}, nil)

	dex.On("CreatePool", mock.Anything, mock.Anything).
		Return(&types.PoolInfo{PoolID: solana.NewWallet().PublicKey()}, nil)
	dex.On("ExecuteSwap", mock.Anything, mock.Anything).
		Return([]solana.Signature{{1}}, nil)

	require.NoError(t, p.Run(context.Background(), NewCheckpoint("devnet", validInputs()), nil))
	mc.AssertNumberOfCalls(t, "GetWalletTokenAccounts", 3)
}

func TestPipeline_ResumeSkipsCompletedStages(t *testing.T) {
	mc := new(MockChainClient)
	dex := new(MockDEX)
	p, deployer, store := newTestPipeline(t, mc, dex, 1)

	mint := solana.NewWallet().PublicKey()
	marketID := solana.NewWallet().PublicKey()

	cp := NewCheckpoint("devnet", validInputs())
	cp.Mint = mint.String()
	cp.MarketID = marketID.String()
	require.NoError(t, store.Save(cp))

	mc.On("GetBalance", mock.Anything, deployer.PublicKey).
		Return(uint64(6*types.LamportsPerSOL), nil)
	mc.On("GetWalletTokenAccounts", mock.Anything, deployer.PublicKey).
		Return([]solanabc.TokenAccount{{Mint: mint, Amount: 1}}, nil)
	dex.On("CreatePool", mock.Anything, mock.Anything).
		Return(&types.PoolInfo{PoolID: solana.NewWallet().PublicKey()}, nil)
	dex.On("ExecuteSwap", mock.Anything, mock.Anything).
		Return([]solana.Signature{{1}}, nil)

	require.NoError(t, p.Run(context.Background(), cp, nil))

	dex.AssertNotCalled(t, "CreateToken", mock.Anything, mock.Anything)
	dex.AssertNotCalled(t, "CreateMarket", mock.Anything, mock.Anything)
	dex.AssertCalled(t, "CreatePool", mock.Anything, mock.MatchedBy(func(seed *types.PoolSeed) bool {
		return seed.TargetMarketID.Equals(marketID)
	}))
}

func TestPipeline_SwapFailuresAreAggregated(t *testing.T) {
	mc := new(MockChainClient)
	dex := new(MockDEX)
	p, deployer, _ := newTestPipeline(t, mc, dex, 1)

	mint := solana.NewWallet().PublicKey()
	stubLaunchCalls(mc, dex, deployer, mint)

	failing := testWallet(t)
	dex.On("ExecuteSwap", mock.Anything, mock.MatchedBy(func(req *types.SwapRequest) bool {
		return req.WalletSecret == failing.PrivateKey.String()
	})).Return(nil, errors.New("blockhash expired"))
	dex.On("ExecuteSwap", mock.Anything, mock.Anything).
		Return([]solana.Signature{{1}}, nil)

	wallets := []*wallet.Wallet{testWallet(t), failing, testWallet(t)}
	err := p.Run(context.Background(), NewCheckpoint("devnet", validInputs()), wallets)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 4 swaps failed")
	// The failing wallet did not stop the others.
	assert.Len(t, dex.SwapOrder(), 4)
}

// With concurrency 1 the fan-out preserves file order, deployer first.
func TestPipeline_SequentialFanOutOrder(t *testing.T) {
	mc := new(MockChainClient)
	dex := new(MockDEX)
	p, deployer, _ := newTestPipeline(t, mc, dex, 1)

	mint := solana.NewWallet().PublicKey()
	stubLaunchCalls(mc, dex, deployer, mint)
	dex.On("ExecuteSwap", mock.Anything, mock.Anything).
		Return([]solana.Signature{{1}}, nil)

	wallets := []*wallet.Wallet{testWallet(t), testWallet(t), testWallet(t)}
	require.NoError(t, p.Run(context.Background(), NewCheckpoint("devnet", validInputs()), wallets))

	want := []string{deployer.PrivateKey.String()}
	for _, w := range wallets {
		want = append(want, w.PrivateKey.String())
	}
	assert.Equal(t, want, dex.SwapOrder())
}
