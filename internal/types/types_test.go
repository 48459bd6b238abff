package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenInfoValidate(t *testing.T) {
	tests := []struct {
		name    string
		info    TokenInfo
		wantErr bool
	}{
		{
			name: "defaults",
			info: TokenInfo{Amount: 10000, Decimals: 9, Symbol: "TMT", TokenName: "Test Mock Token"},
		},
		{
			name:    "zero decimals",
			info:    TokenInfo{Amount: 10000, Decimals: 0},
			wantErr: true,
		},
		{
			name:    "decimals above nine",
			info:    TokenInfo{Amount: 10000, Decimals: 10},
			wantErr: true,
		},
		{
			name:    "supply overflows u64",
			info:    TokenInfo{Amount: 18_446_744_074, Decimals: 9},
			wantErr: true,
		},
		{
			name: "supply at the edge",
			info: TokenInfo{Amount: 18_446_744_073, Decimals: 9},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.info.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTickSizeFor(t *testing.T) {
	// every allowed lot size maps to exactly one tick size
	expected := map[float64]float64{
		0.001: 0.001,
		0.01:  0.0001,
		0.1:   0.00001,
		1:     0.000001,
		10:    0.0000001,
		100:   0.00000001,
		1000:  0.000000001,
		10000: 0.0000000001,
	}

	for lot, wantTick := range expected {
		tick, ok := TickSizeFor(lot)
		require.True(t, ok, "lot size %v must be allowed", lot)
		assert.Equal(t, wantTick, tick)
	}

	_, ok := TickSizeFor(5)
	assert.False(t, ok)
	_, ok = TickSizeFor(0)
	assert.False(t, ok)
}

func TestAllowedLotSizesMatchesMap(t *testing.T) {
	sizes := AllowedLotSizes()
	require.Len(t, sizes, 8)
	for _, lot := range sizes {
		_, ok := TickSizeFor(lot)
		assert.True(t, ok)
	}
}

func TestWSOL(t *testing.T) {
	q := WSOL()
	assert.Equal(t, "So11111111111111111111111111111111111111112", q.Mint.String())
	assert.Equal(t, uint8(9), q.Decimals)
}
