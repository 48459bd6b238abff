package wallet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKey(t *testing.T) solana.PrivateKey {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return key
}

func TestNew(t *testing.T) {
	key := newTestKey(t)

	w, err := New(key.String())
	require.NoError(t, err)

	assert.Equal(t, key.PublicKey(), w.PublicKey)
	assert.NotNil(t, w.ATACache)
}

func TestNewRejectsGarbage(t *testing.T) {
	_, err := New("not-a-base58-key")
	assert.Error(t, err)

	_, err = New("3mJr7") // valid base58, wrong length
	assert.Error(t, err)
}

func TestLoadListPreservesFileOrder(t *testing.T) {
	keys := []solana.PrivateKey{newTestKey(t), newTestKey(t), newTestKey(t)}

	path := filepath.Join(t.TempDir(), "wallets.txt")
	content := keys[0].String() + "\n" + keys[1].String() + "\n\n" + keys[2].String() + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	wallets, err := LoadList(path)
	require.NoError(t, err)
	require.Len(t, wallets, 3)

	for i, k := range keys {
		assert.Equal(t, k.PublicKey(), wallets[i].PublicKey, "wallet order must match file order")
	}
}

func TestLoadListRejectsMalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.txt")
	content := newTestKey(t).String() + "\ncorrupted-line\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := LoadList(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestLoadListEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.txt")
	require.NoError(t, os.WriteFile(path, []byte("\n\n"), 0o600))

	_, err := LoadList(path)
	assert.Error(t, err)
}

func TestSignTransaction(t *testing.T) {
	key := newTestKey(t)
	w, err := New(key.String())
	require.NoError(t, err)

	recipient := newTestKey(t).PublicKey()
	ix := solana.NewInstruction(
		solana.SystemProgramID,
		[]*solana.AccountMeta{
			{PublicKey: w.PublicKey, IsWritable: true, IsSigner: true},
			{PublicKey: recipient, IsWritable: true, IsSigner: false},
		},
		[]byte{2, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0},
	)

	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		solana.Hash{},
		solana.TransactionPayer(w.PublicKey),
	)
	require.NoError(t, err)

	require.NoError(t, w.SignTransaction(tx))
	assert.Len(t, tx.Signatures, 1)
}

func TestGetATACaches(t *testing.T) {
	w, err := New(newTestKey(t).String())
	require.NoError(t, err)

	mint := newTestKey(t).PublicKey()

	first, err := w.GetATA(mint)
	require.NoError(t, err)

	cached, ok := w.ATACache[mint.String()]
	require.True(t, ok)
	assert.Equal(t, first, cached)

	second, err := w.GetATA(mint)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
