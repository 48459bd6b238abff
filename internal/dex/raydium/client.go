// internal/dex/raydium/client.go
package raydium

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	solanabc "github.com/rovshanmuradov/solana-launcher/internal/blockchain/solana"
	"github.com/rovshanmuradov/solana-launcher/internal/poll"
	"github.com/rovshanmuradov/solana-launcher/internal/wallet"
)

// Client performs launch operations against Raydium and OpenBook on behalf
// of the deployer wallet.
type Client struct {
	client   solanabc.ClientInterface
	deployer *wallet.Wallet
	logger   *zap.Logger

	keysPollOpts  poll.Options // pool key resolution after pool creation
	statePollOpts poll.Options // live reserve state fetch
}

// NewClient creates a Raydium client. The deployer pays for all created
// accounts and signs every creation transaction.
func NewClient(client solanabc.ClientInterface, deployer *wallet.Wallet, logger *zap.Logger) *Client {
	return &Client{
		client:   client,
		deployer: deployer,
		logger:   logger.Named("raydium"),
		keysPollOpts: poll.Options{
			Interval:    time.Second,
			MaxAttempts: poll.DefaultMaxAttempts,
		},
		statePollOpts: poll.Options{
			Interval:    3 * time.Second,
			MaxAttempts: poll.DefaultMaxAttempts,
		},
	}
}

// signAndSend assembles a transaction from instructions, signs it with the
// provided keys and broadcasts it without preflight simulation.
func (c *Client) signAndSend(ctx context.Context, instructions []solana.Instruction, payer solana.PublicKey, signers []solana.PrivateKey) (solana.Signature, error) {
	recentBlockHash, err := c.client.GetLatestBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		instructions,
		recentBlockHash,
		solana.TransactionPayer(payer),
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to create transaction: %w", err)
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for i := range signers {
			if key.Equals(signers[i].PublicKey()) {
				return &signers[i]
			}
		}
		return nil
	}); err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := c.client.SendTransaction(ctx, tx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	return sig, nil
}

// WaitForConfirmation blocks until the signature is confirmed or the attempt
// budget runs out.
func (c *Client) WaitForConfirmation(ctx context.Context, sig solana.Signature) error {
	const (
		maxAttempts   = 30
		checkInterval = 500 * time.Millisecond
	)

	for i := 0; i < maxAttempts; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(checkInterval):
			status, err := c.client.GetSignatureStatuses(ctx, sig)
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}

			if status == nil || len(status.Value) == 0 || status.Value[0] == nil {
				continue
			}

			if status.Value[0].Err != nil {
				return fmt.Errorf("transaction failed: %v", status.Value[0].Err)
			}

			if status.Value[0].ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
				status.Value[0].ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return nil
			}
		}
	}

	return fmt.Errorf("confirmation timeout after %d attempts", maxAttempts)
}

// sendAndConfirm is the common creation-transaction path: broadcast, then
// wait so the next stage sees the created accounts.
func (c *Client) sendAndConfirm(ctx context.Context, instructions []solana.Instruction, signers []solana.PrivateKey) (solana.Signature, error) {
	sig, err := c.signAndSend(ctx, instructions, c.deployer.PublicKey, signers)
	if err != nil {
		return solana.Signature{}, err
	}
	if err := c.WaitForConfirmation(ctx, sig); err != nil {
		return sig, err
	}
	return sig, nil
}
