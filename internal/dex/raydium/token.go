// internal/dex/raydium/token.go
package raydium

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-launcher/internal/types"
)

// CreateToken mints a new SPL token: creates the mint account, initializes it
// with the requested decimals, creates the deployer's associated token
// account and mints the full supply into it. Returns the mint address.
func (c *Client) CreateToken(ctx context.Context, info *types.TokenInfo) (solana.PublicKey, error) {
	if err := info.Validate(); err != nil {
		return solana.PublicKey{}, err
	}

	supply, err := info.BaseUnits()
	if err != nil {
		return solana.PublicKey{}, err
	}

	mintKey, err := solana.NewRandomPrivateKey()
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to generate mint keypair: %w", err)
	}
	mint := mintKey.PublicKey()

	rent, err := c.client.GetMinimumBalanceForRentExemption(ctx, MintAccountSize)
	if err != nil {
		return solana.PublicKey{}, err
	}

	ata, err := c.deployer.GetATA(mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive deployer ATA: %w", err)
	}

	instructions := []solana.Instruction{
		system.NewCreateAccountInstruction(
			rent,
			MintAccountSize,
			solana.TokenProgramID,
			c.deployer.PublicKey,
			mint,
		).Build(),
		token.NewInitializeMintInstruction(
			info.Decimals,
			c.deployer.PublicKey,
			c.deployer.PublicKey,
			mint,
			solana.SysVarRentPubkey,
		).Build(),
		associatedtokenaccount.NewCreateInstruction(
			c.deployer.PublicKey,
			c.deployer.PublicKey,
			mint,
		).Build(),
		token.NewMintToInstruction(
			supply,
			mint,
			ata,
			c.deployer.PublicKey,
			nil,
		).Build(),
	}

	c.logger.Info("Creating token",
		zap.String("mint", mint.String()),
		zap.String("symbol", info.Symbol),
		zap.String("name", info.TokenName),
		zap.Uint64("supply_base_units", supply),
		zap.Uint8("decimals", info.Decimals))

	sig, err := c.sendAndConfirm(ctx, instructions, []solana.PrivateKey{c.deployer.PrivateKey, mintKey})
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("token creation failed: %w", err)
	}

	c.logger.Info("Token created",
		zap.String("mint", mint.String()),
		zap.String("signature", sig.String()))
	return mint, nil
}
