package cmd

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	reservesolana "github.com/lugondev/go-reserve/internal/solana"
)

// publicKeyFlag parses a required base58 address flag.
func publicKeyFlag(cmd *cobra.Command, name string) (solana.PublicKey, error) {
	raw, err := cmd.Flags().GetString(name)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if raw == "" {
		return solana.PublicKey{}, fmt.Errorf("--%s is required", name)
	}
	key, err := solana.PublicKeyFromBase58(raw)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return key, nil
}

// signerFlag loads the keypair file named by a flag. Holding the file is what makes
// the key a signer of the operation.
func signerFlag(cmd *cobra.Command, name string) (*reservesolana.Wallet, error) {
	path, err := cmd.Flags().GetString(name)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, fmt.Errorf("--%s keypair file is required", name)
	}
	w, err := reservesolana.WalletFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load --%s: %w", name, err)
	}
	return w, nil
}
