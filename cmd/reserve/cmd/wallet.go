package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	reservesolana "github.com/lugondev/go-reserve/internal/solana"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Wallet management commands",
	Long:  `Commands for managing keypair files and checking cluster balances.`,
}

var walletNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Generate a new wallet",
	Long: `Generate a new Solana keypair. With --out the keypair is written in the
Solana CLI file format and can be passed to --payer, --wallet and --authority.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := reservesolana.NewWallet()
		out := cmd.OutOrStdout()

		path, _ := cmd.Flags().GetString("out")
		if path != "" {
			if err := w.SaveToFile(path); err != nil {
				return err
			}
			fmt.Fprintf(out, "Wallet %s saved to %s\n", w.PublicKey(), path)
			return nil
		}

		fmt.Fprintln(out, "New wallet generated!")
		fmt.Fprintf(out, "  Public Key:  %s\n", w.PublicKey())
		fmt.Fprintf(out, "  Private Key: %s\n", w.PrivateKey())
		fmt.Fprintln(out, "\nWARNING: Save your private key securely. Never share it with anyone!")
		return nil
	},
}

var walletImportCmd = &cobra.Command{
	Use:   "import [base58-private-key]",
	Short: "Write a base58 private key to a keypair file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := reservesolana.WalletFromBase58(args[0])
		if err != nil {
			return err
		}
		path, _ := cmd.Flags().GetString("out")
		if path == "" {
			return fmt.Errorf("--out is required")
		}
		if err := w.SaveToFile(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wallet %s saved to %s\n", w.PublicKey(), path)
		return nil
	},
}

var walletShowCmd = &cobra.Command{
	Use:   "show [keypair-file]",
	Short: "Print the public key of a keypair file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := reservesolana.WalletFromFile(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), w.PublicKey())
		return nil
	},
}

var walletBalanceCmd = &cobra.Command{
	Use:   "balance [address]",
	Short: "Check a wallet balance on the cluster",
	Long:  `Check the SOL balance of a wallet address over RPC.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pubKey, err := solana.PublicKeyFromBase58(args[0])
		if err != nil {
			return fmt.Errorf("invalid address: %w", err)
		}
		client, ctx, cancel, err := openRPC(cmd)
		if err != nil {
			return err
		}
		defer cancel()

		lamports, err := client.GetBalance(ctx, pubKey)
		if err != nil {
			return err
		}
		out := map[string]interface{}{"address": pubKey.String(), "lamports": lamports}
		return render(cmd, out, func(w io.Writer) {
			fmt.Fprintf(w, "Address: %s\n", pubKey)
			fmt.Fprintf(w, "Balance: %d lamports (%.9f SOL)\n", lamports, float64(lamports)/float64(solana.LAMPORTS_PER_SOL))
		})
	},
}

// openRPC builds a cluster client from the configured endpoint, bounded by solana.timeout.
func openRPC(cmd *cobra.Command) (*reservesolana.Client, context.Context, context.CancelFunc, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := newLogger(cfg)
	client := reservesolana.NewClient(reservesolana.DefaultConfig(cfg.Solana.GetRPCEndpoint())).WithLogger(logger)

	if cfg.Solana.Timeout <= 0 {
		ctx, cancel := context.WithCancel(cmd.Context())
		return client, ctx, cancel, nil
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(cfg.Solana.Timeout)*time.Second)
	return client, ctx, cancel, nil
}

func init() {
	rootCmd.AddCommand(walletCmd)
	walletCmd.AddCommand(walletNewCmd, walletImportCmd, walletShowCmd, walletBalanceCmd)

	walletNewCmd.Flags().String("out", "", "write the keypair to this file")
	walletImportCmd.Flags().String("out", "", "keypair file to write")
	addOutputFlag(walletBalanceCmd)
}
