package cmd

import (
	"fmt"
	"io"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/lugondev/go-reserve/internal/ledger"
	"github.com/lugondev/go-reserve/internal/token"
	"github.com/lugondev/go-reserve/pkg/view"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Local token commands",
	Long:  `Create mints and token accounts on the local ledger and mint tokens into them.`,
}

var tokenCreateMintCmd = &cobra.Command{
	Use:   "create-mint",
	Short: "Create a mint",
	RunE: func(cmd *cobra.Command, args []string) error {
		authority, err := signerFlag(cmd, "authority")
		if err != nil {
			return err
		}
		decimals, _ := cmd.Flags().GetUint8("decimals")
		mint := solana.NewWallet().PublicKey()

		return withEnv(cmd, func(e *env) error {
			inv := ledger.Invocation{
				Signers:  []solana.PublicKey{authority.PublicKey()},
				Writable: []solana.PublicKey{mint},
			}
			receipt, err := e.ledger.Execute(cmd.Context(), inv, func(tx *ledger.Tx) error {
				return token.NewProgram().InitializeMint(tx, mint, decimals, authority.PublicKey())
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Mint %s created at slot %d\n", mint, receipt.Slot)
			return nil
		})
	},
}

var tokenCreateAccountCmd = &cobra.Command{
	Use:   "create-account",
	Short: "Create a token account for an owner",
	RunE: func(cmd *cobra.Command, args []string) error {
		mint, err := publicKeyFlag(cmd, "mint")
		if err != nil {
			return err
		}
		owner, err := publicKeyFlag(cmd, "owner")
		if err != nil {
			return err
		}
		account := solana.NewWallet().PublicKey()

		return withEnv(cmd, func(e *env) error {
			inv := ledger.Invocation{Writable: []solana.PublicKey{account}}
			receipt, err := e.ledger.Execute(cmd.Context(), inv, func(tx *ledger.Tx) error {
				return token.NewProgram().InitializeAccount(tx, account, mint, owner)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token account %s created at slot %d\n", account, receipt.Slot)
			return nil
		})
	},
}

var tokenMintToCmd = &cobra.Command{
	Use:   "mint-to",
	Short: "Mint tokens into a token account",
	RunE: func(cmd *cobra.Command, args []string) error {
		mint, err := publicKeyFlag(cmd, "mint")
		if err != nil {
			return err
		}
		to, err := publicKeyFlag(cmd, "to")
		if err != nil {
			return err
		}
		authority, err := signerFlag(cmd, "authority")
		if err != nil {
			return err
		}
		amount, _ := cmd.Flags().GetUint64("amount")

		return withEnv(cmd, func(e *env) error {
			inv := ledger.Invocation{
				Signers:  []solana.PublicKey{authority.PublicKey()},
				Writable: []solana.PublicKey{mint, to},
			}
			receipt, err := e.ledger.Execute(cmd.Context(), inv, func(tx *ledger.Tx) error {
				return token.NewProgram().MintTo(tx, mint, to, authority.PublicKey(), amount)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Minted %d to %s at slot %d\n", amount, to, receipt.Slot)
			return nil
		})
	},
}

type balanceOutput struct {
	Address  string `json:"address" yaml:"address"`
	Owner    string `json:"owner" yaml:"owner"`
	Lamports uint64 `json:"lamports" yaml:"lamports"`
	Kind     string `json:"kind" yaml:"kind"`
	Mint     string `json:"mint,omitempty" yaml:"mint,omitempty"`
	Amount   uint64 `json:"amount,omitempty" yaml:"amount,omitempty"`
	Supply   uint64 `json:"supply,omitempty" yaml:"supply,omitempty"`
	Decimals uint8  `json:"decimals,omitempty" yaml:"decimals,omitempty"`
}

var tokenBalanceCmd = &cobra.Command{
	Use:   "balance [address]",
	Short: "Show the balance of a wallet, mint or token account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := solana.PublicKeyFromBase58(args[0])
		if err != nil {
			return fmt.Errorf("invalid address: %w", err)
		}

		return withEnv(cmd, func(e *env) error {
			acct, err := e.ledger.Account(cmd.Context(), key)
			if err != nil {
				return err
			}
			out := describeAccount(key, acct)
			return render(cmd, out, func(w io.Writer) {
				fmt.Fprintf(w, "Address:  %s (%s)\n", out.Address, out.Kind)
				fmt.Fprintf(w, "Lamports: %d\n", out.Lamports)
				switch out.Kind {
				case "token-account":
					fmt.Fprintf(w, "Mint:     %s\n", out.Mint)
					fmt.Fprintf(w, "Amount:   %d\n", out.Amount)
				case "mint":
					fmt.Fprintf(w, "Supply:   %d (decimals %d)\n", out.Supply, out.Decimals)
				}
			})
		})
	},
}

func describeAccount(key solana.PublicKey, acct *ledger.Account) balanceOutput {
	out := balanceOutput{
		Address:  key.String(),
		Owner:    acct.Owner.String(),
		Lamports: acct.Lamports,
		Kind:     "account",
	}
	if acct.IsSystemOwned() {
		out.Kind = "wallet"
		return out
	}
	if !acct.Owner.Equals(solana.TokenProgramID) {
		return out
	}
	switch len(acct.Data) {
	case view.TokenAccountSize:
		if v, err := view.NewTokenAccountView(acct.Data); err == nil {
			out.Kind = "token-account"
			out.Mint = v.Mint().String()
			out.Amount = v.Amount()
		}
	case view.MintSize:
		if v, err := view.NewMintView(acct.Data); err == nil && v.IsInitialized() {
			out.Kind = "mint"
			out.Supply = v.Supply()
			out.Decimals = v.Decimals()
		}
	}
	return out
}

var airdropCmd = &cobra.Command{
	Use:   "airdrop [address]",
	Short: "Credit lamports to a wallet on the local ledger",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := solana.PublicKeyFromBase58(args[0])
		if err != nil {
			return fmt.Errorf("invalid address: %w", err)
		}
		lamports, _ := cmd.Flags().GetUint64("lamports")

		return withEnv(cmd, func(e *env) error {
			receipt, err := e.ledger.Airdrop(cmd.Context(), key, lamports)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Airdropped %d lamports to %s at slot %d\n", lamports, key, receipt.Slot)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd, airdropCmd)
	tokenCmd.AddCommand(tokenCreateMintCmd, tokenCreateAccountCmd, tokenMintToCmd, tokenBalanceCmd)

	tokenCreateMintCmd.Flags().String("authority", "", "mint authority keypair file")
	tokenCreateMintCmd.Flags().Uint8("decimals", 6, "mint decimals")

	tokenCreateAccountCmd.Flags().String("mint", "", "mint of the new account")
	tokenCreateAccountCmd.Flags().String("owner", "", "owner of the new account")

	tokenMintToCmd.Flags().String("mint", "", "mint address")
	tokenMintToCmd.Flags().String("to", "", "destination token account")
	tokenMintToCmd.Flags().String("authority", "", "mint authority keypair file")
	tokenMintToCmd.Flags().Uint64("amount", 0, "amount in base units")

	addOutputFlag(tokenBalanceCmd)
	airdropCmd.Flags().Uint64("lamports", 1_000_000_000, "lamports to credit")
}
