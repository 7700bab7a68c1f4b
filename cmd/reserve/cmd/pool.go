package cmd

import (
	"fmt"
	"io"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/lugondev/go-reserve/internal/pool"
)

var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "Pool commands",
	Long:  `Create pools, add and remove liquidity, and inspect pool balances on the local ledger.`,
}

var poolInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the pool for a base mint",
	RunE: func(cmd *cobra.Command, args []string) error {
		baseMint, err := publicKeyFlag(cmd, "base-mint")
		if err != nil {
			return err
		}
		payer, err := signerFlag(cmd, "payer")
		if err != nil {
			return err
		}

		return withEnv(cmd, func(e *env) error {
			ev, err := e.program.Initialize(cmd.Context(), pool.InitializeParams{
				BaseMint: baseMint,
				Payer:    payer.PublicKey(),
			})
			if err != nil {
				return err
			}
			return renderEvent(cmd, ev)
		})
	},
}

var poolAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Deposit lamports and base tokens for shares",
	Long: `Deposit --native lamports and --base base units into the pool.
The wallet receives one share per lamport deposited.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		baseMint, user, userBase, userShare, err := liquidityFlags(cmd)
		if err != nil {
			return err
		}
		native, _ := cmd.Flags().GetUint64("native")
		base, _ := cmd.Flags().GetUint64("base")

		return withEnv(cmd, func(e *env) error {
			ev, err := e.program.AddLiquidity(cmd.Context(), pool.AddLiquidityParams{
				BaseMint:         baseMint,
				User:             user,
				UserBaseAccount:  userBase,
				UserShareAccount: userShare,
				NativeAmount:     native,
				BaseAmount:       base,
			})
			if err != nil {
				return err
			}
			return renderEvent(cmd, ev)
		})
	},
}

var poolRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Redeem shares for lamports and base tokens",
	Long: `Burn --shares shares. The wallet receives one lamport per share
and rate base units per share.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		baseMint, user, userBase, userShare, err := liquidityFlags(cmd)
		if err != nil {
			return err
		}
		shares, _ := cmd.Flags().GetUint64("shares")

		return withEnv(cmd, func(e *env) error {
			ev, err := e.program.RemoveLiquidity(cmd.Context(), pool.RemoveLiquidityParams{
				BaseMint:         baseMint,
				User:             user,
				UserBaseAccount:  userBase,
				UserShareAccount: userShare,
				ShareAmount:      shares,
			})
			if err != nil {
				return err
			}
			return renderEvent(cmd, ev)
		})
	},
}

var poolShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the accounts and balances of a pool",
	RunE: func(cmd *cobra.Command, args []string) error {
		baseMint, err := publicKeyFlag(cmd, "base-mint")
		if err != nil {
			return err
		}

		return withEnv(cmd, func(e *env) error {
			snap, err := e.program.Pool(cmd.Context(), baseMint)
			if err != nil {
				return err
			}
			return render(cmd, snap, func(w io.Writer) { printSnapshot(w, snap) })
		})
	},
}

func liquidityFlags(cmd *cobra.Command) (baseMint, user, userBase, userShare solana.PublicKey, err error) {
	if baseMint, err = publicKeyFlag(cmd, "base-mint"); err != nil {
		return
	}
	wallet, err := signerFlag(cmd, "wallet")
	if err != nil {
		return
	}
	user = wallet.PublicKey()
	if userBase, err = publicKeyFlag(cmd, "base-account"); err != nil {
		return
	}
	userShare, err = publicKeyFlag(cmd, "share-account")
	return
}

// withEnv opens the environment for the duration of fn.
func withEnv(cmd *cobra.Command, fn func(e *env) error) (err error) {
	e, err := openEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := e.Close(cmd.Context()); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(e)
}

type eventOutput struct {
	ID           string         `json:"id" yaml:"id"`
	Event        string         `json:"event" yaml:"event"`
	Slot         uint64         `json:"slot" yaml:"slot"`
	Pool         string         `json:"pool" yaml:"pool"`
	User         string         `json:"user" yaml:"user"`
	NativeAmount uint64         `json:"native_amount" yaml:"native_amount"`
	BaseAmount   uint64         `json:"base_amount" yaml:"base_amount"`
	ShareAmount  uint64         `json:"share_amount" yaml:"share_amount"`
	Snapshot     *pool.Snapshot `json:"snapshot" yaml:"snapshot"`
}

func renderEvent(cmd *cobra.Command, ev *pool.Event) error {
	out := eventOutput{
		ID:           ev.ID.String(),
		Event:        ev.Name,
		Slot:         ev.Slot,
		Pool:         ev.Pool.String(),
		User:         ev.User.String(),
		NativeAmount: ev.NativeAmount,
		BaseAmount:   ev.BaseAmount,
		ShareAmount:  ev.ShareAmount,
		Snapshot:     ev.Snapshot,
	}
	return render(cmd, out, func(w io.Writer) {
		fmt.Fprintf(w, "%s committed at slot %d\n", ev.Name, ev.Slot)
		fmt.Fprintf(w, "  Native: %d  Base: %d  Shares: %d\n", ev.NativeAmount, ev.BaseAmount, ev.ShareAmount)
		printSnapshot(w, ev.Snapshot)
	})
}

func printSnapshot(w io.Writer, snap *pool.Snapshot) {
	if snap == nil {
		return
	}
	a := snap.Accounts
	fmt.Fprintf(w, "Pool %s (base mint %s)\n", a.PoolState.Key, a.BaseMint)
	fmt.Fprintf(w, "  Initialized:  %t\n", snap.Initialized)
	fmt.Fprintf(w, "  Rate:         %d\n", snap.Rate)
	fmt.Fprintf(w, "  Authority:    %s\n", a.Authority.Key)
	fmt.Fprintf(w, "  Base vault:   %s  %d\n", a.BaseVault.Key, snap.BaseVaultAmount)
	fmt.Fprintf(w, "  Quote vault:  %s  %d lamports\n", a.QuoteVault.Key, snap.QuoteVaultLamports)
	fmt.Fprintf(w, "  Share mint:   %s  supply %d\n", a.ShareMint.Key, snap.ShareSupply)
	fmt.Fprintf(w, "  Slot:         %d\n", snap.Slot)
}

func init() {
	rootCmd.AddCommand(poolCmd)
	poolCmd.AddCommand(poolInitCmd, poolAddCmd, poolRemoveCmd, poolShowCmd)

	for _, c := range []*cobra.Command{poolInitCmd, poolAddCmd, poolRemoveCmd, poolShowCmd} {
		c.Flags().String("base-mint", "", "base token mint address")
		addOutputFlag(c)
	}
	poolInitCmd.Flags().String("payer", "", "payer keypair file")

	for _, c := range []*cobra.Command{poolAddCmd, poolRemoveCmd} {
		c.Flags().String("wallet", "", "liquidity provider keypair file")
		c.Flags().String("base-account", "", "provider's base token account")
		c.Flags().String("share-account", "", "provider's share token account")
	}
	poolAddCmd.Flags().Uint64("native", 0, "lamports to deposit")
	poolAddCmd.Flags().Uint64("base", 0, "base units to deposit")
	poolRemoveCmd.Flags().Uint64("shares", 0, "shares to redeem")
}
