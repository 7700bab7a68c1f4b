package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lugondev/go-reserve/internal/derive"
	"github.com/lugondev/go-reserve/internal/pool"
)

var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Print the derived accounts of a pool",
	Long: `Derive the pool state, authority, vault and share mint addresses of the pool
anchored on --base-mint under the configured program id. Nothing is read from the ledger.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		baseMint, err := publicKeyFlag(cmd, "base-mint")
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		programID, err := cfg.Program.PublicKey()
		if err != nil {
			return err
		}
		d, err := derive.NewDeriver(programID, cfg.Ledger.CacheSize)
		if err != nil {
			return err
		}

		accts, err := pool.DeriveAccounts(d, baseMint)
		if err != nil {
			return err
		}
		return render(cmd, accts, func(w io.Writer) {
			fmt.Fprintf(w, "Program:   %s\n", programID)
			fmt.Fprintf(w, "Base mint: %s\n", baseMint)
			for _, addr := range accts.All() {
				fmt.Fprintf(w, "  %-10s %s  bump %d  parent %s\n", addr.Label, addr.Key, addr.Bump, addr.Parent)
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(deriveCmd)
	deriveCmd.Flags().String("base-mint", "", "base token mint address")
	addOutputFlag(deriveCmd)
}
