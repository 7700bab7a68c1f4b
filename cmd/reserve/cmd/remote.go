package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/lugondev/go-reserve/internal/derive"
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Read pools of a deployed program over RPC",
}

var remotePoolCmd = &cobra.Command{
	Use:   "pool",
	Short: "Show a pool deployed on the cluster",
	Long: `Fetch the pool state, vaults and share mint of the pool anchored on --base-mint
in one RPC round trip. The program id defaults to program.id from the configuration.`,
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
		if cmd.Flags().Changed("program-id") {
			if programID, err = publicKeyFlag(cmd, "program-id"); err != nil {
				return err
			}
		}
		d, err := derive.NewDeriver(programID, cfg.Ledger.CacheSize)
		if err != nil {
			return err
		}

		client, ctx, cancel, err := openRPC(cmd)
		if err != nil {
			return err
		}
		defer cancel()

		snap, err := client.GetPool(ctx, d, baseMint, cfg.Program.Rate)
		if err != nil {
			return err
		}
		return render(cmd, snap, func(w io.Writer) { printSnapshot(w, snap) })
	},
}

func init() {
	rootCmd.AddCommand(remoteCmd)
	remoteCmd.AddCommand(remotePoolCmd)
	remotePoolCmd.Flags().String("base-mint", "", "base token mint address")
	remotePoolCmd.Flags().String("program-id", "", "program id the pool is deployed under")
	addOutputFlag(remotePoolCmd)
}
