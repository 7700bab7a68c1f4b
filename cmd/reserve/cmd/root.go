package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lugondev/go-reserve/internal/config"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "reserve",
	Short: "Reserve - a two-asset liquidity pool on a local ledger",
	Long: `Reserve runs a liquidity pool between an SPL-style base mint and native lamports.

It provides commands for:
- Creating pools and adding or removing liquidity
- Inspecting pools, derived addresses and stored events
- Managing local mints, token accounts and wallets
- Reading pools of a deployed program over RPC`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./.reserve.yaml or $HOME/.reserve.yaml)")
	flags.String("rpc", "", "Solana RPC endpoint (overrides --network)")
	flags.String("network", "devnet", "Solana network (mainnet, devnet, testnet, localnet)")
	flags.String("ledger-backend", config.BackendPebble, "ledger backend (memory, pebble, leveldb)")
	flags.String("ledger-path", ".reserve/ledger", "ledger directory")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")

	for key, flag := range map[string]string{
		"solana.rpc":     "rpc",
		"solana.network": "network",
		"ledger.backend": "ledger-backend",
		"ledger.path":    "ledger-path",
		"log.level":      "log-level",
		"log.format":     "log-format",
	} {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			fmt.Fprintf(os.Stderr, "Error binding flag: %v\n", err)
		}
	}
}

func loadConfig() (*config.Config, error) {
	return config.LoadWith(viper.GetViper(), cfgFile)
}
