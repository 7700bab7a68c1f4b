package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lugondev/go-reserve/internal/storage"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List pool events kept in the event database",
	Long: `List stored pool events, newest first. Filter by --pool, --event or --user.
Requires database.enabled in the configuration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, closeRepo, err := openRepository(cmd)
		if err != nil {
			return err
		}
		defer closeRepo()

		poolKey, _ := cmd.Flags().GetString("pool")
		name, _ := cmd.Flags().GetString("event")
		user, _ := cmd.Flags().GetString("user")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		var events []*storage.EventModel
		switch {
		case poolKey != "":
			events, err = repo.Events().FindByPool(cmd.Context(), poolKey, limit, offset)
		case name != "":
			events, err = repo.Events().FindByEventName(cmd.Context(), name, limit, offset)
		case user != "":
			events, err = repo.Events().FindByUser(cmd.Context(), user, limit, offset)
		default:
			return fmt.Errorf("one of --pool, --event or --user is required")
		}
		if err != nil {
			return err
		}

		return render(cmd, events, func(w io.Writer) {
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SLOT\tEVENT\tUSER\tNATIVE\tBASE\tSHARES\tID")
			for _, ev := range events {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%s\n",
					ev.Slot, ev.EventName, ev.User, ev.NativeAmount, ev.BaseAmount, ev.ShareAmount, ev.ID)
			}
			tw.Flush()
		})
	},
}

var poolsCmd = &cobra.Command{
	Use:   "pools",
	Short: "List the latest stored snapshot of every pool",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, closeRepo, err := openRepository(cmd)
		if err != nil {
			return err
		}
		defer closeRepo()

		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")
		pools, err := repo.Pools().List(cmd.Context(), limit, offset)
		if err != nil {
			return err
		}

		return render(cmd, pools, func(w io.Writer) {
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "POOL\tBASE MINT\tLAMPORTS\tBASE\tSHARES\tSLOT")
			for _, p := range pools {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\n",
					p.ID, p.BaseMint, p.QuoteVaultLamports, p.BaseVaultAmount, p.ShareSupply, p.Slot)
			}
			tw.Flush()
		})
	},
}

func openRepository(cmd *cobra.Command) (storage.Repository, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	conn, err := storage.NewConnectionManager(&cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	repo, err := conn.Connect(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	return repo, func() { conn.Close() }, nil
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().String("pool", "", "pool state address")
	eventsCmd.Flags().String("user", "", "wallet that deposited or withdrew")
	eventsCmd.Flags().String("event", "", "event name (PoolInitialized, LiquidityAdded, LiquidityRemoved)")
	eventsCmd.Flags().Int("limit", 50, "maximum number of events")
	eventsCmd.Flags().Int("offset", 0, "number of events to skip")
	addOutputFlag(eventsCmd)

	rootCmd.AddCommand(poolsCmd)
	poolsCmd.Flags().Int("limit", 50, "maximum number of pools")
	poolsCmd.Flags().Int("offset", 0, "number of pools to skip")
	addOutputFlag(poolsCmd)
}
