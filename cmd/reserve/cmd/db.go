package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lugondev/go-reserve/internal/storage/postgres"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the schema of the PostgreSQL event database",
}

// openMigrator connects to the configured database. Connecting already applies
// pending migrations.
func openMigrator(cmd *cobra.Command) (*postgres.Migrator, func(), error) {
	repo, closeRepo, err := openRepository(cmd)
	if err != nil {
		return nil, nil, err
	}
	pg, ok := repo.(*postgres.PostgresRepository)
	if !ok {
		closeRepo()
		return nil, nil, fmt.Errorf("schema migrations need a postgres database")
	}
	return pg.Migrator(), closeRepo, nil
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List migrations and whether they are applied",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, closeDB, err := openMigrator(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		status, err := m.Status(cmd.Context())
		if err != nil {
			return err
		}
		return render(cmd, status, func(w io.Writer) {
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VERSION\tAPPLIED\tDESCRIPTION")
			for _, s := range status {
				fmt.Fprintf(tw, "%d\t%t\t%s\n", s.Version, s.Applied, s.Description)
			}
			tw.Flush()
		})
	},
}

var dbRollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Revert the newest migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, _ := cmd.Flags().GetInt("steps")
		if steps < 1 {
			return fmt.Errorf("--steps must be at least 1")
		}
		m, closeDB, err := openMigrator(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		n, err := m.Down(cmd.Context(), steps)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %d migration(s)\n", n)
		return nil
	},
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, closeDB, err := openMigrator(cmd)
		if err != nil {
			return err
		}
		defer closeDB()

		if _, err := m.Up(cmd.Context()); err != nil {
			return err
		}
		version, err := m.Version(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Schema at version %d\n", version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbStatusCmd, dbMigrateCmd, dbRollbackCmd)
	addOutputFlag(dbStatusCmd)
	dbRollbackCmd.Flags().Int("steps", 1, "number of migrations to revert")
}
