package cmd

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"github.com/templui/goalkeep/internal/config"
	"github.com/templui/goalkeep/internal/db"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(conn *sqlx.DB, driver string) error {
				return db.RunMigrations(conn.DB, driver)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(conn *sqlx.DB, driver string) error {
				return db.MigrateDown(conn.DB, driver)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the applied schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(conn *sqlx.DB, driver string) error {
				version, err := db.Version(conn.DB, driver)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (%s)\n", version, driver)
				return nil
			})
		},
	})

	return cmd
}

func withDB(fn func(conn *sqlx.DB, driver string) error) error {
	cfg := config.Load()

	conn, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return err
	}
	defer db.Close(conn)

	return fn(conn, cfg.DBDriver)
}
