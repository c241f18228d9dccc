package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/templui/goalkeep/cmd/do/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "do",
		Short:         "Operator and development tools for goalkeep",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(cmd.DevCmd())
	rootCmd.AddCommand(cmd.MigrateCmd())
	rootCmd.AddCommand(cmd.TokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
