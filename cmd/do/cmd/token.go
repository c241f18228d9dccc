package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/templui/goalkeep/internal/config"
	"github.com/templui/goalkeep/internal/model"
	"github.com/templui/goalkeep/internal/service"
)

func TokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token <identity>",
		Short: "Mint a bearer token for an identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			token, err := service.NewAuthService(cfg.JWTSecret, cfg.JWTExpiry).GenerateJWT(model.Identity(args[0]))
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}
