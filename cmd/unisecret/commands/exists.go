package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systmms/unisecret/internal/config"
)

func NewExistsCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "exists KEY",
		Short: "Report whether a secret resolves",
		Long: `Print true or false depending on whether any provider has the secret.

The exit status is 0 when the secret exists and 1 otherwise.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, err := newResolver(cfg)
			if err != nil {
				return err
			}
			defer resolver.Close()

			exists := resolver.Exists(context.Background(), args[0])
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), exists)
			if !exists {
				return ExitError{Code: 1}
			}
			return nil
		},
	}
}
