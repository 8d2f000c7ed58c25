package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systmms/unisecret/internal/config"
)

func NewStatsCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "stats [KEY...]",
		Short: "Show cache and resolution statistics",
		Long: `Resolve the given secrets, then print cache and metrics counters as JSON.

Values are never printed and cached key names are redacted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, err := newResolver(cfg)
			if err != nil {
				return err
			}
			defer resolver.Close()

			ctx := context.Background()
			for _, key := range args {
				_ = resolver.Exists(ctx, key)
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(resolver.GetCacheStats()); err != nil {
				return fmt.Errorf("failed to encode JSON: %w", err)
			}
			return nil
		},
	}
}
