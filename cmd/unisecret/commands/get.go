package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/systmms/unisecret/internal/config"
	uerrors "github.com/systmms/unisecret/internal/errors"
	"github.com/systmms/unisecret/internal/logging"
	"github.com/systmms/unisecret/pkg/resolve"
)

type getOutput struct {
	Key        string    `json:"key"`
	Value      string    `json:"value"`
	Origin     string    `json:"origin"`
	FetchedAt  time.Time `json:"fetched_at"`
	TTLSeconds int64     `json:"ttl_seconds"`
}

func NewGetCommand(cfg *config.Config) *cobra.Command {
	var (
		ttl        time.Duration
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "get KEY",
		Short: "Resolve a single secret value",
		Long: `Resolve a secret and print its value.

By default, only the raw value is printed, making it suitable for scripting.

Examples:
  # Resolve a value
  unisecret get DATABASE_URL

  # Include origin and timestamps
  unisecret get API_KEY --json

  # Use in scripts
  export DB_URL=$(unisecret get DATABASE_URL)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			resolver, err := newResolver(cfg)
			if err != nil {
				return err
			}
			defer resolver.Close()

			var opts []resolve.ResolveOption
			if ttl > 0 {
				opts = append(opts, resolve.WithTTL(ttl))
			}

			secret, err := resolver.ResolveSecret(context.Background(), key, opts...)
			if err != nil {
				if resolve.IsNotFound(err) {
					return uerrors.UserError{
						Message:    fmt.Sprintf("Secret %s not found", logging.RedactKey(key)),
						Suggestion: "Run 'unisecret providers' to see which providers are active",
						Err:        err,
					}
				}
				return err
			}

			out := cmd.OutOrStdout()
			if !jsonOutput {
				_, err := fmt.Fprint(out, secret.Value)
				return err
			}

			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(getOutput{
				Key:        key,
				Value:      secret.Value,
				Origin:     secret.Origin,
				FetchedAt:  secret.FetchedAt,
				TTLSeconds: int64(secret.TTL / time.Second),
			}); err != nil {
				return fmt.Errorf("failed to encode JSON: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Cache ttl for this resolution (default from config)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format with metadata")

	return cmd
}
