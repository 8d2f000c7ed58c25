package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/systmms/unisecret/internal/config"
	"github.com/systmms/unisecret/internal/providers"
	"github.com/systmms/unisecret/pkg/provider"
)

type activeReporter interface {
	Active() bool
}

func NewProvidersCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List providers in precedence order",
		Long: `Display the provider chain in the order it is consulted and whether
each provider is currently active.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, err := newResolver(cfg)
			if err != nil {
				return err
			}
			defer resolver.Close()

			out := cmd.OutOrStdout()
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "ORDER\tNAME\tACTIVE\tDETAILS\n")
			_, _ = fmt.Fprintf(w, "-----\t----\t------\t-------\n")
			for i, p := range resolver.Providers() {
				_, _ = fmt.Fprintf(w, "%d\t%s\t%t\t%s\n", i+1, p.Name(), isActive(p), describeProvider(p))
			}
			_ = w.Flush()

			_, _ = fmt.Fprintf(out, "\nVault backends: %s\n", strings.Join(providers.SupportedBackends(), ", "))
			return nil
		},
	}
}

func isActive(p provider.Provider) bool {
	if a, ok := p.(activeReporter); ok {
		return a.Active()
	}
	return true
}

func describeProvider(p provider.Provider) string {
	switch v := p.(type) {
	case *providers.EnvProvider:
		return "process environment"
	case *providers.CIProvider:
		return "marker " + v.Marker()
	case *providers.PlatformProvider:
		return "bindings, then " + v.Prefix() + "<KEY>"
	case *providers.VaultProvider:
		if !v.Active() {
			return "not configured"
		}
		return "external vault"
	}
	return ""
}
