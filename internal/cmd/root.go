package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for funnelcheck
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "funnelcheck",
		Short: "Verify a landing-page checkout funnel in a real browser",
		Long: `funnelcheck drives a headless browser through a product landing page and
verifies that the checkout funnel (product page -> upsell prompt -> payment
redirect) works, and that the page passes basic visual and accessibility checks.

Each test prints a JSON report on stdout. Progress is logged on stderr and to
the run log under the configured log directory.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
		// main prints errors, and exits silently for failed verdicts
		SilenceErrors: true,
	}

	cmd.AddCommand(NewFlowCommand())
	cmd.AddCommand(NewUIQualityCommand())
	cmd.AddCommand(NewAllCommand())
	cmd.AddCommand(NewHistoryCommand())
	cmd.AddCommand(NewValidateCommand())

	return cmd
}
