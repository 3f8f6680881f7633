package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/harrison/funnelcheck/internal/config"
)

// NewValidateCommand creates and returns the validate subcommand
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		Long: `Load the configuration, merge it with the defaults and check:
  - target_url is an absolute http(s) URL
  - durations, viewports and limits are in range
  - every candidate selector is well formed
  - the purchase-flow verdict rule only names known report flags

Exit code: 0 if valid, 1 if errors found`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return validateConfigWithOutput(cfg, path, cmd.OutOrStdout())
		},
	}

	cmd.Flags().String("config", "", "Path to config file (default: .funnelcheck/config.yaml)")

	return cmd
}

// validateConfigWithOutput validates cfg and prints what a run would use
func validateConfigWithOutput(cfg *config.Config, path string, output io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration in %s: %w", path, err)
	}

	fmt.Fprintf(output, "Configuration is valid: %s\n", path)
	fmt.Fprintf(output, "  Target:          %s\n", cfg.TargetURL)
	fmt.Fprintf(output, "  Redirect domain: %s\n", cfg.PurchaseFlow.RedirectDomain)
	fmt.Fprintf(output, "  Viewports:       desktop %dx%d, mobile %dx%d\n",
		cfg.Viewports.Desktop.Width, cfg.Viewports.Desktop.Height,
		cfg.Viewports.Mobile.Width, cfg.Viewports.Mobile.Height)
	fmt.Fprintf(output, "  Flow verdict:    %s\n", cfg.PurchaseFlow.Verdict)
	fmt.Fprintf(output, "  Exit on failure: flow=%t ui-quality=%t\n",
		cfg.PurchaseFlow.ExitOnFailure, cfg.UIQuality.ExitOnFailure)
	return nil
}
