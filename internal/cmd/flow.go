package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewFlowCommand creates the flow command
func NewFlowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flow",
		Short: "Verify the purchase funnel (product page -> upsell -> payment redirect)",
		Long: `Run the purchase-flow test: load the landing page, select a size, click the
primary call to action, decline the upsell prompt and verify that the browser
ends up on the payment provider.

The JSON report is printed on stdout. By default a failed verdict still exits
with status 0; pass --exit-on-failure or set purchase_flow.exit_on_failure to
exit with status 1.

Examples:
  funnelcheck flow
  funnelcheck flow --url https://shop.example.com --exit-on-failure
  funnelcheck flow --config ci.yaml --summary`,
		Args: cobra.NoArgs,
		RunE: runFlowCommand,
	}

	addRunFlags(cmd)
	cmd.Flags().Bool("exit-on-failure", false, "Exit with status 1 when the verdict fails (overrides config)")

	return cmd
}

func runFlowCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd, "flow")
	if err != nil {
		return err
	}

	s := openSession(cmd, cfg)
	defer s.Close()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	report := s.runFlow(ctx, s.log)
	if err := emitJSON(s.stdout, report); err != nil {
		return err
	}
	if !report.Passed() && cfg.PurchaseFlow.ExitOnFailure {
		return &ExitError{Code: 1}
	}
	return nil
}
