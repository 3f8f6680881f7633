package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewUIQualityCommand creates the ui-quality command
func NewUIQualityCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ui-quality",
		Short: "Audit images, alt text, touch targets and mobile layout",
		Long: `Run the UI quality audit: image loading and alt text at the desktop viewport,
horizontal overflow and touch target sizes at the mobile viewport, body text
length, and whether a call to action is visible in the first mobile viewport.

Desktop and mobile screenshots are saved under the artifact directory.
A failed verdict exits with status 1 unless ui_quality.exit_on_failure is
false or --exit-on-failure=false is given.`,
		Args: cobra.NoArgs,
		RunE: runUIQualityCommand,
	}

	addRunFlags(cmd)
	cmd.Flags().Bool("exit-on-failure", true, "Exit with status 1 when the verdict fails (overrides config)")

	return cmd
}

func runUIQualityCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd, "ui")
	if err != nil {
		return err
	}

	s := openSession(cmd, cfg)
	defer s.Close()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	report := s.runUIQuality(ctx, s.log)
	if err := emitJSON(s.stdout, report); err != nil {
		return err
	}
	if !report.Passed && cfg.UIQuality.ExitOnFailure {
		return &ExitError{Code: 1}
	}
	return nil
}
