package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/harrison/funnelcheck/internal/logger"
	"github.com/harrison/funnelcheck/internal/models"
)

// combinedReport is the stdout document of the all command.
type combinedReport struct {
	Flow      models.FlowReport      `json:"flow"`
	UIQuality models.UIQualityReport `json:"ui_quality"`
}

// NewAllCommand creates the all command
func NewAllCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "all",
		Short: "Run the purchase-flow and UI quality tests concurrently",
		Long: `Run both tests at the same time, each in its own browser session, and print
{"flow": ..., "ui_quality": ...} on stdout.

The exit status is 1 when either failing test has its exit_on_failure toggle
enabled in the configuration.`,
		Args: cobra.NoArgs,
		RunE: runAllCommand,
	}

	addRunFlags(cmd)

	return cmd
}

func runAllCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd, "")
	if err != nil {
		return err
	}

	s := openSession(cmd, cfg)
	defer s.Close()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var out combinedReport
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out.Flow = s.runFlow(gctx, logger.WithPrefix(s.log, "flow"))
		return ctx.Err()
	})
	g.Go(func() error {
		out.UIQuality = s.runUIQuality(gctx, logger.WithPrefix(s.log, "ui"))
		return ctx.Err()
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("interrupted: %w", err)
	}

	if err := emitJSON(s.stdout, out); err != nil {
		return err
	}

	flowFailed := !out.Flow.Passed() && cfg.PurchaseFlow.ExitOnFailure
	uiFailed := !out.UIQuality.Passed && cfg.UIQuality.ExitOnFailure
	if flowFailed || uiFailed {
		return &ExitError{Code: 1}
	}
	return nil
}
