package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/funnelcheck/internal/history"
	"github.com/harrison/funnelcheck/internal/models"
)

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded test runs",
		Long: `List recorded runs, newest first, with their verdicts and a pass rate.

--test accepts "flow", "ui-quality" or a full test name.
--run prints the stored JSON report of one run.`,
		Args: cobra.NoArgs,
		RunE: runHistoryCommand,
	}

	cmd.Flags().String("config", "", "Path to config file (default: .funnelcheck/config.yaml)")
	cmd.Flags().String("test", "", "Only show runs of this test")
	cmd.Flags().Int("limit", 20, "Maximum number of runs to show (0 = all)")
	cmd.Flags().String("run", "", "Print the stored report of this run id")

	return cmd
}

func runHistoryCommand(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	output := cmd.OutOrStdout()

	// Do not create a database just to report that it is empty
	if _, err := os.Stat(cfg.HistoryDB); os.IsNotExist(err) {
		fmt.Fprintln(output, "No runs recorded yet.")
		fmt.Fprintf(output, "Database path: %s\n", cfg.HistoryDB)
		return nil
	}

	store, err := history.Open(cfg.HistoryDB)
	if err != nil {
		return fmt.Errorf("open run history: %w", err)
	}
	defer store.Close()

	if runID, _ := cmd.Flags().GetString("run"); runID != "" {
		run, err := store.Get(cmd.Context(), runID)
		if err != nil {
			return err
		}
		fmt.Fprintf(output, "%s\n", run.Report)
		return nil
	}

	testFlag, _ := cmd.Flags().GetString("test")
	test := resolveTestName(testFlag)
	limit, _ := cmd.Flags().GetInt("limit")

	runs, err := store.List(cmd.Context(), test, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(output, "No runs recorded yet.")
		return nil
	}
	stats, err := store.Stats(cmd.Context(), test)
	if err != nil {
		return err
	}

	printRuns(output, runs, stats)
	return nil
}

// resolveTestName maps the short command names onto report test names.
func resolveTestName(name string) string {
	switch name {
	case "flow":
		return models.TestPurchaseFlow
	case "ui-quality", "ui":
		return models.TestUIQuality
	default:
		return name
	}
}

func printRuns(w io.Writer, runs []history.Run, stats history.Stats) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	bold := color.New(color.Bold)

	fmt.Fprintf(w, "%s\n", bold.Sprintf("%-36s  %-20s  %-6s  %-19s  %8s  %6s",
		"RUN ID", "TEST", "STATUS", "STARTED", "DURATION", "ERRORS"))
	for _, r := range runs {
		status := fmt.Sprintf("%-6s", r.Status())
		if r.Passed {
			status = green.Sprint(status)
		} else {
			status = red.Sprint(status)
		}
		fmt.Fprintf(w, "%-36s  %-20s  %s  %-19s  %8s  %6d\n",
			r.RunID, r.Test, status,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Duration.Round(100*time.Millisecond), r.Errors)
	}

	fmt.Fprintf(w, "\nPass rate: %d/%d (%.0f%%)\n", stats.Passed, stats.Total, stats.PassRate()*100)
}
