package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/funnelcheck/internal/artifact"
	"github.com/harrison/funnelcheck/internal/audit"
	"github.com/harrison/funnelcheck/internal/browser"
	"github.com/harrison/funnelcheck/internal/config"
	"github.com/harrison/funnelcheck/internal/executor"
	"github.com/harrison/funnelcheck/internal/history"
	"github.com/harrison/funnelcheck/internal/logger"
	"github.com/harrison/funnelcheck/internal/models"
	"github.com/harrison/funnelcheck/internal/summary"
)

// launchBrowser opens one browser session. Tests swap in an in-memory page.
var launchBrowser = func(ctx context.Context, opts browser.Options) (browser.Page, func(), error) {
	page, release, err := browser.Launch(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	return page, release, nil
}

// addRunFlags registers the flags shared by the test commands.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Path to config file (default: .funnelcheck/config.yaml)")
	cmd.Flags().String("url", "", "Landing page to test (overrides target_url)")
	cmd.Flags().String("log-dir", "", "Directory for log files")
	cmd.Flags().Bool("headless", true, "Run the browser without a window")
	cmd.Flags().Bool("summary", false, "Write Markdown and HTML summaries next to the run artifacts")
}

// loadConfig loads the file named by --config, or the default config in the
// funnelcheck home directory.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		path, err := config.DefaultConfigPath()
		if err != nil {
			return nil, "", fmt.Errorf("failed to resolve config path: %w", err)
		}
		configPath = path
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}
	return cfg, configPath, nil
}

// loadRunConfig loads configuration, applies the CLI overrides that were
// actually set, and validates the result. exitFlag names the config toggle
// --exit-on-failure maps to ("flow" or "ui"); empty means the command has
// no such flag.
func loadRunConfig(cmd *cobra.Command, exitFlag string) (*config.Config, error) {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	var urlPtr, logDirPtr *string
	if cmd.Flags().Changed("url") {
		v, _ := cmd.Flags().GetString("url")
		urlPtr = &v
	}
	if cmd.Flags().Changed("log-dir") {
		v, _ := cmd.Flags().GetString("log-dir")
		logDirPtr = &v
	}

	var headlessPtr *bool
	if cmd.Flags().Changed("headless") {
		v, _ := cmd.Flags().GetBool("headless")
		headlessPtr = &v
	}

	var flowExitPtr, uiExitPtr *bool
	if cmd.Flags().Changed("exit-on-failure") {
		v, _ := cmd.Flags().GetBool("exit-on-failure")
		switch exitFlag {
		case "flow":
			flowExitPtr = &v
		case "ui":
			uiExitPtr = &v
		}
	}

	cfg.MergeWithFlags(urlPtr, logDirPtr, headlessPtr, flowExitPtr, uiExitPtr)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// session carries the loggers and stores shared by the tests of one
// command invocation. All of them are safe for concurrent use.
type session struct {
	cfg     *config.Config
	log     logger.Logger
	file    *logger.FileLogger
	store   *history.Store
	stdout  io.Writer
	summary bool
}

// openSession sets up logging and run history. Neither is allowed to stop
// a test: failures are logged as warnings and the feature is disabled.
func openSession(cmd *cobra.Command, cfg *config.Config) *session {
	console := logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	s := &session{cfg: cfg, stdout: cmd.OutOrStdout()}
	s.summary, _ = cmd.Flags().GetBool("summary")

	loggers := []logger.Logger{console}
	if fl, err := logger.NewFileLogger(cfg.LogDir, cfg.LogLevel); err != nil {
		console.LogWarn(fmt.Sprintf("File logging disabled: %v", err))
	} else {
		s.file = fl
		loggers = append(loggers, fl)
	}
	s.log = logger.NewMulti(loggers...)

	if store, err := history.Open(cfg.HistoryDB); err != nil {
		s.log.LogWarn(fmt.Sprintf("Run history disabled: %v", err))
	} else {
		s.store = store
	}
	return s
}

// Close releases the history database and the run log.
func (s *session) Close() {
	if s.store != nil {
		s.store.Close()
	}
	if s.file != nil {
		s.file.Close()
	}
}

func (s *session) browserOptions() browser.Options {
	return browser.Options{
		Headless:  s.cfg.Headless,
		UserAgent: s.cfg.UserAgent,
		Viewport:  s.cfg.DesktopViewport(),
	}
}

// runFlow runs the purchase-flow test in its own browser session.
func (s *session) runFlow(ctx context.Context, log logger.Logger) models.FlowReport {
	runID := history.NewRunID()
	started := time.Now()
	log.LogInfo(fmt.Sprintf("Starting %s against %s (run %s)", models.TestPurchaseFlow, s.cfg.TargetURL, runID))

	var report models.FlowReport
	page, release, err := launchBrowser(ctx, s.browserOptions())
	if err != nil {
		log.LogError(fmt.Sprintf("Browser session failed: %v", err))
		report = executor.AbortedReport(err)
	} else {
		func() {
			defer release()
			report = executor.NewPurchaseFlow(page, flowConfig(s.cfg), log).Run(ctx)
		}()
	}

	duration := time.Since(started)
	log.LogVerdict(report.Test, report.Passed(), duration)

	sink := artifact.NewFileSink(s.cfg.ArtifactDir, runID)
	meta := summary.Meta{RunID: runID, TargetURL: s.cfg.TargetURL, StartedAt: started, Duration: duration}
	s.finish(ctx, log, sink, models.RunResult{
		RunID:     runID,
		Test:      report.Test,
		TargetURL: s.cfg.TargetURL,
		Passed:    report.Passed(),
		StartedAt: started,
		Duration:  duration,
		Errors:    len(report.Errors),
	}, report, func() string { return summary.FlowMarkdown(report, meta) })
	return report
}

// runUIQuality runs the UI quality audit in its own browser session.
// Screenshots go to the run's artifact directory.
func (s *session) runUIQuality(ctx context.Context, log logger.Logger) models.UIQualityReport {
	runID := history.NewRunID()
	started := time.Now()
	log.LogInfo(fmt.Sprintf("Starting %s against %s (run %s)", models.TestUIQuality, s.cfg.TargetURL, runID))

	sink := artifact.NewFileSink(s.cfg.ArtifactDir, runID)

	var report models.UIQualityReport
	page, release, err := launchBrowser(ctx, s.browserOptions())
	if err != nil {
		log.LogError(fmt.Sprintf("Browser session failed: %v", err))
		report = audit.AbortedReport(err)
	} else {
		func() {
			defer release()
			report = audit.NewScanner(page, auditOptions(s.cfg), sink, log).Run(ctx)
		}()
	}

	duration := time.Since(started)
	log.LogVerdict(report.Test, report.Passed, duration)

	meta := summary.Meta{RunID: runID, TargetURL: s.cfg.TargetURL, StartedAt: started, Duration: duration}
	s.finish(ctx, log, sink, models.RunResult{
		RunID:     runID,
		Test:      report.Test,
		TargetURL: s.cfg.TargetURL,
		Passed:    report.Passed,
		StartedAt: started,
		Duration:  duration,
		Errors:    len(report.Errors),
	}, report, func() string { return summary.UIQualityMarkdown(report, meta) })
	return report
}

// finish stores the report copy, the history row and the optional summary.
// None of these can change the verdict, so errors are warnings.
func (s *session) finish(ctx context.Context, log logger.Logger, sink *artifact.FileSink, res models.RunResult, report any, markdown func() string) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.LogWarn(fmt.Sprintf("Could not encode report: %v", err))
		return
	}
	res.Report = data

	if s.file != nil {
		if err := s.file.WriteReport(res.Test, data); err != nil {
			log.LogWarn(fmt.Sprintf("Could not save report copy: %v", err))
		}
	}

	if s.store != nil {
		// An interrupted run is still worth recording.
		if _, err := s.store.Record(context.WithoutCancel(ctx), res); err != nil {
			log.LogWarn(fmt.Sprintf("Could not record run history: %v", err))
		}
	}

	if !s.summary {
		return
	}
	md := markdown()
	prefix := summaryPrefix(res.Test)
	if err := sink.Save(prefix+"-summary.md", []byte(md)); err != nil {
		log.LogWarn(fmt.Sprintf("Could not save summary: %v", err))
		return
	}
	page, err := summary.HTML(res.Test, md)
	if err != nil {
		log.LogWarn(err.Error())
		return
	}
	if err := sink.Save(prefix+"-summary.html", page); err != nil {
		log.LogWarn(fmt.Sprintf("Could not save summary: %v", err))
		return
	}
	log.LogInfo(fmt.Sprintf("Summary written to %s", sink.Path(prefix+"-summary.html")))
}

func summaryPrefix(test string) string {
	if test == models.TestUIQuality {
		return "ui-quality"
	}
	return "flow"
}

// flowConfig maps configuration onto the purchase flow.
func flowConfig(cfg *config.Config) executor.FlowConfig {
	pf := cfg.PurchaseFlow
	return executor.FlowConfig{
		TargetURL:         cfg.TargetURL,
		RedirectDomain:    pf.RedirectDomain,
		NavigationTimeout: cfg.NavigationTimeout,
		SettleDelay:       cfg.SettleDelay,
		RedirectWait:      pf.RedirectWait,
		LocateTimeout:     pf.LocateTimeout,
		RetryTimeout:      pf.RetryTimeout,
		SizeSelectors:     pf.SizeSelectors,
		CTASelectors:      pf.CTASelectors,
		PopupSelectors:    pf.PopupSelectors,
		DeclineSelectors:  pf.DeclineSelectors,
		Rule:              pf.Verdict,
	}
}

// auditOptions maps configuration onto the UI quality scanner.
func auditOptions(cfg *config.Config) audit.Options {
	ui := cfg.UIQuality
	return audit.Options{
		TargetURL:           cfg.TargetURL,
		NavigationTimeout:   cfg.NavigationTimeout,
		SettleDelay:         ui.ImageSettle,
		Desktop:             cfg.DesktopViewport(),
		Mobile:              cfg.MobileViewport(),
		TouchTargetSelector: ui.TouchTargetSelector,
		CTASelectors:        ui.CTASelectors,
		AccordionSelector:   ui.AccordionSelector,
		AccordionLimit:      ui.AccordionLimit,
		MinTextLength:       ui.MinTextLength,
	}
}

// emitJSON prints v as indented JSON followed by a newline.
func emitJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
