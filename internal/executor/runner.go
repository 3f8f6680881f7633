package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/harrison/funnelcheck/internal/models"
)

// Logger is the progress sink for step execution.
type Logger interface {
	LogStepStart(index, total int, name string)
	LogStepResult(index, total int, name string, success, mandatory bool)
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
}

// Outcome is the result of one step action.
type Outcome struct {
	Success bool
	Detail  string // Appended to the detail log when non-empty
	Err     error  // Appended to the error log on failure
}

// Action performs one step. It may append extra details to the report but
// must not finalize it.
type Action func(ctx context.Context, report *models.FlowReport) Outcome

// Step is one named unit of a flow.
type Step struct {
	Name      string
	Mandatory bool          // Failure aborts the remaining steps
	Timeout   time.Duration // Bounds the whole step (0 = driver timeouts only)
	Flag      string        // Report flag set to the step's success (optional)
	Action    Action
}

// Runner executes steps strictly in order against one report.
type Runner struct {
	steps  []Step
	logger Logger
}

// NewRunner creates a runner for steps. A nil logger discards progress.
func NewRunner(logger Logger, steps ...Step) *Runner {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Runner{steps: steps, logger: logger}
}

// Run executes every step until one mandatory step fails. Soft failures are
// recorded and execution continues. Returns false when the run was aborted,
// in which case the report is marked fatal and carries one abort error.
func (r *Runner) Run(ctx context.Context, report *models.FlowReport) bool {
	total := len(r.steps)
	for i, step := range r.steps {
		n := i + 1
		report.AddDetail(fmt.Sprintf("Step %d: %s...", n, step.Name))
		r.logger.LogStepStart(n, total, step.Name)

		outcome := r.invoke(ctx, step, report)

		if outcome.Detail != "" {
			report.AddDetail(outcome.Detail)
		}
		if step.Flag != "" {
			report.SetFlag(step.Flag, outcome.Success)
		}
		r.logger.LogStepResult(n, total, step.Name, outcome.Success, step.Mandatory)
		if outcome.Success {
			continue
		}

		err := outcome.Err
		if err == nil {
			err = NewStepError(ActionFailure, step.Name, fmt.Sprintf("step %q failed", step.Name), nil)
		}
		report.AddError(err.Error())

		if !step.Mandatory {
			r.logger.LogWarn(fmt.Sprintf("soft step %q failed: %v", step.Name, err))
			continue
		}

		reason := "failed"
		if kind, ok := KindOf(err); ok {
			reason = kind.String()
		}
		report.AddError(fmt.Sprintf("Aborted at step %d (%s): %s", n, step.Name, reason))
		report.MarkFatal()
		r.logger.LogError(fmt.Sprintf("mandatory step %q failed, skipping %d remaining step(s)", step.Name, total-n))
		return false
	}
	return true
}

// invoke runs one action under the step's deadline. A panic inside the
// action is converted into an ActionFailure for that step.
func (r *Runner) invoke(ctx context.Context, step Step, report *models.FlowReport) (out Outcome) {
	stepCtx := ctx
	if step.Timeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, step.Timeout)
		defer cancel()
	}

	defer func() {
		if rec := recover(); rec != nil {
			out = Outcome{
				Success: false,
				Err:     NewStepError(ActionFailure, step.Name, "Unexpected error", fmt.Errorf("%v", rec)),
			}
		}
	}()

	if step.Action == nil {
		return Outcome{Err: NewStepError(ActionFailure, step.Name, "step has no action", nil)}
	}
	return step.Action(stepCtx, report)
}

type nopLogger struct{}

func (nopLogger) LogStepStart(index, total int, name string)                          {}
func (nopLogger) LogStepResult(index, total int, name string, success, mandatory bool) {}
func (nopLogger) LogDebug(message string)                                              {}
func (nopLogger) LogInfo(message string)                                               {}
func (nopLogger) LogWarn(message string)                                               {}
func (nopLogger) LogError(message string)                                              {}
