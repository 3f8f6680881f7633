package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harrison/funnelcheck/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	started []string
	results []bool
	warns   []string
	errs    []string
}

func (l *recordingLogger) LogStepStart(index, total int, name string) {
	l.started = append(l.started, name)
}
func (l *recordingLogger) LogStepResult(index, total int, name string, success, mandatory bool) {
	l.results = append(l.results, success)
}
func (l *recordingLogger) LogDebug(message string) {}
func (l *recordingLogger) LogInfo(message string)  {}
func (l *recordingLogger) LogWarn(message string)  { l.warns = append(l.warns, message) }
func (l *recordingLogger) LogError(message string) { l.errs = append(l.errs, message) }

func succeed(detail string) Action {
	return func(ctx context.Context, r *models.FlowReport) Outcome {
		return Outcome{Success: true, Detail: detail}
	}
}

func fail(kind FailureKind, msg string) Action {
	return func(ctx context.Context, r *models.FlowReport) Outcome {
		return Outcome{Err: NewStepError(kind, "", msg, nil)}
	}
}

func TestRunner_AllStepsSucceed(t *testing.T) {
	log := &recordingLogger{}
	report := models.NewFlowReport(models.TestPurchaseFlow)

	ok := NewRunner(log,
		Step{Name: "one", Mandatory: true, Flag: models.FlagPageLoaded, Action: succeed("first done")},
		Step{Name: "two", Flag: models.FlagPopupAppeared, Action: succeed("")},
	).Run(context.Background(), report)

	assert.True(t, ok)
	assert.False(t, report.Fatal())
	assert.True(t, report.Flag(models.FlagPageLoaded))
	assert.True(t, report.Flag(models.FlagPopupAppeared))
	assert.Equal(t, []string{"Step 1: one...", "first done", "Step 2: two..."}, report.Details)
	assert.Empty(t, report.Errors)
	assert.Equal(t, []string{"one", "two"}, log.started)
}

func TestRunner_SoftFailureContinues(t *testing.T) {
	log := &recordingLogger{}
	report := models.NewFlowReport(models.TestPurchaseFlow)
	var ranLast bool

	ok := NewRunner(log,
		Step{Name: "popup", Flag: models.FlagPopupAppeared, Action: fail(ResolutionTimeout, "Order bump popup did not appear")},
		Step{Name: "after", Mandatory: true, Action: func(ctx context.Context, r *models.FlowReport) Outcome {
			ranLast = true
			return Outcome{Success: true}
		}},
	).Run(context.Background(), report)

	assert.True(t, ok)
	assert.True(t, ranLast)
	assert.False(t, report.Fatal())
	assert.False(t, report.Flag(models.FlagPopupAppeared))
	assert.Equal(t, []string{"Order bump popup did not appear"}, report.Errors)
	assert.Len(t, log.warns, 1)
}

func TestRunner_MandatoryFailureAborts(t *testing.T) {
	log := &recordingLogger{}
	report := models.NewFlowReport(models.TestPurchaseFlow)
	var ranLast bool

	ok := NewRunner(log,
		Step{Name: "load", Mandatory: true, Flag: models.FlagPageLoaded, Action: succeed("")},
		Step{Name: "locate CTA", Mandatory: true, Action: fail(ResolutionTimeout, "Primary CTA button not found")},
		Step{Name: "click CTA", Mandatory: true, Flag: models.FlagPrimaryCTAClicked, Action: func(ctx context.Context, r *models.FlowReport) Outcome {
			ranLast = true
			return Outcome{Success: true}
		}},
	).Run(context.Background(), report)

	assert.False(t, ok)
	assert.False(t, ranLast, "steps after a mandatory failure must not run")
	assert.True(t, report.Fatal())
	assert.True(t, report.Flag(models.FlagPageLoaded))
	assert.False(t, report.Flag(models.FlagPrimaryCTAClicked))
	require.Len(t, report.Errors, 2)
	assert.Equal(t, "Primary CTA button not found", report.Errors[0])
	assert.Equal(t, "Aborted at step 2 (locate CTA): resolution timeout", report.Errors[1])
	assert.Len(t, log.errs, 1)
}

func TestRunner_PanicBecomesActionFailure(t *testing.T) {
	report := models.NewFlowReport(models.TestPurchaseFlow)

	ok := NewRunner(nil,
		Step{Name: "boom", Mandatory: true, Action: func(ctx context.Context, r *models.FlowReport) Outcome {
			panic("driver crashed")
		}},
	).Run(context.Background(), report)

	assert.False(t, ok)
	require.Len(t, report.Errors, 2)
	assert.Equal(t, "Unexpected error: driver crashed", report.Errors[0])
	assert.Contains(t, report.Errors[1], "action failure")
}

func TestRunner_StepTimeoutBoundsAction(t *testing.T) {
	report := models.NewFlowReport(models.TestPurchaseFlow)

	ok := NewRunner(nil,
		Step{Name: "slow", Mandatory: true, Timeout: 10 * time.Millisecond, Action: func(ctx context.Context, r *models.FlowReport) Outcome {
			<-ctx.Done()
			return Outcome{Err: NewStepError(ResolutionTimeout, "slow", "gave up", ctx.Err())}
		}},
	).Run(context.Background(), report)

	assert.False(t, ok)
	require.NotEmpty(t, report.Errors)
	assert.Contains(t, report.Errors[0], context.DeadlineExceeded.Error())
}

func TestRunner_FailureWithoutErrorStillRecorded(t *testing.T) {
	report := models.NewFlowReport(models.TestPurchaseFlow)

	NewRunner(nil,
		Step{Name: "quiet", Action: func(ctx context.Context, r *models.FlowReport) Outcome { return Outcome{} }},
		Step{Name: "missing action"},
	).Run(context.Background(), report)

	require.Len(t, report.Errors, 2)
	assert.Equal(t, `step "quiet" failed`, report.Errors[0])
	assert.Equal(t, "step has no action", report.Errors[1])
}

func TestRunner_ErrorIsClassified(t *testing.T) {
	var got error
	NewRunner(nil, Step{Name: "nav", Mandatory: true, Action: func(ctx context.Context, r *models.FlowReport) Outcome {
		got = NewStepError(NavigationFailure, "nav", "Failed to load page", errors.New("net::ERR_NAME_NOT_RESOLVED"))
		return Outcome{Err: got}
	}}).Run(context.Background(), models.NewFlowReport(models.TestPurchaseFlow))

	assert.True(t, IsNavigationFailure(got))
}
