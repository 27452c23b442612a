// Package executor runs compiled operation programs against a browser,
// one queued task at a time per service.
package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pilotlabs/webops/pkg/browser"
	"github.com/pilotlabs/webops/pkg/logging"
	"github.com/pilotlabs/webops/pkg/types"
)

// pollInterval is the completion-polling cadence. Most chat-style UIs
// disable their submit control while a response is generating and re-enable
// it on completion, so polling enabled-state is a UI-agnostic completion
// signal that avoids fixed sleeps.
const pollInterval = 500 * time.Millisecond

// OperationExecutor executes one operation program at a time against a
// browser context.
type OperationExecutor struct {
	driver browser.Driver
	clock  Clock
	logger *logging.Logger
}

// NewOperationExecutor creates an executor over the given driver using the
// wall clock.
func NewOperationExecutor(driver browser.Driver) *OperationExecutor {
	logger, _ := logging.NewLogger("executor")
	return &OperationExecutor{
		driver: driver,
		clock:  NewClock(),
		logger: logger,
	}
}

// WithClock overrides the executor's clock. Intended for tests.
func (e *OperationExecutor) WithClock(clock Clock) *OperationExecutor {
	e.clock = clock
	return e
}

// Execute runs the program's steps in order with the given parameters and
// returns the extracted response. A failing non-optional step aborts the
// run with a StepExecutionError; a canceled context propagates out without
// corrupting any task state the caller has committed.
func (e *OperationExecutor) Execute(ctx context.Context, program *types.OperationStepProgram, params map[string]interface{}, contextID string) (string, error) {
	var result string

	for i, step := range program.Steps {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		if step.Condition != "" && !truthy(params[step.Condition]) {
			e.logger.Debugf("step %d (%s): condition %q false, skipping", i, step.Action, step.Condition)
			continue
		}

		stepResult, err := e.runStep(ctx, contextID, program, step, params)
		if err != nil {
			return "", &types.StepExecutionError{Index: i, Action: step.Action, Err: err}
		}
		if step.Action == types.StepExtractResponse {
			result = stepResult
		}
	}

	return result, nil
}

// runStep dispatches one step to exactly one browser primitive.
func (e *OperationExecutor) runStep(ctx context.Context, contextID string, program *types.OperationStepProgram, step types.OperationStep, params map[string]interface{}) (string, error) {
	switch step.Action {
	case types.StepNavigate:
		return "", e.driver.Navigate(ctx, contextID, step.URL)

	case types.StepWaitForSelector:
		return "", e.driver.WaitForSelector(ctx, contextID, step.Selector, step.TimeoutMs)

	case types.StepType:
		return "", e.driver.Type(ctx, contextID, step.Selector, substituteParams(step.Value, params))

	case types.StepClick:
		return "", e.driver.Click(ctx, contextID, step.Selector)

	case types.StepSelectOption:
		value := substituteParams(step.Value, params)
		if step.Optional && strings.Contains(value, "{{") {
			// The parameter backing this optional step was not supplied;
			// skip without touching the browser.
			return "", nil
		}
		return "", e.driver.SelectOption(ctx, contextID, step.Selector, []string{value})

	case types.StepUploadFileIfPresent:
		return "", e.uploadIfPresent(ctx, contextID, params)

	case types.StepWaitForResponseComplete:
		return "", e.waitForResponseComplete(ctx, contextID, step)

	case types.StepExtractResponse:
		return e.extractResponse(ctx, contextID, program, step)

	default:
		e.logger.Warnf("unrecognized step action %q, skipping", step.Action)
		return "", nil
	}
}

// uploadIfPresent attaches the file named by the file_path parameter when
// both the parameter and an upload input exist; otherwise it is a no-op.
func (e *OperationExecutor) uploadIfPresent(ctx context.Context, contextID string, params map[string]interface{}) error {
	path, _ := params["file_path"].(string)
	if path == "" {
		return nil
	}

	match, err := e.driver.FindElement(ctx, contextID, "file upload or attachment input")
	if err != nil || !match.Found {
		e.logger.Debugf("no upload input located, skipping file attachment")
		return nil
	}

	return e.driver.UploadFile(ctx, contextID, match.Selector, []string{path})
}

// waitForResponseComplete polls the submit control's enabled state every
// pollInterval until it reports enabled or the step's timeout elapses.
func (e *OperationExecutor) waitForResponseComplete(ctx context.Context, contextID string, step types.OperationStep) error {
	deadline := e.clock.Now().Add(time.Duration(step.TimeoutMs) * time.Millisecond)

	for {
		enabled, err := e.driver.IsEnabled(ctx, contextID, step.Selector)
		if err != nil {
			e.logger.Debugf("enabled poll failed: %v", err)
		} else if enabled {
			return nil
		}

		if e.clock.Now().After(deadline) {
			return &types.ResponseTimeoutError{TimeoutMs: step.TimeoutMs}
		}
		if err := e.clock.Sleep(ctx, pollInterval); err != nil {
			return err
		}
	}
}

// extractResponse reads the operation's result via the fallback chain:
// AI-semantic extraction first, plain text second, ExtractionFailure last.
func (e *OperationExecutor) extractResponse(ctx context.Context, contextID string, program *types.OperationStepProgram, step types.OperationStep) (string, error) {
	selector := step.Selector
	if selector == "" {
		selector = program.ResponseExtraction.Selector
	}

	if program.ResponseExtraction.Method == types.ExtractAI {
		content, err := e.driver.ExtractWithAI(ctx, contextID, selector,
			"Extract the service's response to the user's request. Return the response content only.")
		if err != nil {
			e.logger.Debugf("ai extraction failed, falling back to text: %v", err)
		} else if strings.TrimSpace(content) != "" {
			return content, nil
		} else {
			e.logger.Debugf("ai extraction returned empty content, falling back to text")
		}
	}

	text, err := e.driver.ExtractText(ctx, contextID, selector)
	if err != nil {
		e.logger.Debugf("text extraction failed: %v", err)
		return "", types.ErrExtractionFailed
	}
	if strings.TrimSpace(text) == "" {
		return "", types.ErrExtractionFailed
	}
	return text, nil
}

// substituteParams replaces {{name}} templates with the corresponding
// runtime parameter, verbatim and without escaping. A missing parameter
// leaves its template untouched.
func substituteParams(value string, params map[string]interface{}) string {
	for name, v := range params {
		value = strings.ReplaceAll(value, "{{"+name+"}}", fmt.Sprintf("%v", v))
	}
	return value
}

// truthy reports whether a condition parameter enables its step.
func truthy(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != "" && val != "false" && val != "0"
	case int:
		return val != 0
	case float64:
		return val != 0
	default:
		return true
	}
}
