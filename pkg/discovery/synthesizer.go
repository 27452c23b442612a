package discovery

import (
	"strings"

	"github.com/pilotlabs/webops/pkg/types"
)

// modelSelectInsertIndex is the fixed position (immediately after the type
// step) where model-selector steps are inserted. Later insertions at the
// same index push earlier ones further down, so the last-processed
// model_selector feature ends up closest to the type step. Models must be
// selected before submission; toggles are appended instead because they are
// order-insensitive.
const modelSelectInsertIndex = 3

// Synthesizer compiles detected capabilities into operation step programs.
type Synthesizer struct{}

// NewSynthesizer creates a synthesizer.
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{}
}

// BuildChatCompletion compiles the chat_completion program for a service.
// It never fails: a missing selector is carried as an empty selector and
// surfaces as a step failure at execution time, not a synthesis failure.
func (s *Synthesizer) BuildChatCompletion(serviceID string, caps *types.ServiceCapabilities, auth *types.AuthConfig) *types.OperationStepProgram {
	steps := []types.OperationStep{
		{Action: types.StepNavigate, URL: auth.URL},
		{Action: types.StepWaitForSelector, Selector: caps.InputSelector, TimeoutMs: 10000},
		{Action: types.StepType, Selector: caps.InputSelector, Value: "{{message}}"},
	}

	if len(caps.AvailableModels) > 0 {
		steps = append(steps, types.OperationStep{
			Action:   types.StepSelectOption,
			Selector: modelSelectorFor(caps),
			Value:    "{{model}}",
			Optional: true,
		})
	}

	if caps.HasFileUpload {
		steps = append(steps, types.OperationStep{Action: types.StepUploadFileIfPresent})
	}

	steps = append(steps,
		types.OperationStep{Action: types.StepClick, Selector: caps.SubmitSelector},
		types.OperationStep{Action: types.StepWaitForResponseComplete, Selector: caps.SubmitSelector, TimeoutMs: 60000},
		types.OperationStep{Action: types.StepExtractResponse, Selector: caps.OutputSelector},
	)

	params := map[string]types.ParameterSpec{
		"message": {Type: "string", Required: true},
	}
	if len(caps.AvailableModels) > 0 {
		params["model"] = types.ParameterSpec{Type: "string", Required: false, Enum: caps.AvailableModels}
	}
	if caps.HasFileUpload {
		params["file_path"] = types.ParameterSpec{Type: "string", Required: false}
	}

	for _, feature := range caps.Features {
		switch feature.Kind {
		case types.FeatureModelSelector:
			steps = insertStep(steps, modelSelectInsertIndex, types.OperationStep{
				Action:   types.StepSelectOption,
				Selector: feature.Selector,
				Value:    "{{model}}",
				Optional: true,
			})
		case types.FeatureToggle:
			param := conditionParam(feature.Label)
			steps = append(steps, types.OperationStep{
				Action:    types.StepClick,
				Selector:  feature.Selector,
				Condition: param,
			})
			params[param] = types.ParameterSpec{Type: "boolean", Required: false}
		}
	}

	return &types.OperationStepProgram{
		ID:         "chat_completion",
		Name:       "Chat Completion",
		Parameters: params,
		Steps:      steps,
		ResponseExtraction: types.ResponseExtraction{
			Method:   types.ExtractAI,
			Selector: caps.OutputSelector,
		},
	}
}

// BuildImageGeneration compiles the image_generation program. It returns
// nil unless the service's primary operation is image generation.
func (s *Synthesizer) BuildImageGeneration(serviceID string, caps *types.ServiceCapabilities, auth *types.AuthConfig) *types.OperationStepProgram {
	if caps.PrimaryOperation != types.OperationImageGeneration {
		return nil
	}

	steps := []types.OperationStep{
		{Action: types.StepNavigate, URL: auth.URL},
		{Action: types.StepType, Selector: caps.InputSelector, Value: "{{prompt}}"},
		{Action: types.StepClick, Selector: caps.SubmitSelector},
		{Action: types.StepWaitForResponseComplete, Selector: caps.SubmitSelector, TimeoutMs: 120000},
		{Action: types.StepExtractResponse, Selector: caps.OutputSelector},
	}

	return &types.OperationStepProgram{
		ID:   "image_generation",
		Name: "Image Generation",
		Parameters: map[string]types.ParameterSpec{
			"prompt": {Type: "string", Required: true},
		},
		Steps: steps,
		ResponseExtraction: types.ResponseExtraction{
			Method:   types.ExtractAI,
			Selector: caps.OutputSelector,
		},
	}
}

// insertStep inserts step at index, shifting later steps down. Insertion is
// position-stable: it never reorders what is already there.
func insertStep(steps []types.OperationStep, index int, step types.OperationStep) []types.OperationStep {
	if index > len(steps) {
		index = len(steps)
	}
	steps = append(steps, types.OperationStep{})
	copy(steps[index+1:], steps[index:])
	steps[index] = step
	return steps
}

// modelSelectorFor returns the selector of the first model_selector feature,
// or empty when the page exposes models without a located control.
func modelSelectorFor(caps *types.ServiceCapabilities) string {
	for _, feature := range caps.Features {
		if feature.Kind == types.FeatureModelSelector {
			return feature.Selector
		}
	}
	return ""
}

// conditionParam derives the runtime parameter name a toggle step is gated
// on: the feature label lower-cased with spaces replaced by underscores.
func conditionParam(label string) string {
	return strings.ReplaceAll(strings.ToLower(label), " ", "_")
}
