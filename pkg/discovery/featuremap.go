package discovery

import (
	"context"

	"github.com/pilotlabs/webops/pkg/types"
)

// mapFeatures queries the authenticated page for its capabilities. All
// sub-queries are independent and best-effort: a failing sub-query yields
// its zero value and never aborts the phase.
func (p *Pipeline) mapFeatures(ctx context.Context, contextID string) *types.ServiceCapabilities {
	caps := &types.ServiceCapabilities{
		PrimaryOperation: types.OperationGeneric,
	}

	var classification struct {
		PrimaryOperation string `json:"primary_operation"`
	}
	err := p.driver.QueryPage(ctx, contextID,
		`Classify the primary operation this service exposes. Answer as {"primary_operation": "<value>"} where <value> is one of: chat, image_generation, code_execution, search, embedding, completion, generic.`,
		&classification)
	if err != nil {
		p.logger.Debugf("primary operation classification failed: %v", err)
	} else if op := types.PrimaryOperation(classification.PrimaryOperation); validPrimaryOperation(op) {
		caps.PrimaryOperation = op
	}

	var models struct {
		Models []string `json:"models"`
	}
	err = p.driver.QueryPage(ctx, contextID,
		`List the AI model names this page lets the user choose from, in the order they appear. Answer as {"models": ["name", ...]}; use an empty list if there is no model choice.`,
		&models)
	if err != nil {
		p.logger.Debugf("model listing failed: %v", err)
	} else {
		caps.AvailableModels = models.Models
	}

	var features struct {
		Features []types.FeatureControl `json:"features"`
	}
	err = p.driver.QueryPage(ctx, contextID,
		`List the configurable controls on this page. Answer as {"features": [{"kind": "<model_selector|toggle|slider>", "label": "<visible label>", "selector": "<css selector>"}, ...]}.`,
		&features)
	if err != nil {
		p.logger.Debugf("feature listing failed: %v", err)
	} else {
		caps.Features = features.Features
	}

	if input, err := p.driver.FindElement(ctx, contextID, "main text input for submitting a request to the service"); err == nil && input.Found {
		caps.InputSelector = input.Selector
	}
	if submit, err := p.driver.FindElement(ctx, contextID, "button that submits the main input"); err == nil && submit.Found {
		caps.SubmitSelector = submit.Selector
	}
	if output, err := p.driver.FindElement(ctx, contextID, "region where the service's response appears"); err == nil && output.Found {
		caps.OutputSelector = output.Selector
	}
	if upload, err := p.driver.FindElement(ctx, contextID, "file upload or attachment input"); err == nil && upload.Found {
		caps.HasFileUpload = true
	}

	return caps
}

func validPrimaryOperation(op types.PrimaryOperation) bool {
	switch op {
	case types.OperationChat, types.OperationImageGeneration, types.OperationCodeExecution,
		types.OperationSearch, types.OperationEmbedding, types.OperationCompletion, types.OperationGeneric:
		return true
	}
	return false
}
