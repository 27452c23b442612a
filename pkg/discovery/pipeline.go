// Package discovery drives a browser through a target web application to
// infer its authentication mechanism, capabilities, and invocation
// mechanics, and compiles the result into executable operation programs.
package discovery

import (
	"context"
	"fmt"

	"github.com/pilotlabs/webops/pkg/browser"
	"github.com/pilotlabs/webops/pkg/logging"
	"github.com/pilotlabs/webops/pkg/progress"
	"github.com/pilotlabs/webops/pkg/types"
)

// Phase identifies one stage of the discovery pipeline.
type Phase string

const (
	PhaseAuthDetect      Phase = "auth_detect"
	PhaseLogin           Phase = "login"
	PhaseFeatureMap      Phase = "feature_map"
	PhaseBuildOperations Phase = "build_operations"
	PhaseGenerateConfig  Phase = "generate_config"
	PhaseComplete        Phase = "complete"
	PhaseFailed          Phase = "failed"
)

// phaseProgress is the fixed percent ladder reported before each phase's
// work begins.
var phaseProgress = map[Phase]int{
	PhaseAuthDetect:      10,
	PhaseLogin:           30,
	PhaseFeatureMap:      50,
	PhaseBuildOperations: 70,
	PhaseGenerateConfig:  90,
	PhaseComplete:        100,
	PhaseFailed:          0,
}

// LoginFlow completes an interactive login against the current page.
// The bool result reports whether the session is authenticated; false is
// fatal to the discovery run.
type LoginFlow interface {
	CompleteLoginFlow(ctx context.Context, contextID string, auth *types.AuthConfig, creds types.Credentials) (bool, error)
}

// Pipeline runs the linear discovery state machine:
// AuthDetect → Login → FeatureMap → BuildOperations → GenerateConfig →
// Complete, with Failed reachable from any phase. A failed run persists
// nothing and yields no ServiceConfig.
type Pipeline struct {
	driver browser.Driver
	login  LoginFlow
	synth  *Synthesizer
	logger *logging.Logger
}

// NewPipeline creates a discovery pipeline over the given driver. If login
// is nil, the default flow is used.
func NewPipeline(driver browser.Driver, login LoginFlow) *Pipeline {
	if login == nil {
		login = NewFlow(driver)
	}
	logger, _ := logging.NewLogger("discovery")
	return &Pipeline{
		driver: driver,
		login:  login,
		synth:  NewSynthesizer(),
		logger: logger,
	}
}

// Discover runs the full pipeline for one service and returns its config.
// Each phase transition emits a progress event before the phase's work
// starts. The first failing phase aborts the run: a Failed event carrying
// the error text is emitted, and the error is returned wrapped in a
// DiscoveryError.
func (p *Pipeline) Discover(ctx context.Context, serviceID, url string, creds types.Credentials, contextID string, sink progress.Sink) (*types.ServiceConfig, error) {
	emit := func(phase Phase, message string) {
		sink.SendDiscoveryUpdate(serviceID, string(phase), phaseProgress[phase], message)
	}
	fail := func(phase Phase, err error) (*types.ServiceConfig, error) {
		p.logger.Errorf("service %s: phase %s failed: %v", serviceID, phase, err)
		sink.SendDiscoveryUpdate(serviceID, string(PhaseFailed), phaseProgress[PhaseFailed], err.Error())
		return nil, &types.DiscoveryError{Phase: string(phase), Err: err}
	}

	p.logger.Infof("service %s: starting discovery of %s", serviceID, url)

	emit(PhaseAuthDetect, "detecting authentication mechanism")
	auth, err := p.detectAuth(ctx, contextID, url)
	if err != nil {
		return fail(PhaseAuthDetect, err)
	}
	p.logger.Infof("service %s: detected auth type %s", serviceID, auth.Type)

	emit(PhaseLogin, "logging in")
	ok, err := p.login.CompleteLoginFlow(ctx, contextID, auth, creds)
	if err != nil {
		return fail(PhaseLogin, err)
	}
	if !ok {
		return fail(PhaseLogin, types.ErrLoginFailed)
	}

	emit(PhaseFeatureMap, "mapping service capabilities")
	caps := p.mapFeatures(ctx, contextID)
	p.logger.Infof("service %s: primary operation %s, %d models, %d features",
		serviceID, caps.PrimaryOperation, len(caps.AvailableModels), len(caps.Features))

	emit(PhaseBuildOperations, "building operation programs")
	operations := []*types.OperationStepProgram{
		p.synth.BuildChatCompletion(serviceID, caps, auth),
	}
	if img := p.synth.BuildImageGeneration(serviceID, caps, auth); img != nil {
		operations = append(operations, img)
	}

	emit(PhaseGenerateConfig, "assembling service config")
	config := &types.ServiceConfig{
		ServiceID:    serviceID,
		URL:          url,
		Auth:         *auth,
		Capabilities: *caps,
		Operations:   make(map[string]*types.OperationStepProgram, len(operations)),
	}
	for _, op := range operations {
		config.Operations[op.ID] = op
	}

	emit(PhaseComplete, fmt.Sprintf("discovery complete: %d operations", len(operations)))
	p.logger.Infof("service %s: discovery complete", serviceID)
	return config, nil
}
