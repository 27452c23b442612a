package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilotlabs/webops/pkg/browser"
	"github.com/pilotlabs/webops/pkg/types"
)

// fakeDriver scripts the AI-assisted browser surface. Unset hooks behave
// as benign no-ops so each test only scripts what it cares about.
type fakeDriver struct {
	navigateErr error
	elements    map[string]string // description substring -> selector
	queries     map[string]string // question substring -> JSON answer
	analysis    string
}

func (d *fakeDriver) Navigate(ctx context.Context, contextID, url string) error {
	return d.navigateErr
}

func (d *fakeDriver) Click(ctx context.Context, contextID, selector string) error { return nil }

func (d *fakeDriver) Type(ctx context.Context, contextID, selector, text string) error { return nil }

func (d *fakeDriver) SelectOption(ctx context.Context, contextID, selector string, values []string) error {
	return nil
}

func (d *fakeDriver) UploadFile(ctx context.Context, contextID, selector string, paths []string) error {
	return nil
}

func (d *fakeDriver) WaitForSelector(ctx context.Context, contextID, selector string, timeoutMs float64) error {
	return nil
}

func (d *fakeDriver) IsEnabled(ctx context.Context, contextID, selector string) (bool, error) {
	return true, nil
}

func (d *fakeDriver) ExtractText(ctx context.Context, contextID, selector string) (string, error) {
	return "", nil
}

func (d *fakeDriver) FindElement(ctx context.Context, contextID, description string) (browser.ElementMatch, error) {
	for substr, selector := range d.elements {
		if strings.Contains(description, substr) {
			return browser.ElementMatch{Found: true, Selector: selector}, nil
		}
	}
	return browser.ElementMatch{}, nil
}

func (d *fakeDriver) AnalyzePage(ctx context.Context, contextID, question string) (string, error) {
	return d.analysis, nil
}

func (d *fakeDriver) QueryPage(ctx context.Context, contextID, question string, out interface{}) error {
	for substr, answer := range d.queries {
		if strings.Contains(question, substr) {
			return json.Unmarshal([]byte(answer), out)
		}
	}
	return fmt.Errorf("no scripted answer")
}

func (d *fakeDriver) ExtractWithAI(ctx context.Context, contextID, selector, prompt string) (string, error) {
	return "", nil
}


// stubLogin is a scriptable LoginFlow.
type stubLogin struct {
	ok  bool
	err error
}

func (s *stubLogin) CompleteLoginFlow(ctx context.Context, contextID string, auth *types.AuthConfig, creds types.Credentials) (bool, error) {
	return s.ok, s.err
}

// recordingSink captures every progress event in order.
type recordingSink struct {
	mu     sync.Mutex
	events []discoveryEvent
}

type discoveryEvent struct {
	status   string
	progress int
	message  string
}

func (s *recordingSink) SendDiscoveryUpdate(serviceID, status string, progress int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, discoveryEvent{status, progress, message})
}

func (s *recordingSink) SendExecutionLog(serviceID, level, message string) {}

func (s *recordingSink) snapshot() []discoveryEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]discoveryEvent(nil), s.events...)
}

func chatPageDriver() *fakeDriver {
	return &fakeDriver{
		elements: map[string]string{
			"email or username": "#email",
			"password input":    "#password",
			"submit button of":  "#login-submit",
			"main text input":   "#chat-input",
			"submits the main":  "#send",
			"response appears":  "#response",
		},
		queries: map[string]string{
			"primary operation": `{"primary_operation": "chat"}`,
			"model names":       `{"models": ["gpt-x", "gpt-y"]}`,
			"configurable":      `{"features": []}`,
		},
	}
}

func TestDiscoverSuccess(t *testing.T) {
	driver := chatPageDriver()
	sink := &recordingSink{}
	pipeline := NewPipeline(driver, &stubLogin{ok: true})

	config, err := pipeline.Discover(context.Background(), "svc-1", "https://svc", types.Credentials{}, "svc-1", sink)
	require.NoError(t, err)
	require.NotNil(t, config)

	assert.Equal(t, "svc-1", config.ServiceID)
	assert.Equal(t, "https://svc", config.URL)
	assert.Equal(t, types.AuthFormLogin, config.Auth.Type)
	assert.Equal(t, "#email", config.Auth.EmailSelector)

	assert.Equal(t, types.OperationChat, config.Capabilities.PrimaryOperation)
	assert.Equal(t, []string{"gpt-x", "gpt-y"}, config.Capabilities.AvailableModels)
	assert.Equal(t, "#chat-input", config.Capabilities.InputSelector)

	require.Contains(t, config.Operations, "chat_completion")
	assert.NotContains(t, config.Operations, "image_generation")

	events := sink.snapshot()
	require.Len(t, events, 6)
	wantProgress := []int{10, 30, 50, 70, 90, 100}
	wantStatus := []string{"auth_detect", "login", "feature_map", "build_operations", "generate_config", "complete"}
	for i, event := range events {
		assert.Equal(t, wantStatus[i], event.status)
		assert.Equal(t, wantProgress[i], event.progress)
	}
}

func TestDiscoverImageServiceGetsImageOperation(t *testing.T) {
	driver := chatPageDriver()
	driver.queries["primary operation"] = `{"primary_operation": "image_generation"}`
	pipeline := NewPipeline(driver, &stubLogin{ok: true})

	config, err := pipeline.Discover(context.Background(), "img-1", "https://img", types.Credentials{}, "img-1", &recordingSink{})
	require.NoError(t, err)
	assert.Contains(t, config.Operations, "chat_completion")
	assert.Contains(t, config.Operations, "image_generation")
}

func TestDiscoverFailedLoginProducesNoConfig(t *testing.T) {
	driver := chatPageDriver()
	sink := &recordingSink{}
	pipeline := NewPipeline(driver, &stubLogin{ok: false})

	config, err := pipeline.Discover(context.Background(), "svc-1", "https://svc", types.Credentials{}, "svc-1", sink)
	assert.Nil(t, config)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrLoginFailed)

	var discErr *types.DiscoveryError
	require.ErrorAs(t, err, &discErr)
	assert.Equal(t, "login", discErr.Phase)

	events := sink.snapshot()
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, "failed", last.status)
	assert.Equal(t, 0, last.progress)
}

func TestDiscoverLoginErrorPropagates(t *testing.T) {
	driver := chatPageDriver()
	loginErr := errors.New("captcha wall")
	pipeline := NewPipeline(driver, &stubLogin{err: loginErr})

	config, err := pipeline.Discover(context.Background(), "svc-1", "https://svc", types.Credentials{}, "svc-1", &recordingSink{})
	assert.Nil(t, config)
	assert.ErrorIs(t, err, loginErr)
}

func TestDiscoverNavigationFailureFailsAuthDetect(t *testing.T) {
	driver := &fakeDriver{navigateErr: errors.New("dns failure")}
	sink := &recordingSink{}
	pipeline := NewPipeline(driver, &stubLogin{ok: true})

	config, err := pipeline.Discover(context.Background(), "svc-1", "https://svc", types.Credentials{}, "svc-1", sink)
	assert.Nil(t, config)
	require.Error(t, err)

	var discErr *types.DiscoveryError
	require.ErrorAs(t, err, &discErr)
	assert.Equal(t, "auth_detect", discErr.Phase)

	events := sink.snapshot()
	require.Len(t, events, 2)
	assert.Equal(t, "auth_detect", events[0].status)
	assert.Equal(t, "failed", events[1].status)
	assert.Equal(t, 0, events[1].progress)
}

func TestDetectAuthFallsBackToAnalysis(t *testing.T) {
	driver := &fakeDriver{analysis: "SSO portal behind a corporate gateway"}
	pipeline := NewPipeline(driver, &stubLogin{ok: true})

	auth, err := pipeline.detectAuth(context.Background(), "ctx", "https://svc")
	require.NoError(t, err)
	assert.Equal(t, types.AuthUnknown, auth.Type)
	assert.True(t, auth.RequiresManualConfig)
	assert.Equal(t, "SSO portal behind a corporate gateway", auth.RawAnalysis)
}

func TestDetectAuthOAuthProbeOrder(t *testing.T) {
	driver := &fakeDriver{
		elements: map[string]string{
			"sign in with github": "#gh-button",
			"sign in with apple":  "#apple-button",
		},
	}
	pipeline := NewPipeline(driver, &stubLogin{ok: true})

	auth, err := pipeline.detectAuth(context.Background(), "ctx", "https://svc")
	require.NoError(t, err)
	assert.Equal(t, types.AuthOAuth, auth.Type)
	// google is probed first but not present; github wins over apple.
	assert.Equal(t, "github", auth.Provider)
	assert.Equal(t, "#gh-button", auth.ButtonSelector)
}

func TestMapFeaturesBestEffort(t *testing.T) {
	// Every query fails and no element is found: capabilities degrade to
	// zero values instead of aborting.
	driver := &fakeDriver{}
	pipeline := NewPipeline(driver, &stubLogin{ok: true})

	caps := pipeline.mapFeatures(context.Background(), "ctx")
	assert.Equal(t, types.OperationGeneric, caps.PrimaryOperation)
	assert.Empty(t, caps.AvailableModels)
	assert.Empty(t, caps.Features)
	assert.Empty(t, caps.InputSelector)
	assert.False(t, caps.HasFileUpload)
}
