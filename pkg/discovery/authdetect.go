package discovery

import (
	"context"
	"fmt"

	"github.com/pilotlabs/webops/pkg/types"
)

// oauthProviders is the fixed probe order for OAuth button detection.
var oauthProviders = []string{"google", "github", "microsoft", "apple"}

// detectAuth navigates to the service URL and probes authentication
// mechanisms in fixed priority order: form login, OAuth button, API key
// field, then a free-form AI analysis as the last resort. The first
// successful detector wins; no further detectors run after a match.
func (p *Pipeline) detectAuth(ctx context.Context, contextID, url string) (*types.AuthConfig, error) {
	if err := p.driver.Navigate(ctx, contextID, url); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", url, err)
	}

	if auth := p.detectFormLogin(ctx, contextID, url); auth != nil {
		return auth, nil
	}
	if auth := p.detectOAuth(ctx, contextID, url); auth != nil {
		return auth, nil
	}
	if auth := p.detectAPIKey(ctx, contextID, url); auth != nil {
		return auth, nil
	}

	// No detector matched; capture a free-form analysis so a human can
	// configure authentication manually.
	analysis, err := p.driver.AnalyzePage(ctx, contextID,
		"How does a user authenticate on this page? Describe the mechanism and any relevant elements.")
	if err != nil {
		return nil, fmt.Errorf("auth analysis failed: %w", err)
	}

	return &types.AuthConfig{
		Type:                 types.AuthUnknown,
		URL:                  url,
		RawAnalysis:          analysis,
		RequiresManualConfig: true,
	}, nil
}

// detectFormLogin looks for a classic email/password form. Detector errors
// are treated as "not found" so lower-priority detectors still get a turn.
func (p *Pipeline) detectFormLogin(ctx context.Context, contextID, url string) *types.AuthConfig {
	email, err := p.driver.FindElement(ctx, contextID, "email or username input field of a login form")
	if err != nil || !email.Found {
		return nil
	}

	password, err := p.driver.FindElement(ctx, contextID, "password input field of a login form")
	if err != nil || !password.Found {
		return nil
	}

	submit, err := p.driver.FindElement(ctx, contextID, "submit button of the login form")
	if err != nil {
		return nil
	}

	return &types.AuthConfig{
		Type:             types.AuthFormLogin,
		URL:              url,
		EmailSelector:    email.Selector,
		PasswordSelector: password.Selector,
		SubmitSelector:   submit.Selector,
	}
}

func (p *Pipeline) detectOAuth(ctx context.Context, contextID, url string) *types.AuthConfig {
	for _, provider := range oauthProviders {
		button, err := p.driver.FindElement(ctx, contextID,
			fmt.Sprintf("button to sign in with %s", provider))
		if err != nil || !button.Found {
			continue
		}
		return &types.AuthConfig{
			Type:           types.AuthOAuth,
			URL:            url,
			Provider:       provider,
			ButtonSelector: button.Selector,
		}
	}
	return nil
}

func (p *Pipeline) detectAPIKey(ctx context.Context, contextID, url string) *types.AuthConfig {
	field, err := p.driver.FindElement(ctx, contextID, "input field for entering an API key or access token")
	if err != nil || !field.Found {
		return nil
	}
	return &types.AuthConfig{
		Type:        types.AuthAPIKey,
		URL:         url,
		KeySelector: field.Selector,
	}
}
