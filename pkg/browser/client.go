package browser

import (
	"context"

	"github.com/pilotlabs/webops/pkg/llm"
	"github.com/pilotlabs/webops/pkg/logging"
)

// Client implements Driver on top of the session manager for page
// primitives and an LLM provider for the AI-assisted queries.
type Client struct {
	manager  *SessionManager
	provider llm.Provider
	logger   *logging.Logger
}

// NewClient creates a browser client. The provider may be nil, in which
// case the AI-assisted methods return an error.
func NewClient(manager *SessionManager, provider llm.Provider) *Client {
	logger, _ := logging.NewLogger("browser")
	return &Client{
		manager:  manager,
		provider: provider,
		logger:   logger,
	}
}

// Manager returns the underlying session manager.
func (c *Client) Manager() *SessionManager { return c.manager }

func (c *Client) session(ctx context.Context, contextID string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.manager.EnsureSession(contextID)
}

// Navigate opens the URL in the context's page.
func (c *Client) Navigate(ctx context.Context, contextID, url string) error {
	session, err := c.session(ctx, contextID)
	if err != nil {
		return err
	}
	return session.Navigate(url)
}

// Click clicks the element matching selector.
func (c *Client) Click(ctx context.Context, contextID, selector string) error {
	session, err := c.session(ctx, contextID)
	if err != nil {
		return err
	}
	return session.Click(selector)
}

// Type fills the input matching selector with text.
func (c *Client) Type(ctx context.Context, contextID, selector, text string) error {
	session, err := c.session(ctx, contextID)
	if err != nil {
		return err
	}
	return session.Type(selector, text)
}

// SelectOption picks the given values in a select control.
func (c *Client) SelectOption(ctx context.Context, contextID, selector string, values []string) error {
	session, err := c.session(ctx, contextID)
	if err != nil {
		return err
	}
	return session.SelectOption(selector, values)
}

// UploadFile attaches the files at paths to the input matching selector.
func (c *Client) UploadFile(ctx context.Context, contextID, selector string, paths []string) error {
	session, err := c.session(ctx, contextID)
	if err != nil {
		return err
	}
	return session.UploadFile(selector, paths)
}

// WaitForSelector blocks until the element appears or the timeout elapses.
func (c *Client) WaitForSelector(ctx context.Context, contextID, selector string, timeoutMs float64) error {
	session, err := c.session(ctx, contextID)
	if err != nil {
		return err
	}
	return session.WaitForSelector(selector, timeoutMs)
}

// IsEnabled reports whether the element is currently enabled.
func (c *Client) IsEnabled(ctx context.Context, contextID, selector string) (bool, error) {
	session, err := c.session(ctx, contextID)
	if err != nil {
		return false, err
	}
	return session.IsEnabled(selector)
}

// ExtractText returns the element's text content.
func (c *Client) ExtractText(ctx context.Context, contextID, selector string) (string, error) {
	session, err := c.session(ctx, contextID)
	if err != nil {
		return "", err
	}
	return session.ExtractText(selector)
}
