package browser

import (
	"context"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Session represents one isolated browser context and its active page.
// Contexts keep concurrent services from interfering with one another:
// a context id maps one-to-one to a service id, and each service's queue
// processes work sequentially, so no two concurrent operations ever target
// the same context.
type Session struct {
	// ContextID is the unique identifier for this session's context.
	ContextID string

	// Context is the isolated browser context.
	Context playwright.BrowserContext

	// Page is the current active page.
	Page playwright.Page

	// CreatedAt is the timestamp when the session was created.
	CreatedAt time.Time

	// LastUsedAt is the timestamp of the last operation on this session.
	LastUsedAt time.Time

	// CurrentURL is the URL of the current page.
	CurrentURL string
}

// SessionOptions configures a new browser session.
type SessionOptions struct {
	// Viewport sets the initial viewport size.
	Viewport *Viewport

	// TimeoutMs sets the default timeout for page operations.
	TimeoutMs float64
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// ElementMatch is the result of an AI-assisted element lookup.
type ElementMatch struct {
	// Found reports whether a matching element was identified.
	Found bool `json:"found"`

	// Selector is a CSS selector targeting the element, when found.
	Selector string `json:"selector"`
}

// Driver is the capability surface the discovery pipeline and operation
// executor depend on. Every method targets one context id; implementations
// must not share page state between contexts.
type Driver interface {
	// Navigate opens the URL in the context's page.
	Navigate(ctx context.Context, contextID, url string) error

	// Click clicks the element matching selector.
	Click(ctx context.Context, contextID, selector string) error

	// Type fills the input matching selector with text.
	Type(ctx context.Context, contextID, selector, text string) error

	// SelectOption picks the given values in a select control.
	SelectOption(ctx context.Context, contextID, selector string, values []string) error

	// UploadFile attaches the files at paths to the input matching selector.
	UploadFile(ctx context.Context, contextID, selector string, paths []string) error

	// WaitForSelector blocks until the element appears or the timeout elapses.
	WaitForSelector(ctx context.Context, contextID, selector string, timeoutMs float64) error

	// IsEnabled reports whether the element is currently enabled.
	IsEnabled(ctx context.Context, contextID, selector string) (bool, error)

	// ExtractText returns the element's text content.
	ExtractText(ctx context.Context, contextID, selector string) (string, error)

	// FindElement asks the AI to locate an element from a natural-language
	// description and returns a selector for it.
	FindElement(ctx context.Context, contextID, description string) (ElementMatch, error)

	// AnalyzePage asks the AI a free-form question about the current page.
	AnalyzePage(ctx context.Context, contextID, question string) (string, error)

	// QueryPage asks the AI a question about the current page and
	// unmarshals its strict-JSON answer into out.
	QueryPage(ctx context.Context, contextID, question string, out interface{}) error

	// ExtractWithAI reads the element semantically, guided by prompt.
	ExtractWithAI(ctx context.Context, contextID, selector, prompt string) (string, error)
}

// Default values for session management.
const (
	DefaultTimeoutMs      = 30000.0
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
	DefaultMaxSessions    = 10
	DefaultAnalysisLength = 50000 // cleaned-HTML budget for AI analysis
)
