package browser

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// SessionManager owns the shared Playwright browser instance and the set of
// per-service contexts running inside it. All services share one browser
// process; isolation comes from browser contexts, keyed by context id.
type SessionManager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	pw          *playwright.Playwright
	browser     playwright.Browser
	headless    bool
	maxSessions int
	initialized bool
}

// NewSessionManager creates a new session manager.
func NewSessionManager(headless bool) *SessionManager {
	return &SessionManager{
		sessions:    make(map[string]*Session),
		headless:    headless,
		maxSessions: DefaultMaxSessions,
	}
}

// SetMaxSessions overrides the concurrent session cap. Existing sessions
// above the new cap are left alone; only new ones are refused.
func (m *SessionManager) SetMaxSessions(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > 0 {
		m.maxSessions = n
	}
}

// Initialize installs and starts Playwright and launches the shared browser.
// Must be called before creating any sessions.
func (m *SessionManager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	// Discard driver output so it does not interleave with our logs.
	opts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if err := playwright.Install(opts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: &m.headless,
	})
	if err != nil {
		pw.Stop()
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	m.pw = pw
	m.browser = browser
	m.initialized = true
	return nil
}

// StartSession creates a new isolated context for the given context id.
func (m *SessionManager) StartSession(contextID string, opts SessionOptions) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[contextID]; exists {
		return nil, fmt.Errorf("session %q already exists", contextID)
	}
	if len(m.sessions) >= m.maxSessions {
		return nil, fmt.Errorf("maximum number of sessions (%d) reached", m.maxSessions)
	}
	if !m.initialized {
		return nil, fmt.Errorf("session manager not initialized")
	}

	if opts.Viewport == nil {
		opts.Viewport = &Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight}
	}
	if opts.TimeoutMs == 0 {
		opts.TimeoutMs = DefaultTimeoutMs
	}

	context, err := m.browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.Viewport.Width,
			Height: opts.Viewport.Height,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := context.NewPage()
	if err != nil {
		context.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(opts.TimeoutMs)

	now := time.Now()
	session := &Session{
		ContextID:  contextID,
		Context:    context,
		Page:       page,
		CreatedAt:  now,
		LastUsedAt: now,
		CurrentURL: "about:blank",
	}

	m.sessions[contextID] = session
	return session, nil
}

// Session retrieves an active session by context id.
func (m *SessionManager) Session(contextID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[contextID]
	if !exists {
		return nil, fmt.Errorf("session %q not found", contextID)
	}
	return session, nil
}

// EnsureSession returns the session for contextID, creating it with default
// options if it does not exist yet.
func (m *SessionManager) EnsureSession(contextID string) (*Session, error) {
	if session, err := m.Session(contextID); err == nil {
		return session, nil
	}
	return m.StartSession(contextID, SessionOptions{})
}

// CloseSession closes and removes a session's context.
func (m *SessionManager) CloseSession(contextID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[contextID]
	if !exists {
		return fmt.Errorf("session %q not found", contextID)
	}

	_ = session.Page.Close() // ignore errors, continue cleanup
	_ = session.Context.Close()

	delete(m.sessions, contextID)
	return nil
}

// HasSessions returns true if there are any active sessions.
func (m *SessionManager) HasSessions() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions) > 0
}

// Shutdown closes all sessions, the shared browser, and Playwright.
func (m *SessionManager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for contextID, session := range m.sessions {
		session.Page.Close()
		session.Context.Close()
		delete(m.sessions, contextID)
	}

	if m.browser != nil {
		m.browser.Close()
		m.browser = nil
	}

	if m.initialized && m.pw != nil {
		if err := m.pw.Stop(); err != nil {
			return fmt.Errorf("failed to stop playwright: %w", err)
		}
		m.initialized = false
	}

	return nil
}
