package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"
)

// UpdateLastUsed updates the LastUsedAt timestamp to the current time.
func (s *Session) UpdateLastUsed() {
	s.LastUsedAt = time.Now()
}

// Navigate navigates the session's page to the specified URL.
func (s *Session) Navigate(url string) error {
	s.UpdateLastUsed()

	waitUntil := playwright.WaitUntilStateDomcontentloaded
	_, err := s.Page.Goto(url, playwright.PageGotoOptions{WaitUntil: waitUntil})
	if err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}

	s.CurrentURL = s.Page.URL()
	return nil
}

// Click clicks the element matching the selector.
func (s *Session) Click(selector string) error {
	s.UpdateLastUsed()

	if err := s.Page.Click(selector); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}

	// The click may have caused a navigation.
	s.CurrentURL = s.Page.URL()
	return nil
}

// Type fills the input matching the selector with the given text.
func (s *Session) Type(selector, text string) error {
	s.UpdateLastUsed()

	if err := s.Page.Fill(selector, text); err != nil {
		return fmt.Errorf("fill failed: %w", err)
	}
	return nil
}

// SelectOption picks the given values in the select control matching selector.
func (s *Session) SelectOption(selector string, values []string) error {
	s.UpdateLastUsed()

	_, err := s.Page.SelectOption(selector, playwright.SelectOptionValues{Values: &values})
	if err != nil {
		return fmt.Errorf("select option failed: %w", err)
	}
	return nil
}

// UploadFile attaches the files at the given paths to the input matching
// selector.
func (s *Session) UploadFile(selector string, paths []string) error {
	s.UpdateLastUsed()

	files := make([]playwright.InputFile, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read upload file %s: %w", path, err)
		}
		files = append(files, playwright.InputFile{
			Name:   filepath.Base(path),
			Buffer: data,
		})
	}

	if err := s.Page.SetInputFiles(selector, files); err != nil {
		return fmt.Errorf("file upload failed: %w", err)
	}
	return nil
}

// WaitForSelector blocks until the element appears or the timeout elapses.
func (s *Session) WaitForSelector(selector string, timeoutMs float64) error {
	s.UpdateLastUsed()

	opts := playwright.PageWaitForSelectorOptions{}
	if timeoutMs > 0 {
		opts.Timeout = &timeoutMs
	}

	if _, err := s.Page.WaitForSelector(selector, opts); err != nil {
		return fmt.Errorf("wait failed: %w", err)
	}
	return nil
}

// IsEnabled reports whether the element matching selector is enabled.
func (s *Session) IsEnabled(selector string) (bool, error) {
	s.UpdateLastUsed()

	enabled, err := s.Page.IsEnabled(selector)
	if err != nil {
		return false, fmt.Errorf("enabled check failed: %w", err)
	}
	return enabled, nil
}

// ExtractText returns the text content of the element matching selector,
// or the body text when selector is empty.
func (s *Session) ExtractText(selector string) (string, error) {
	s.UpdateLastUsed()

	if selector == "" {
		selector = "body"
	}

	element, err := s.Page.QuerySelector(selector)
	if err != nil {
		return "", fmt.Errorf("selector query failed: %w", err)
	}
	if element == nil {
		return "", fmt.Errorf("no element found matching selector: %s", selector)
	}

	content, err := element.TextContent()
	if err != nil {
		return "", fmt.Errorf("text extraction failed: %w", err)
	}
	return content, nil
}

// RawHTML returns the full HTML content of the current page.
func (s *Session) RawHTML() (string, error) {
	s.UpdateLastUsed()

	content, err := s.Page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	return content, nil
}
