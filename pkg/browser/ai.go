package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pilotlabs/webops/pkg/types"
)

// FindElement asks the AI to locate an element from a natural-language
// description. Found=false with a nil error means the page simply has no
// such element.
func (c *Client) FindElement(ctx context.Context, contextID, description string) (ElementMatch, error) {
	prompt := fmt.Sprintf(`Locate the element described below on this page. Respond with JSON only, no prose:
{"found": true|false, "selector": "<css selector>"}

Use id, name, data-* or aria attributes for the selector where available. If no matching element exists, respond {"found": false, "selector": ""}.

Element description: %s`, description)

	var match ElementMatch
	if err := c.QueryPage(ctx, contextID, prompt, &match); err != nil {
		return ElementMatch{}, err
	}
	return match, nil
}

// AnalyzePage asks the AI a free-form question about the current page and
// returns its plain-text answer.
func (c *Client) AnalyzePage(ctx context.Context, contextID, question string) (string, error) {
	pageContext, err := c.pageContext(ctx, contextID)
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf("%s\n\nQuestion: %s\n\nAnswer concisely in plain text.", pageContext, question)
	return c.callModel(ctx, prompt)
}

// QueryPage asks the AI a question about the current page, demanding a
// strict-JSON answer, and unmarshals it into out.
func (c *Client) QueryPage(ctx context.Context, contextID, question string, out interface{}) error {
	pageContext, err := c.pageContext(ctx, contextID)
	if err != nil {
		return err
	}

	prompt := fmt.Sprintf("%s\n\n%s\n\nRespond with valid JSON only. No markdown, no explanations.", pageContext, question)
	answer, err := c.callModel(ctx, prompt)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(stripJSONFences(answer)), out); err != nil {
		return fmt.Errorf("model returned malformed JSON: %w", err)
	}
	return nil
}

// ExtractWithAI reads the element matching selector semantically, guided by
// prompt, and returns the extracted content.
func (c *Client) ExtractWithAI(ctx context.Context, contextID, selector, prompt string) (string, error) {
	session, err := c.session(ctx, contextID)
	if err != nil {
		return "", err
	}

	text, err := session.ExtractText(selector)
	if err != nil {
		return "", err
	}

	fullPrompt := fmt.Sprintf(`%s

Element content:
"""
%s
"""

Return only the extracted content, nothing else.`, prompt, text)

	return c.callModel(ctx, fullPrompt)
}

// pageContext builds the cleaned-HTML context block shared by all AI queries.
func (c *Client) pageContext(ctx context.Context, contextID string) (string, error) {
	session, err := c.session(ctx, contextID)
	if err != nil {
		return "", err
	}

	raw, err := session.RawHTML()
	if err != nil {
		return "", err
	}

	cleaned, err := cleanHTML(raw, DefaultAnalysisLength)
	if err != nil {
		return "", err
	}

	title, _ := session.Page.Title()

	var b strings.Builder
	b.WriteString("You are analyzing a web page.\n")
	b.WriteString(fmt.Sprintf("URL: %s\n", session.Page.URL()))
	b.WriteString(fmt.Sprintf("Title: %s\n\n", title))
	b.WriteString("Page HTML (cleaned, with semantic structure and targeting attributes):\n")
	b.WriteString("```html\n")
	b.WriteString(cleaned)
	b.WriteString("\n```")
	return b.String(), nil
}

func (c *Client) callModel(ctx context.Context, prompt string) (string, error) {
	if c.provider == nil {
		return "", fmt.Errorf("LLM provider not available")
	}

	response, err := c.provider.Complete(ctx, []*types.Message{types.NewUserMessage(prompt)})
	if err != nil {
		return "", fmt.Errorf("LLM call failed: %w", err)
	}
	return strings.TrimSpace(response.Content), nil
}

// stripJSONFences removes a surrounding markdown code fence, which models
// emit even when told not to.
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
