package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanHTMLDropsNoise(t *testing.T) {
	raw := `<html><head>
		<script>alert("x")</script>
		<style>.a{color:red}</style>
		<meta charset="utf-8">
	</head><body>
		<!-- a comment -->
		<div id="chat" class="main" onclick="doThing()">Hello</div>
		<svg><path d="M0 0"/></svg>
	</body></html>`

	cleaned, err := cleanHTML(raw, 10000)
	require.NoError(t, err)

	assert.NotContains(t, cleaned, "alert")
	assert.NotContains(t, cleaned, "color:red")
	assert.NotContains(t, cleaned, "a comment")
	assert.NotContains(t, cleaned, "svg")
	assert.NotContains(t, cleaned, "onclick")

	assert.Contains(t, cleaned, `id="chat"`)
	assert.Contains(t, cleaned, `class="main"`)
	assert.Contains(t, cleaned, "Hello")
}

func TestCleanHTMLKeepsTargetingAttributes(t *testing.T) {
	raw := `<input type="text" placeholder="Ask anything" data-testid="chat-input" style="width:100%" tabindex="3">`

	cleaned, err := cleanHTML(raw, 10000)
	require.NoError(t, err)

	assert.Contains(t, cleaned, `type="text"`)
	assert.Contains(t, cleaned, `placeholder="Ask anything"`)
	assert.Contains(t, cleaned, `data-testid="chat-input"`)
	assert.NotContains(t, cleaned, "style=")
	assert.NotContains(t, cleaned, "tabindex")
}

func TestCleanHTMLTruncates(t *testing.T) {
	var raw string
	for i := 0; i < 200; i++ {
		raw += "<p>some repeated filler content for the page body</p>"
	}

	cleaned, err := cleanHTML(raw, 500)
	require.NoError(t, err)

	// The budget bounds where new content stops being appended, with slack
	// for closing tags already on the stack.
	assert.Less(t, len(cleaned), 1000)
}

func TestStripJSONFences(t *testing.T) {
	assert.Equal(t, `{"found": true}`, stripJSONFences(`{"found": true}`))
	assert.Equal(t, `{"found": true}`, stripJSONFences("```json\n{\"found\": true}\n```"))
	assert.Equal(t, `{"found": true}`, stripJSONFences("```\n{\"found\": true}\n```"))
	assert.Equal(t, `{"found": true}`, stripJSONFences("  {\"found\": true}  "))
}
