package browser

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// targetingAttrs are the attributes worth keeping for selector construction.
var targetingAttrs = map[string]bool{
	"id":          true,
	"class":       true,
	"name":        true,
	"type":        true,
	"placeholder": true,
	"value":       true,
	"href":        true,
	"role":        true,
	"aria-label":  true,
	"data-testid": true,
	"disabled":    true,
}

// skippedElements are noise elements removed entirely, subtree included.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"svg":      true,
	"iframe":   true,
	"link":     true,
	"meta":     true,
	"template": true,
}

// cleanHTML reduces raw page HTML to a compact rendition that preserves
// semantic structure and targeting attributes while dropping scripts,
// styles, and other noise. Output is truncated at maxLength characters.
func cleanHTML(rawHTML string, maxLength int) (string, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	var builder strings.Builder
	cleanNode(doc, &builder, maxLength)
	return builder.String(), nil
}

func cleanNode(n *html.Node, builder *strings.Builder, maxLength int) {
	if builder.Len() >= maxLength {
		return
	}

	switch n.Type {
	case html.CommentNode:
		return
	case html.TextNode:
		text := strings.TrimSpace(n.Data)
		if text != "" {
			builder.WriteString(text)
			builder.WriteString(" ")
		}
		return
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if skippedElements[tag] {
			return
		}

		builder.WriteString("<" + tag)
		for _, attr := range n.Attr {
			if targetingAttrs[strings.ToLower(attr.Key)] || strings.HasPrefix(attr.Key, "data-") {
				builder.WriteString(fmt.Sprintf(" %s=%q", attr.Key, attr.Val))
			}
		}
		builder.WriteString(">")

		for child := n.FirstChild; child != nil; child = child.NextSibling {
			cleanNode(child, builder, maxLength)
		}

		builder.WriteString("</" + tag + ">")
		return
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		cleanNode(child, builder, maxLength)
	}
}
