// Package llm provides abstractions for LLM provider integration.
//
// Providers handle API communication with LLM services and return simple
// StreamChunk instances. This keeps providers focused on LLM concerns
// without coupling them to discovery or execution orchestration, so they
// stay reusable and independently testable.
package llm

import (
	"context"

	"github.com/pilotlabs/webops/pkg/types"
)

// Provider defines the interface for LLM integrations.
type Provider interface {
	// StreamCompletion sends messages to the LLM and streams back response
	// chunks. The channel is closed when streaming completes or an error
	// occurs; stream-time errors are delivered as chunks with Error set.
	StreamCompletion(ctx context.Context, messages []*types.Message) (<-chan *StreamChunk, error)

	// Complete sends messages to the LLM and returns the full response.
	// It is a convenience wrapper around StreamCompletion that accumulates
	// all chunks into a single message.
	Complete(ctx context.Context, messages []*types.Message) (*types.Message, error)

	// GetModelInfo returns information about the model being used.
	GetModelInfo() *types.ModelInfo

	// GetModel returns the model name being used.
	GetModel() string
}

// StreamChunk is one increment of a streamed LLM response.
type StreamChunk struct {
	// Role is set on the first chunk of a response.
	Role string

	// Content is the text delta carried by this chunk.
	Content string

	// Finished marks the final chunk of a response.
	Finished bool

	// Error carries a stream-time failure.
	Error error
}

// IsError reports whether the chunk carries an error.
func (c *StreamChunk) IsError() bool { return c.Error != nil }
