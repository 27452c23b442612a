package types

// MessageRole identifies the author of a chat message sent to an LLM.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is a single chat message exchanged with an LLM provider.
type Message struct {
	// Role identifies the message author.
	Role MessageRole `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// NewSystemMessage creates a system-role message.
func NewSystemMessage(content string) *Message {
	return &Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user-role message.
func NewUserMessage(content string) *Message {
	return &Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant-role message.
func NewAssistantMessage(content string) *Message {
	return &Message{Role: RoleAssistant, Content: content}
}

// ModelInfo describes the LLM model a provider is configured with.
type ModelInfo struct {
	// Name is the model identifier.
	Name string

	// Provider names the backing provider implementation.
	Provider string

	// MaxTokens is the model's context window size.
	MaxTokens int

	// SupportsStreaming reports whether the provider can stream responses.
	SupportsStreaming bool

	// Metadata holds provider-specific extras.
	Metadata map[string]interface{}
}
