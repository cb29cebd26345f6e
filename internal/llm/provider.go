package llm

import (
	"context"
	"encoding/json"
	"iter"
)

// Provider is the core abstraction for LLM interaction.
// Consumers call Generate for a complete response, or GenerateStream to
// receive text incrementally as the model produces it.
type Provider interface {
	// Generate sends a prompt to the LLM and returns the full response.
	// The request's Schema field, when set, instructs the provider to return
	// JSON conforming to that schema. The response Content will be the
	// validated JSON.
	Generate(ctx context.Context, req Request) (*Response, error)

	// GenerateStream sends a prompt and yields text chunks as they arrive.
	// The sequence is finite and not restartable: ranging over it a second
	// time issues a new request. A non-nil error is always the last value
	// yielded. Schema is ignored for streamed requests.
	GenerateStream(ctx context.Context, req Request) iter.Seq2[string, error]

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the LLM.
type Request struct {
	// System is the system prompt. Sets the LLM's role and constraints.
	System string

	// Messages is the conversation history. For single-turn generation
	// (the common case in StudyWise), this contains one user message.
	Messages []Message

	// Schema is the JSON Schema the response must conform to.
	// When set, the provider uses its native structured output mechanism.
	// When nil, the response Content is raw text as json.RawMessage.
	Schema *Schema

	// MaxTokens is the maximum number of tokens in the response.
	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	// Default: 0.0 (deterministic) when not set.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string

	// Images are sent alongside Content as inline data, e.g. a photo of a
	// worksheet the student wants explained.
	Images []InlineData
}

// InlineData is binary content embedded in a message.
type InlineData struct {
	MIMEType string // e.g. "image/png"
	Data     []byte
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the LLM.
type Schema struct {
	// Name identifies this schema (used as tool name for Anthropic,
	// schema name for OpenAI). Kebab-case, e.g. "quiz".
	Name string

	// Description is a human-readable description of what this schema
	// represents. Sent to the LLM to guide generation.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the LLM's output.
type Response struct {
	// Content is the generated output. When a Schema was provided in the
	// request, this is the validated JSON value. When no Schema was
	// provided, this is the raw text response.
	Content json.RawMessage

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason indicates why generation stopped.
	// Normalized to: "end", "max_tokens", "error"
	StopReason string
}

// Text returns Content as a string.
func (r *Response) Text() string {
	return string(r.Content)
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// UserMessage builds a single-turn user message.
func UserMessage(content string, images ...InlineData) Message {
	return Message{Role: RoleUser, Content: content, Images: images}
}
