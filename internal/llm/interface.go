package llm

import "context"

//go:generate mockgen -destination=mocks/mock_provider.go -package=mocks -source=interface.go Provider

// Provider is a chat-completion backend used to phrase answers
type Provider interface {
	Name() string
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Roles accepted in Message.Role
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatRequest holds the request parameters. A zero MaxTokens lets the
// backend pick its default.
type ChatRequest struct {
	SystemPrompt string
	Messages     []Message
	MaxTokens    int
	Temperature  float64
}

// Message represents a chat message
type Message struct {
	Role    string
	Content string
}

// ChatResponse holds the response from the LLM
type ChatResponse struct {
	Content      string
	Usage        Usage
	FinishReason string
}

// Usage tracks token consumption
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// UserPrompt builds a single-turn request
func UserPrompt(content string, maxTokens int, temperature float64) ChatRequest {
	return ChatRequest{
		Messages:    []Message{{Role: RoleUser, Content: content}},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
}
