package assistant

import "context"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	// RoleModel is the Gemini and SPA spelling of the assistant role.
	RoleModel = "model"
)

// Message is one turn of a chat.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a provider-neutral completion request.
type Request struct {
	System      string
	Messages    []Message
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

type Response struct {
	Text       string
	StopReason string
}

// LLMClient completes a chat. The last message is the one being answered.
type LLMClient interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

func isAssistant(role string) bool {
	return role == RoleAssistant || role == RoleModel
}
