package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/realty-crm/pkg/logging"
)

// ErrPromptRequired is returned for an empty prompt.
var ErrPromptRequired = errors.New("assistant: prompt is required")

const advisorInstruction = `You are a helpful, professional real estate advisor for buyers in India.
Keep answers clear and actionable. You can help with:
1. Budget and loan calculation using the 3/20/30/40 rule.
2. Best localities and connectivity.
3. Legal and financial checks before purchasing.
4. Property investment advice.
5. Loan, EMI and tax benefits.
Ask for the details you need before calculating anything and state the limits of any estimate.`

// seedHistory opens every new conversation so the first reply offers the menu.
var seedHistory = []Message{
	{Role: RoleUser, Content: "Hi, I am looking to buy a home."},
	{Role: RoleModel, Content: "Welcome to your personal real estate assistant!\n\nI can help with:\n1. Budget & Loan Calculation\n2. Best Localities & Connectivity\n3. Things to Consider\n4. Property Investment Advice\n5. Loan, EMI & Tax Benefits\n\nChoose an option (1-5) to begin!"},
}

// ChatRequest is the body of POST /chatbot.
type ChatRequest struct {
	Prompt              string    `json:"prompt"`
	SourceLanguage      string    `json:"sourceLanguage"`
	TargetLanguage      string    `json:"targetLanguage"`
	ConversationHistory []Message `json:"conversationHistory"`
}

type ChatResponse struct {
	Reply               string    `json:"reply"`
	SourceLanguage      string    `json:"sourceLanguage,omitempty"`
	TargetLanguage      string    `json:"targetLanguage,omitempty"`
	ConversationHistory []Message `json:"conversationHistory"`
}

// ChatService wraps the LLM with the advisor persona and multilingual prompt.
type ChatService struct {
	llm    LLMClient
	logger *logging.Logger
}

func NewChatService(llm LLMClient, logger *logging.Logger) *ChatService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ChatService{llm: llm, logger: logger}
}

// Chat answers the prompt. The reply has newlines rendered as <br>; the
// returned history keeps the raw text.
func (s *ChatService) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return ChatResponse{}, ErrPromptRequired
	}

	messages := append([]Message{}, req.ConversationHistory...)
	if len(messages) == 0 {
		messages = append(messages, seedHistory...)
	}
	messages = append(messages, Message{Role: RoleUser, Content: enhancePrompt(prompt, req.SourceLanguage, req.TargetLanguage)})

	resp, err := s.llm.Complete(ctx, Request{
		System:      advisorInstruction,
		Messages:    messages,
		MaxTokens:   8192,
		Temperature: 1,
		TopP:        0.95,
	})
	if err != nil {
		return ChatResponse{}, fmt.Errorf("assistant: chat: %w", err)
	}

	history := append([]Message{}, req.ConversationHistory...)
	history = append(history,
		Message{Role: RoleUser, Content: prompt},
		Message{Role: RoleModel, Content: resp.Text},
	)
	return ChatResponse{
		Reply:               strings.ReplaceAll(resp.Text, "\n", "<br>"),
		SourceLanguage:      req.SourceLanguage,
		TargetLanguage:      req.TargetLanguage,
		ConversationHistory: history,
	}, nil
}

func enhancePrompt(prompt, source, target string) string {
	if source == "" {
		source = "Not specified"
	}
	targetLine, respondIn := "Not specified", ""
	if target != "" {
		targetLine, respondIn = target, " in "+target
	}
	return fmt.Sprintf(`Context: This is a real estate communication assistant handling a multilingual conversation.
Source Language: %s
Target Language: %s

Original Prompt: %s

Please provide a professional, culturally sensitive response%s.`, source, targetLine, prompt, respondIn)
}
