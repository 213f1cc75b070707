package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// ConverseAPI is the slice of the Bedrock runtime client used here.
type ConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockClient implements LLMClient with the Bedrock Converse API.
type BedrockClient struct {
	api     ConverseAPI
	modelID string
}

func NewBedrockClient(api ConverseAPI, modelID string) *BedrockClient {
	if api == nil {
		panic("assistant: bedrock converse client cannot be nil")
	}
	return &BedrockClient{api: api, modelID: strings.TrimSpace(modelID)}
}

func (c *BedrockClient) Complete(ctx context.Context, req Request) (Response, error) {
	if c.modelID == "" {
		return Response{}, errors.New("assistant: bedrock model id is required")
	}
	var system []brtypes.SystemContentBlock
	if strings.TrimSpace(req.System) != "" {
		system = append(system, &brtypes.SystemContentBlockMemberText{Value: req.System})
	}

	messages := make([]brtypes.Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		role := brtypes.ConversationRoleUser
		if isAssistant(msg.Role) {
			role = brtypes.ConversationRoleAssistant
		}
		messages = append(messages, brtypes.Message{
			Role:    role,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: content}},
		})
	}

	var inference *brtypes.InferenceConfiguration
	if req.MaxTokens > 0 || req.Temperature > 0 || req.TopP > 0 {
		inference = &brtypes.InferenceConfiguration{}
		if req.MaxTokens > 0 {
			inference.MaxTokens = aws.Int32(req.MaxTokens)
		}
		if req.Temperature > 0 {
			inference.Temperature = aws.Float32(req.Temperature)
		}
		if req.TopP > 0 {
			inference.TopP = aws.Float32(req.TopP)
		}
	}

	out, err := c.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId:         aws.String(c.modelID),
		System:          system,
		Messages:        messages,
		InferenceConfig: inference,
	})
	if err != nil {
		return Response{}, fmt.Errorf("assistant: bedrock converse failed: %w", err)
	}
	msgOut, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return Response{}, errors.New("assistant: bedrock response did not include a message")
	}
	var text strings.Builder
	for _, block := range msgOut.Value.Content {
		if t, ok := block.(*brtypes.ContentBlockMemberText); ok {
			text.WriteString(t.Value)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return Response{}, errors.New("assistant: bedrock response contained no text")
	}
	return Response{Text: strings.TrimSpace(text.String()), StopReason: string(out.StopReason)}, nil
}
