package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/justsurfingit/job-ledger-sync/internal/dtos"
	"github.com/sashabaranov/go-openai"
)

const DefaultOpenAIModel = openai.GPT4oMini

// OpenAIService summarizes applications with the OpenAI chat API.
type OpenAIService struct {
	client *openai.Client
	model  string
}

func NewOpenAIService(apiKey, model string) (*OpenAIService, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is empty")
	}
	return NewOpenAIServiceWithConfig(openai.DefaultConfig(apiKey), model), nil
}

// NewOpenAIServiceWithConfig allows pointing the client at another base URL.
func NewOpenAIServiceWithConfig(cfg openai.ClientConfig, model string) *OpenAIService {
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIService{client: openai.NewClientWithConfig(cfg), model: model}
}

func (s *OpenAIService) Summarize(ctx context.Context, company, roleTitle, jobText string) (dtos.SummaryResult, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: BuildSummaryPrompt(company, roleTitle, jobText)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return dtos.SummaryResult{}, fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return dtos.SummaryResult{}, fmt.Errorf("openai: %w", errEmptyCompletion)
	}
	return ParseSummary(resp.Choices[0].Message.Content)
}
