package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/justsurfingit/job-ledger-sync/internal/dtos"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// Job text beyond this many bytes is cut before it goes into a prompt.
const maxJobTextBytes = 20000

const jobSummaryPrompt = `
You are helping a student track their job applications.

Job title: %s
Company: %s

Here is some text related to the job (from the description, notes, or email):
---
%s
---

### TASKS:
1. Write a single-sentence summary of what this job is about. Maximum 25 words.
2. List 3-8 key skills or keywords the role seems to care about.
3. If a salary or salary range is mentioned, extract it as a short string
   (e.g., "$30-35/hr" or "$95k-115k + bonus"). If not mentioned, use "unknown".

### OUTPUT SCHEMA:
Return valid JSON only. Do not wrap the output in markdown code blocks.
{
    "summary": "one-line summary here",
    "skills": ["Skill1", "Skill2", "Skill3"],
    "salary": "salary or 'unknown'"
}
`

// BuildSummaryPrompt renders the summarization prompt for one application.
func BuildSummaryPrompt(company, roleTitle, jobText string) string {
	if len(jobText) > maxJobTextBytes {
		jobText = jobText[:maxJobTextBytes]
	}
	return fmt.Sprintf(jobSummaryPrompt, roleTitle, company, jobText)
}

var errEmptyCompletion = errors.New("empty completion")

// ParseSummary decodes a model response into a SummaryResult. Markdown code
// fences around the JSON are tolerated.
func ParseSummary(raw string) (dtos.SummaryResult, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if text == "" {
		return dtos.SummaryResult{}, errEmptyCompletion
	}

	var res dtos.SummaryResult
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		return dtos.SummaryResult{}, fmt.Errorf("decode summary JSON: %w", err)
	}
	return res, nil
}

// LLMService summarizes applications with Gemini through langchaingo.
type LLMService struct {
	Client llms.Model
}

// NewLLMService initializes the Gemini client.
func NewLLMService(ctx context.Context, apiKey, model string) (*LLMService, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is empty")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return &LLMService{Client: llm}, nil
}

func (s *LLMService) Summarize(ctx context.Context, company, roleTitle, jobText string) (dtos.SummaryResult, error) {
	prompt := BuildSummaryPrompt(company, roleTitle, jobText)
	resp, err := llms.GenerateFromSinglePrompt(ctx, s.Client, prompt, llms.WithJSONMode())
	if err != nil {
		return dtos.SummaryResult{}, fmt.Errorf("gemini: %w", err)
	}
	return ParseSummary(resp)
}
