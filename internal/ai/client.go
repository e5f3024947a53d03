package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/genai"

	"jobboard/internal/errcode"
)

// Client talks to the Gemini API. All failures, including malformed
// responses, wrap errcode.ErrUpstream so callers can classify them
// without knowing SDK internals.
type Client struct {
	client    *genai.Client
	modelName string
}

// NewClient constructs the Gemini client.
func NewClient(ctx context.Context, apiKey, modelName string) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Client{
		client:    client,
		modelName: modelName,
	}, nil
}

func (c *Client) generateText(ctx context.Context, prompt string, temperature float32) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: 4096,
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.modelName, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("%w: generate content: %v", errcode.ErrUpstream, err)
	}
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", errcode.ErrUpstream)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%w: no text content in response", errcode.ErrUpstream)
	}
	return text, nil
}

// ParseCV extracts a StructuredCV from plain resume text.
func (c *Client) ParseCV(ctx context.Context, cvText string) (*StructuredCV, error) {
	raw, err := c.generateText(ctx, buildParseCVPrompt(cvText), 0.1)
	if err != nil {
		return nil, err
	}
	return DecodeStructuredCV(raw)
}

// GenerateCoverLetter writes a cover letter body from a parsed CV and a
// target job. The prompt constrains the body to 100-1000 characters.
func (c *Client) GenerateCoverLetter(ctx context.Context, cv *StructuredCV, job JobInfo) (string, error) {
	return c.generateText(ctx, buildCoverLetterPrompt(cv, job), 0.7)
}

// MatchPercentage scores how well a candidate fits a job, clamped to [0,100].
func (c *Client) MatchPercentage(ctx context.Context, skills []string, experience []Experience, job JobInfo) (int, error) {
	raw, err := c.generateText(ctx, buildMatchPrompt(skills, experience, job), 0.1)
	if err != nil {
		return 0, err
	}

	score, err := strconv.Atoi(strings.TrimSpace(StripCodeFence(raw)))
	if err != nil {
		return 0, fmt.Errorf("%w: match response is not a number: %q", errcode.ErrUpstream, raw)
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, nil
}

// CVSuggestions returns actionable improvement suggestions for a parsed CV.
func (c *Client) CVSuggestions(ctx context.Context, cv *StructuredCV) ([]string, error) {
	raw, err := c.generateText(ctx, buildSuggestionsPrompt(cv), 0.5)
	if err != nil {
		return nil, err
	}

	var suggestions []string
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &suggestions); err != nil {
		return nil, fmt.Errorf("%w: decode suggestions: %v", errcode.ErrUpstream, err)
	}
	return suggestions, nil
}

// InterviewQuestions generates questions for a position.
func (c *Client) InterviewQuestions(ctx context.Context, job JobInfo) ([]string, error) {
	raw, err := c.generateText(ctx, buildQuestionsPrompt(job), 0.5)
	if err != nil {
		return nil, err
	}

	var questions []string
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &questions); err != nil {
		return nil, fmt.Errorf("%w: decode questions: %v", errcode.ErrUpstream, err)
	}
	return questions, nil
}

// JobTrends analyzes recent postings into a market trends report.
func (c *Client) JobTrends(ctx context.Context, jobs []JobInfo) (*TrendsReport, error) {
	raw, err := c.generateText(ctx, buildTrendsPrompt(jobs), 0.5)
	if err != nil {
		return nil, err
	}

	var report TrendsReport
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &report); err != nil {
		return nil, fmt.Errorf("%w: decode trends report: %v", errcode.ErrUpstream, err)
	}
	return &report, nil
}

// DecodeStructuredCV parses a model response into a StructuredCV. The
// model is told to return bare JSON, but responses wrapped in markdown
// code fences show up often enough that we strip them defensively.
func DecodeStructuredCV(raw string) (*StructuredCV, error) {
	cleaned := StripCodeFence(raw)

	var cv StructuredCV
	if err := json.Unmarshal([]byte(cleaned), &cv); err != nil {
		return nil, fmt.Errorf("%w: decode structured cv: %v", errcode.ErrUpstream, err)
	}

	if cv.Name == "" && cv.Email == "" && len(cv.Skills) == 0 && len(cv.Experience) == 0 {
		return nil, fmt.Errorf("%w: structured cv is empty", errcode.ErrUpstream)
	}
	return &cv, nil
}

// StripCodeFence removes surrounding markdown code-fence markup
// ("```json ... ```" or plain "```") from a model response.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
