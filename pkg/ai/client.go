package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"replygate/pkg/ai/types"

	"github.com/sirupsen/logrus"
)

// ErrNotConfigured signals that no API key is set. Callers treat this the
// same as any other classifier failure and fall back to human review.
var ErrNotConfigured = errors.New("ai client not configured: missing API key")

const (
	classifySystemPrompt = `You are a classification engine. Analyze the inbound text.
Return ONLY a JSON object with keys:
- language: "EN", "ES", or "UNCLEAR"
- language_confidence: Float 0.0 to 1.0
- risk: "LOW" (normal business) or "HIGH" (harmful, legal threat, emergency, sensitive)
- risk_reason: "PAYMENT", "LEGAL", "HARASSMENT", "MEDICAL", "MINOR", "REFUND", "THREAT", "OTHER", "NONE"
- intent: "KNOWN" (scheduling, pricing, faq) or "UNKNOWN" (confusing, unrelated)
`

	draftSystemPromptFmt = `You are a helpful business assistant. Write a polite, neutral reply in %s.
Rules:
1. Reference business context generically (do not invent facts).
2. Ask NO MORE than ONE question.
3. If intent is KNOWN but details are missing, end with a simple next step (e.g. "What day/time works for you?").
4. Keep it short (1-2 sentences).
`
)

// Client classifies inbound messages and drafts replies.
type Client interface {
	Classify(ctx context.Context, body string) (*types.Classification, error)
	Draft(ctx context.Context, body, language, intent string) (string, error)
}

type OpenAIClient struct {
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client
	logger    *logrus.Logger
}

// NewClient creates an OpenAI-backed client. A nil httpClient gets a default
// with the given timeout.
func NewClient(baseURL, apiKey, model string, maxTokens, timeoutSec int, httpClient *http.Client, logger *logrus.Logger) Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: time.Duration(timeoutSec) * time.Second}
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}

	return &OpenAIClient{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		apiKey:    apiKey,
		model:     model,
		maxTokens: maxTokens,
		client:    httpClient,
		logger:    logger,
	}
}

func (c *OpenAIClient) Classify(ctx context.Context, body string) (*types.Classification, error) {
	content, err := c.complete(ctx, classifySystemPrompt, body, 0)
	if err != nil {
		return nil, err
	}

	content = stripJSONFence(content)

	var classification types.Classification
	if err := json.Unmarshal([]byte(content), &classification); err != nil {
		return nil, fmt.Errorf("failed to parse classification response: %w", err)
	}

	return &classification, nil
}

func (c *OpenAIClient) Draft(ctx context.Context, body, language, intent string) (string, error) {
	langInstruction := "English"
	if language == types.LanguageSpanish {
		langInstruction = "Spanish"
	}

	content, err := c.complete(ctx, fmt.Sprintf(draftSystemPromptFmt, langInstruction), body, 0.3)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(content), nil
}

func (c *OpenAIClient) complete(ctx context.Context, systemPrompt, userContent string, temperature float64) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	payload := types.ChatCompletionRequest{
		Model: c.model,
		Messages: []types.ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userContent},
		},
		MaxTokens:   c.maxTokens,
		Temperature: temperature,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/chat/completions", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var completion types.ChatCompletionResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("completion API error: %s", completion.Error.Message)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("completion response contained no choices")
	}

	return completion.Choices[0].Message.Content, nil
}

// stripJSONFence removes a markdown code fence the model sometimes wraps
// around JSON output.
func stripJSONFence(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}
	return strings.TrimSpace(content)
}
