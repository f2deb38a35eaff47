package types

// Classification is the structured verdict for an inbound message. Missing
// fields are defaulted by the caller to the most conservative value.
type Classification struct {
	Language           string  `json:"language"`
	LanguageConfidence float64 `json:"language_confidence"`
	Risk               string  `json:"risk"`
	RiskReason         string  `json:"risk_reason"`
	Intent             string  `json:"intent"`
}

// Classification field values
const (
	LanguageEnglish = "EN"
	LanguageSpanish = "ES"
	LanguageUnclear = "UNCLEAR"

	RiskLow  = "LOW"
	RiskHigh = "HIGH"

	IntentKnown   = "KNOWN"
	IntentUnknown = "UNKNOWN"

	RiskReasonNone = "NONE"
)

// ChatMessage is a single message in a chat completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest is the OpenAI chat completions request payload.
type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

// ChatCompletionResponse is the OpenAI chat completions response payload.
type ChatCompletionResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *APIError `json:"error,omitempty"`
}

// APIError is the error body returned by the completions endpoint.
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}
