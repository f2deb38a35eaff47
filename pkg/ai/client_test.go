package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replygate/pkg/ai/types"
)

func completionServer(t *testing.T, content string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req types.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		w.WriteHeader(status)
		fmt.Fprintf(w, `{"id":"cmpl-1","choices":[{"message":{"role":"assistant","content":%q},"finish_reason":"stop"}]}`, content)
	}))
}

func TestClassify(t *testing.T) {
	server := completionServer(t, `{"language":"EN","language_confidence":0.98,"risk":"LOW","risk_reason":"NONE","intent":"KNOWN"}`, http.StatusOK)
	defer server.Close()

	client := NewClient(server.URL, "test-key", "gpt-4o-mini", 150, 10, server.Client(), nil)

	classification, err := client.Classify(context.Background(), "Can I book an appointment?")
	require.NoError(t, err)
	assert.Equal(t, "EN", classification.Language)
	assert.InDelta(t, 0.98, classification.LanguageConfidence, 0.001)
	assert.Equal(t, "LOW", classification.Risk)
	assert.Equal(t, "KNOWN", classification.Intent)
}

func TestClassifyStripsCodeFence(t *testing.T) {
	fenced := "```json\n{\"language\":\"ES\",\"language_confidence\":0.9,\"risk\":\"LOW\",\"risk_reason\":\"NONE\",\"intent\":\"KNOWN\"}\n```"
	server := completionServer(t, fenced, http.StatusOK)
	defer server.Close()

	client := NewClient(server.URL, "test-key", "gpt-4o-mini", 150, 10, server.Client(), nil)

	classification, err := client.Classify(context.Background(), "Hola")
	require.NoError(t, err)
	assert.Equal(t, "ES", classification.Language)
}

func TestClassifyPartialResponse(t *testing.T) {
	server := completionServer(t, `{"language":"EN"}`, http.StatusOK)
	defer server.Close()

	client := NewClient(server.URL, "test-key", "gpt-4o-mini", 150, 10, server.Client(), nil)

	classification, err := client.Classify(context.Background(), "hi")
	require.NoError(t, err)

	// Unset fields stay zero; the enrichment stage applies fail-safe defaults.
	assert.Equal(t, "EN", classification.Language)
	assert.Zero(t, classification.LanguageConfidence)
	assert.Empty(t, classification.Risk)
	assert.Empty(t, classification.Intent)
}

func TestClassifyInvalidJSON(t *testing.T) {
	server := completionServer(t, "not json at all", http.StatusOK)
	defer server.Close()

	client := NewClient(server.URL, "test-key", "gpt-4o-mini", 150, 10, server.Client(), nil)

	_, err := client.Classify(context.Background(), "hi")
	assert.Error(t, err)
}

func TestClassifyAPIFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"message":"overloaded"}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "gpt-4o-mini", 150, 10, server.Client(), nil)

	_, err := client.Classify(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestClassifyNotConfigured(t *testing.T) {
	client := NewClient("https://api.openai.com", "", "gpt-4o-mini", 150, 10, nil, nil)

	_, err := client.Classify(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestDraft(t *testing.T) {
	server := completionServer(t, "  Thanks for reaching out. What day works for you?  ", http.StatusOK)
	defer server.Close()

	client := NewClient(server.URL, "test-key", "gpt-4o-mini", 150, 10, server.Client(), nil)

	draft, err := client.Draft(context.Background(), "Can I come in Tuesday?", types.LanguageEnglish, types.IntentKnown)
	require.NoError(t, err)
	assert.Equal(t, "Thanks for reaching out. What day works for you?", draft)
}

func TestDraftSpanishInstruction(t *testing.T) {
	var sawSpanish bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req types.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if len(req.Messages) > 0 && req.Messages[0].Role == "system" {
			sawSpanish = assert.Contains(t, req.Messages[0].Content, "Spanish")
		}
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"Gracias."}}]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "gpt-4o-mini", 150, 10, server.Client(), nil)

	draft, err := client.Draft(context.Background(), "Hola", types.LanguageSpanish, types.IntentKnown)
	require.NoError(t, err)
	assert.Equal(t, "Gracias.", draft)
	assert.True(t, sawSpanish)
}

func TestCompleteNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"cmpl-2","choices":[]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "gpt-4o-mini", 150, 10, server.Client(), nil)

	_, err := client.Draft(context.Background(), "hi", types.LanguageEnglish, types.IntentKnown)
	assert.Error(t, err)
}

func TestStripJSONFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripJSONFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripJSONFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripJSONFence(`{"a":1}`))
}
