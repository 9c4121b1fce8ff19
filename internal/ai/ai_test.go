package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetModel_Unsupported(t *testing.T) {
	_, err := GetModel("gemini", ModelConfig{APIKey: "k"})
	assert.ErrorIs(t, err, ErrUnsupportedModel)
}

func TestNewModels_RequireAPIKey(t *testing.T) {
	_, err := GetModel(ModelClaude, ModelConfig{})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = GetModel(ModelOpenAI, ModelConfig{})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestNewModels_Defaults(t *testing.T) {
	m, err := GetModel(ModelClaude, ModelConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, defaultClaudeModel, m.Name())
	assert.Equal(t, ModelClaude, m.Type())

	m, err = GetModel(ModelOpenAI, ModelConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, defaultOpenAIModel, m.Name())
	assert.Equal(t, ModelOpenAI, m.Type())
}

func TestClaude_ProcessTextWithJSON(t *testing.T) {
	var got claudeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		assert.Equal(t, claudeAPIVersion, r.Header.Get("Anthropic-Version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"model": "claude-test",
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 12, "output_tokens": 7},
			"content": [{"type": "text", "text": "` + "```json\\n{\\\"triage_code\\\": \\\"RED\\\"}\\n```" + `"}]
		}`))
	}))
	defer srv.Close()

	m, err := NewClaudeModel(ModelConfig{APIKey: "secret", Endpoint: srv.URL, ModelName: "claude-test"})
	require.NoError(t, err)

	resp, err := m.ProcessTextWithJSON(context.Background(), "chest pain", `{"triage_code":"string"}`)
	require.NoError(t, err)
	assert.Equal(t, `{"triage_code": "RED"}`, resp.Content)
	assert.Equal(t, FormatJSON, resp.Format)
	assert.Equal(t, "msg_1", resp.Metadata["message_id"])

	assert.Equal(t, "claude-test", got.Model)
	assert.Contains(t, got.System, `{"triage_code":"string"}`)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "chest pain", got.Messages[0].Content)
}

func TestClaude_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"I cannot help with that."}]}`))
	}))
	defer srv.Close()

	m, err := NewClaudeModel(ModelConfig{APIKey: "k", Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = m.ProcessTextWithJSON(context.Background(), "x", "{}")
	assert.ErrorIs(t, err, ErrInvalidJSON)
}

func TestClaude_StatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, ErrRateLimitExceeded},
		{"unavailable", http.StatusServiceUnavailable, ErrModelUnavailable},
		{"overloaded", 529, ErrModelUnavailable},
		{"bad request", http.StatusBadRequest, ErrAPICallFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"type":"x","message":"nope"}}`))
			}))
			defer srv.Close()

			m, err := NewClaudeModel(ModelConfig{APIKey: "k", Endpoint: srv.URL})
			require.NoError(t, err)

			_, err = m.ProcessText(context.Background(), "hi")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOpenAI_ProcessText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"model": "gpt-test",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Stable patient."}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 5, "completion_tokens": 3, "total_tokens": 8}
		}`))
	}))
	defer srv.Close()

	m, err := NewOpenAIModel(ModelConfig{APIKey: "secret", Endpoint: srv.URL + "/v1/"})
	require.NoError(t, err)

	resp, err := m.ProcessText(context.Background(), "summarise")
	require.NoError(t, err)
	assert.Equal(t, "Stable patient.", resp.Content)
	assert.Equal(t, FormatText, resp.Format)
	assert.Equal(t, 8, resp.Metadata["total_tokens"])
}

func TestOpenAI_ProcessTextWithJSON(t *testing.T) {
	var got openAIChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"specialty_tags\":[\"Cardiology\"]}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	m, err := NewOpenAIModel(ModelConfig{APIKey: "k", Endpoint: srv.URL})
	require.NoError(t, err)

	resp, err := m.ProcessTextWithJSON(context.Background(), "notes", `{"specialty_tags":"array"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"specialty_tags":["Cardiology"]}`, resp.Content)
	assert.Equal(t, "json_object", got.ResponseFormat["type"])
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
}

func TestOpenAI_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	m, err := NewOpenAIModel(ModelConfig{APIKey: "k", Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = m.ProcessText(context.Background(), "x")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestOpenAI_DeadlineExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	m, err := NewOpenAIModel(ModelConfig{APIKey: "k", Endpoint: srv.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = m.ProcessText(ctx, "x")
	assert.ErrorIs(t, err, ErrContextDeadlineExceeded)
}

func TestExtractJSONFromText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n[1,2]\n```", `[1,2]`},
		{`Here you go: {"a":1} hope that helps`, `{"a":1}`},
		{"no json here", "no json here"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractJSONFromText(tt.in), tt.in)
	}
}

func TestProvider(t *testing.T) {
	p, err := NewProvider(ModelOpenAI, ModelConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, ModelOpenAI, p.DefaultModel().Type())

	require.NoError(t, p.AddModel(ModelClaude, ModelConfig{APIKey: "k"}))
	assert.Equal(t, ModelClaude, p.Model(ModelClaude).Type())
	assert.Error(t, p.AddModel(ModelClaude, ModelConfig{APIKey: "k"}))

	_, err = NewProvider("bogus", ModelConfig{APIKey: "k"})
	assert.ErrorIs(t, err, ErrUnsupportedModel)
}
