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
)

const (
	defaultOpenAIEndpoint    = "https://api.openai.com/v1"
	defaultOpenAIModel       = "gpt-4o-mini"
	defaultOpenAIMaxTokens   = 1024
	defaultOpenAITimeout     = 30 * time.Second
	defaultOpenAITemperature = 0.2
)

// OpenAIModel implements Model on top of the Chat Completions API.
type OpenAIModel struct {
	config ModelConfig
	client *http.Client
}

func init() {
	RegisterModel(ModelOpenAI, NewOpenAIModel)
}

// NewOpenAIModel creates an OpenAI client. Endpoint is the API base URL,
// without the /chat/completions suffix.
func NewOpenAIModel(config ModelConfig) (Model, error) {
	if config.Endpoint == "" {
		config.Endpoint = defaultOpenAIEndpoint
	}
	if config.ModelName == "" {
		config.ModelName = defaultOpenAIModel
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = defaultOpenAIMaxTokens
	}
	if config.Timeout == 0 {
		config.Timeout = defaultOpenAITimeout
	}
	if config.Temperature == 0 {
		config.Temperature = defaultOpenAITemperature
	}

	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: APIKey is required", ErrInvalidConfiguration)
	}
	config.Endpoint = strings.TrimSuffix(config.Endpoint, "/")

	return &OpenAIModel{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}, nil
}

func (m *OpenAIModel) Name() string {
	return m.config.ModelName
}

func (m *OpenAIModel) Type() ModelType {
	return ModelOpenAI
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatRequest struct {
	Model          string            `json:"model"`
	Messages       []openAIMessage   `json:"messages"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type openAIChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int           `json:"index"`
		Message      openAIMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type openAIErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// ProcessText processes a text prompt and returns a text response.
func (m *OpenAIModel) ProcessText(ctx context.Context, prompt string) (*ModelResponse, error) {
	return m.chat(ctx, openAIChatRequest{
		Model:       m.config.ModelName,
		Messages:    []openAIMessage{{Role: "user", Content: prompt}},
		MaxTokens:   m.config.MaxTokens,
		Temperature: m.config.Temperature,
	})
}

// ProcessTextWithJSON uses JSON mode and validates the returned document.
func (m *OpenAIModel) ProcessTextWithJSON(ctx context.Context, prompt string, jsonSchema string) (*ModelResponse, error) {
	system := fmt.Sprintf("Respond only with a JSON object that follows this schema: %s", jsonSchema)

	resp, err := m.chat(ctx, openAIChatRequest{
		Model: m.config.ModelName,
		Messages: []openAIMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		MaxTokens:      m.config.MaxTokens,
		Temperature:    0,
		ResponseFormat: map[string]string{"type": "json_object"},
	})
	if err != nil {
		return nil, err
	}

	jsonStr := extractJSONFromText(resp.Content)
	if !json.Valid([]byte(jsonStr)) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidJSON, truncate(resp.Content, 200))
	}
	resp.Content = jsonStr
	resp.Format = FormatJSON
	return resp, nil
}

func (m *OpenAIModel) chat(ctx context.Context, payload openAIChatRequest) (*ModelResponse, error) {
	url := m.config.Endpoint + "/chat/completions"

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create POST request to %s: %w", url, err)
	}
	req.Header.Set("Authorization", "Bearer "+m.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrContextDeadlineExceeded
		}
		return nil, fmt.Errorf("failed to send POST request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body from %s: %w", url, err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp openAIErrorResponse
		msg := fmt.Sprintf("status code %d from %s", resp.StatusCode, url)
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			msg = errResp.Error.Message
		}
		return nil, statusError(resp.StatusCode, msg)
	}

	var parsed openAIChatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse successful response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return nil, ErrEmptyResponse
	}

	return &ModelResponse{
		Content: parsed.Choices[0].Message.Content,
		Format:  FormatText,
		Metadata: map[string]interface{}{
			"model":             parsed.Model,
			"finish_reason":     parsed.Choices[0].FinishReason,
			"prompt_tokens":     parsed.Usage.PromptTokens,
			"completion_tokens": parsed.Usage.CompletionTokens,
			"total_tokens":      parsed.Usage.TotalTokens,
		},
	}, nil
}
