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
	defaultClaudeEndpoint    = "https://api.anthropic.com/v1/messages"
	defaultClaudeModel       = "claude-3-5-haiku-latest"
	defaultClaudeMaxTokens   = 1024
	defaultClaudeTimeout     = 30 * time.Second
	defaultClaudeTemperature = 0.2
	claudeAPIVersion         = "2023-06-01"
)

// ClaudeModel implements Model on top of Anthropic's Messages API.
type ClaudeModel struct {
	config ModelConfig
	client *http.Client
}

func init() {
	RegisterModel(ModelClaude, NewClaudeModel)
}

// NewClaudeModel creates a Claude client. APIKey is required.
func NewClaudeModel(config ModelConfig) (Model, error) {
	if config.Endpoint == "" {
		config.Endpoint = defaultClaudeEndpoint
	}
	if config.ModelName == "" {
		config.ModelName = defaultClaudeModel
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = defaultClaudeMaxTokens
	}
	if config.Timeout == 0 {
		config.Timeout = defaultClaudeTimeout
	}
	if config.Temperature == 0 {
		config.Temperature = defaultClaudeTemperature
	}

	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: APIKey is required", ErrInvalidConfiguration)
	}

	return &ClaudeModel{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}, nil
}

func (m *ClaudeModel) Name() string {
	return m.config.ModelName
}

func (m *ClaudeModel) Type() ModelType {
	return ModelClaude
}

type claudeRequest struct {
	Model       string          `json:"model"`
	System      string          `json:"system,omitempty"`
	Messages    []claudeMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	ID         string `json:"id"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type claudeErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// ProcessText sends a single user message and returns the concatenated text blocks.
func (m *ClaudeModel) ProcessText(ctx context.Context, prompt string) (*ModelResponse, error) {
	return m.send(ctx, claudeRequest{
		Model:       m.config.ModelName,
		Messages:    []claudeMessage{{Role: "user", Content: prompt}},
		MaxTokens:   m.config.MaxTokens,
		Temperature: m.config.Temperature,
	})
}

// ProcessTextWithJSON puts the schema in the system prompt and validates that
// the reply, stripped of code fences, is JSON.
func (m *ClaudeModel) ProcessTextWithJSON(ctx context.Context, prompt string, jsonSchema string) (*ModelResponse, error) {
	system := fmt.Sprintf(`You always respond with valid JSON.
Your response must follow this schema: %s

Respond only with JSON, no preamble or additional text.`, jsonSchema)

	resp, err := m.send(ctx, claudeRequest{
		Model:       m.config.ModelName,
		System:      system,
		Messages:    []claudeMessage{{Role: "user", Content: prompt}},
		MaxTokens:   m.config.MaxTokens,
		Temperature: 0,
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

func (m *ClaudeModel) send(ctx context.Context, payload claudeRequest) (*ModelResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", m.config.APIKey)
	req.Header.Set("Anthropic-Version", claudeAPIVersion)

	resp, err := m.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrContextDeadlineExceeded
		}
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp claudeErrorResponse
		msg := fmt.Sprintf("status code %d", resp.StatusCode)
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			msg = errResp.Error.Message
		}
		return nil, statusError(resp.StatusCode, msg)
	}

	var parsed claudeResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	var sb strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, ErrEmptyResponse
	}

	return &ModelResponse{
		Content: sb.String(),
		Format:  FormatText,
		Metadata: map[string]interface{}{
			"model":         parsed.Model,
			"stop_reason":   parsed.StopReason,
			"input_tokens":  parsed.Usage.InputTokens,
			"output_tokens": parsed.Usage.OutputTokens,
			"message_id":    parsed.ID,
		},
	}, nil
}

// statusError maps a provider HTTP status to one of the package errors.
func statusError(status int, msg string) error {
	switch status {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimitExceeded, msg)
	case http.StatusServiceUnavailable, 529:
		return fmt.Errorf("%w: %s", ErrModelUnavailable, msg)
	default:
		return fmt.Errorf("%w: %s (status: %d)", ErrAPICallFailed, msg, status)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
