package ai

import (
	"context"
	"time"
)

// ModelType identifies an AI backend.
type ModelType string

const (
	// ModelClaude is Anthropic's Messages API.
	ModelClaude ModelType = "claude"

	// ModelOpenAI is OpenAI's Chat Completions API.
	ModelOpenAI ModelType = "openai"
)

// Response formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ModelResponse is the provider-neutral result of a model call.
type ModelResponse struct {
	// Content is the text, or the raw JSON document when Format is FormatJSON.
	Content string

	// Metadata carries token usage and stop reasons as reported by the provider.
	Metadata map[string]interface{}

	Format string
}

// ModelConfig configures a model client.
type ModelConfig struct {
	APIKey      string
	Endpoint    string
	ModelName   string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Model is implemented by every AI backend.
type Model interface {
	// Name returns the provider's model name, e.g. "gpt-4o-mini".
	Name() string

	Type() ModelType

	// ProcessText sends a prompt and returns the plain text reply.
	ProcessText(ctx context.Context, prompt string) (*ModelResponse, error)

	// ProcessTextWithJSON asks the model for a JSON document that follows
	// jsonSchema. The returned Content is guaranteed to be valid JSON.
	ProcessTextWithJSON(ctx context.Context, prompt string, jsonSchema string) (*ModelResponse, error)
}

// ModelFactory creates a model from its configuration.
type ModelFactory func(config ModelConfig) (Model, error)

var modelFactories = make(map[ModelType]ModelFactory)

// RegisterModel registers a model factory for a given model type.
func RegisterModel(modelType ModelType, factory ModelFactory) {
	modelFactories[modelType] = factory
}

// GetModel returns a model instance for the specified model type.
func GetModel(modelType ModelType, config ModelConfig) (Model, error) {
	factory, exists := modelFactories[modelType]
	if !exists {
		return nil, ErrUnsupportedModel
	}
	return factory(config)
}
