package ai

import (
	"fmt"
	"strings"
	"sync"
)

// Provider holds the configured model instances.
type Provider struct {
	mu           sync.RWMutex
	defaultModel Model
	models       map[ModelType]Model
}

// NewProvider creates a provider whose default model is of defaultModelType.
func NewProvider(defaultModelType ModelType, config ModelConfig) (*Provider, error) {
	defaultModel, err := GetModel(defaultModelType, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create default model: %w", err)
	}

	return &Provider{
		defaultModel: defaultModel,
		models:       map[ModelType]Model{defaultModelType: defaultModel},
	}, nil
}

// DefaultModel returns the default model.
func (p *Provider) DefaultModel() Model {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.defaultModel
}

// Model returns the model of the given type, or the default one.
func (p *Provider) Model(modelType ModelType) Model {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if model, ok := p.models[modelType]; ok {
		return model
	}
	return p.defaultModel
}

// AddModel creates and registers another model.
func (p *Provider) AddModel(modelType ModelType, config ModelConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.models[modelType]; ok {
		return fmt.Errorf("model %s already exists", modelType)
	}

	model, err := GetModel(modelType, config)
	if err != nil {
		return err
	}
	p.models[modelType] = model
	return nil
}

// extractJSONFromText strips markdown code fences and any prose around the
// outermost JSON object or array.
func extractJSONFromText(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
		text = strings.TrimSpace(text)
	}

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return text
	}
	closer := "}"
	if text[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(text, closer)
	if end < start {
		return text
	}
	return text[start : end+1]
}
