package tools

import (
	"fmt"
	"sync"
)

// DefaultToolRegistry implements ToolRegistry. Tools run in registration order.
type DefaultToolRegistry struct {
	tools []DispatchTool
	mu    sync.RWMutex
}

// NewToolRegistry creates an empty registry
func NewToolRegistry() *DefaultToolRegistry {
	return &DefaultToolRegistry{
		tools: make([]DispatchTool, 0),
	}
}

// Register adds a tool. Names must be unique.
func (r *DefaultToolRegistry) Register(tool DispatchTool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.tools {
		if t.Name() == tool.Name() {
			return fmt.Errorf("tool %q already registered", tool.Name())
		}
	}
	r.tools = append(r.tools, tool)
	return nil
}

// GetAll returns a copy of the registered tools
func (r *DefaultToolRegistry) GetAll() []DispatchTool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]DispatchTool, len(r.tools))
	copy(result, r.tools)
	return result
}

// GetApplicable returns the tools that want to run for plan
func (r *DefaultToolRegistry) GetApplicable(plan *DispatchPlan) []DispatchTool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var applicable []DispatchTool
	for _, tool := range r.tools {
		if tool.IsApplicable(plan) {
			applicable = append(applicable, tool)
		}
	}
	return applicable
}
