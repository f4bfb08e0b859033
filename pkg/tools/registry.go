package tools

import (
	"sync"

	"github.com/pkg/errors"
)

// ToolRegistry manages the closed set of tools the reasoning model may call.
type ToolRegistry interface {
	RegisterTool(name string, def ToolDefinition) error
	GetTool(name string) (*ToolDefinition, error)
	ListTools() []ToolDefinition
}

// InMemoryToolRegistry is a thread-safe in-memory implementation of ToolRegistry.
type InMemoryToolRegistry struct {
	mu    sync.RWMutex
	names []string
	tools map[string]ToolDefinition
}

// NewInMemoryToolRegistry creates a new in-memory tool registry.
func NewInMemoryToolRegistry() *InMemoryToolRegistry {
	return &InMemoryToolRegistry{
		tools: make(map[string]ToolDefinition),
	}
}

// RegisterTool registers a new tool in the registry. Schema validation has
// already happened inside NewToolFromFunc, so this only checks naming.
func (r *InMemoryToolRegistry) RegisterTool(name string, def ToolDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		return errors.New("tool name cannot be empty")
	}
	if def.Name != "" && def.Name != name {
		return errors.Errorf("tool definition name (%s) does not match registry name (%s)", def.Name, name)
	}
	if _, exists := r.tools[name]; exists {
		return errors.Errorf("tool already registered: %s", name)
	}

	def.Name = name
	r.names = append(r.names, name)
	r.tools[name] = def
	return nil
}

// GetTool retrieves a tool by name.
func (r *InMemoryToolRegistry) GetTool(name string) (*ToolDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	if !exists {
		return nil, errors.Errorf("tool not found: %s", name)
	}

	// Return a copy to prevent external modifications
	toolCopy := tool
	return &toolCopy, nil
}

// ListTools returns all registered tools in registration order, so tool
// declarations sent to the model are deterministic.
func (r *InMemoryToolRegistry) ListTools() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ToolDefinition, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.tools[name])
	}
	return out
}

// HasTool checks if a tool exists in the registry.
func (r *InMemoryToolRegistry) HasTool(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.tools[name]
	return exists
}

// Count returns the number of tools in the registry.
func (r *InMemoryToolRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.tools)
}

var _ ToolRegistry = (*InMemoryToolRegistry)(nil)
