package biz

import (
	"context"
	"strings"
	"sync"

	apperrors "github.com/iranzithierry/cognova-backend/pkg/errors"
	"github.com/iranzithierry/cognova-backend/pkg/utils/json"
)

// ToolContext carries the per-invocation inputs of a tool call.
type ToolContext struct {
	// WorkspaceID scopes the tool to the requesting bot's data.
	WorkspaceID string
	// SourceIDs, when non-empty, narrows the tool to those sources.
	SourceIDs []string
	// Arguments is the parsed arguments object of the call.
	Arguments map[string]any
}

// Tool executes one named capability the model can invoke mid-stream.
type Tool interface {
	// Name returns the tool name the model addresses it by.
	Name() string
	// Execute runs the tool and returns its textual result.
	Execute(ctx context.Context, tc *ToolContext) (string, error)
}

// ToolRegistry is a closed set of tools: registration validates names and
// rejects duplicates, and there is no removal.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewToolRegistry creates an empty tool registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool. Empty names and duplicates are rejected.
func (r *ToolRegistry) Register(t Tool) error {
	name := strings.TrimSpace(t.Name())
	if name == "" {
		return apperrors.ErrInvalidParam.WithMessage("tool name is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; exists {
		return apperrors.ErrInvalidParam.WithMessagef("tool %q already registered", name)
	}
	r.tools[name] = t
	return nil
}

// Get looks up a tool by name.
func (r *ToolRegistry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the registered tool names.
func (r *ToolRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// toolCallPayload is the JSON body between the tool-call markers.
type toolCallPayload struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// parseToolCall parses a tool-call payload. Models occasionally emit
// Python-flavored pseudo-JSON; a failed parse is retried once after
// normalizing single quotes and None literals.
func parseToolCall(payload string) (*toolCallPayload, error) {
	payload = strings.TrimSpace(payload)

	var call toolCallPayload
	if err := json.Unmarshal([]byte(payload), &call); err == nil && call.Name != "" {
		return &call, nil
	}

	normalized := strings.ReplaceAll(payload, "'", `"`)
	normalized = strings.ReplaceAll(normalized, "None", "null")
	if err := json.Unmarshal([]byte(normalized), &call); err != nil {
		return nil, apperrors.ErrToolCallMalformed.WithCause(err)
	}
	if call.Name == "" {
		return nil, apperrors.ErrToolCallMalformed.WithMessage("tool call has no name")
	}
	return &call, nil
}
