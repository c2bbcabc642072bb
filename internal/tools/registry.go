// Package tools implements the built-in tools the assistant can invoke and
// the registry that routes executions, permission checks, and previews.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/halcyon-ai/agent-console/internal/llm"
	"github.com/halcyon-ai/agent-console/internal/model"
)

// Tool is one capability offered to the model.
type Tool interface {
	Name() string
	Description() string
	InputSchema() json.RawMessage
	// Execute runs the tool. Failures are reported in the result, not as
	// errors: a failed tool never aborts the turn.
	Execute(ctx context.Context, input json.RawMessage) *model.ToolResult
}

// permissionChecker is implemented by tools whose execution may need human
// approval.
type permissionChecker interface {
	RequiresPermission(input json.RawMessage) bool
}

// previewer is implemented by tools that render a custom operation preview.
type previewer interface {
	Preview(input json.RawMessage) string
}

// Registry holds the available tools in registration order.
type Registry struct {
	order []string
	tools map[string]Tool
}

// Config carries the dependencies of the built-in tool set.
type Config struct {
	Workspace   *Workspace
	BashTimeout time.Duration
	Memory      MemoryStore
}

// NewRegistry builds a registry with the full built-in tool set.
func NewRegistry(cfg Config) *Registry {
	r := &Registry{tools: make(map[string]Tool)}

	r.Register(&bashTool{workspace: cfg.Workspace, timeout: cfg.BashTimeout})
	r.Register(&readFileTool{workspace: cfg.Workspace})
	r.Register(&writeFileTool{workspace: cfg.Workspace})
	r.Register(&editFileTool{workspace: cfg.Workspace})
	r.Register(&globTool{workspace: cfg.Workspace})
	r.Register(&grepTool{workspace: cfg.Workspace})
	r.Register(&listDirectoryTool{workspace: cfg.Workspace})
	r.Register(&askUserQuestionTool{})
	if cfg.Memory != nil {
		r.Register(&saveMemoryTool{store: cfg.Memory})
		r.Register(&recallMemoryTool{store: cfg.Memory})
	}

	return r
}

// Register adds a tool, replacing any previous tool with the same name.
func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

// Get returns the named tool, if registered.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Definitions returns the tool set in the shape the LLM providers expect.
func (r *Registry) Definitions() []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, llm.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.InputSchema(),
		})
	}
	return defs
}

// Execute routes one invocation to the named tool.
func (r *Registry) Execute(ctx context.Context, name string, input json.RawMessage) *model.ToolResult {
	t, ok := r.tools[name]
	if !ok {
		return &model.ToolResult{Success: false, Error: fmt.Sprintf("unknown tool: %s", name)}
	}
	return t.Execute(ctx, input)
}

// RequiresPermission reports whether executing the named tool with the given
// input needs human approval first.
func (r *Registry) RequiresPermission(name string, input json.RawMessage) bool {
	t, ok := r.tools[name]
	if !ok {
		return false
	}
	if pc, ok := t.(permissionChecker); ok {
		return pc.RequiresPermission(input)
	}
	return false
}

// Preview renders the human-readable description of what an invocation will
// do, shown in approval prompts and the operation log.
func (r *Registry) Preview(name string, input json.RawMessage) string {
	if t, ok := r.tools[name]; ok {
		if p, ok := t.(previewer); ok {
			return p.Preview(input)
		}
	}

	// MCP-sourced tools are namespaced server:tool.
	if server, tool, found := strings.Cut(name, ":"); found {
		return fmt.Sprintf("MCP tool call\nServer: %s\nTool: %s\nInput:\n%s", server, tool, indentJSON(input))
	}

	return fmt.Sprintf("Run tool: %s\nInput: %s", name, indentJSON(input))
}

// OperationType classifies a tool invocation for the operation log.
func OperationType(name string) model.OperationType {
	switch {
	case name == "write_file" || name == "edit_file":
		return model.OperationTypeFileWrite
	case name == "bash":
		return model.OperationTypeCommand
	case strings.Contains(name, ":"):
		return model.OperationTypeAPICall
	default:
		return model.OperationTypeToolCall
	}
}

func indentJSON(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(out)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
