package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"time"

	"github.com/halcyon-ai/agent-console/internal/model"
)

// destructivePatterns match shell commands that always need approval.
var destructivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`rm\s+-rf`),
	regexp.MustCompile(`rm\s+.*\*`),
	regexp.MustCompile(`(?i)drop\s+table`),
	regexp.MustCompile(`(?i)drop\s+database`),
	regexp.MustCompile(`(?i)delete\s+from`),
	regexp.MustCompile(`(?i)truncate`),
	regexp.MustCompile(`mkfs`),
	regexp.MustCompile(`dd\s+if=`),
}

// gitPermissionPatterns match git commands that mutate shared state.
var gitPermissionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`git\s+push`),
	regexp.MustCompile(`git\s+commit`),
	regexp.MustCompile(`git\s+merge`),
	regexp.MustCompile(`git\s+rebase`),
	regexp.MustCompile(`git\s+reset\s+--hard`),
	regexp.MustCompile(`git\s+clean`),
	regexp.MustCompile(`git\s+branch\s+-D`),
	regexp.MustCompile(`git\s+tag\s+-d`),
}

const maxBashOutput = 64 * 1024

type bashInput struct {
	Command     string `json:"command"`
	Description string `json:"description,omitempty"`
	TimeoutMs   int    `json:"timeout,omitempty"`
}

type bashTool struct {
	workspace *Workspace
	timeout   time.Duration
}

func (t *bashTool) Name() string { return "bash" }

func (t *bashTool) Description() string {
	return "Execute a bash command in the workspace. Use for git, build, and other terminal operations."
}

func (t *bashTool) InputSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"command": {"type": "string", "description": "The command to execute"},
			"description": {"type": "string", "description": "What this command does"},
			"timeout": {"type": "integer", "description": "Optional timeout in milliseconds"}
		},
		"required": ["command"]
	}`)
}

func (t *bashTool) Execute(ctx context.Context, input json.RawMessage) *model.ToolResult {
	var in bashInput
	if err := json.Unmarshal(input, &in); err != nil {
		return &model.ToolResult{Success: false, Error: fmt.Sprintf("invalid input: %v", err)}
	}
	if in.Command == "" {
		return &model.ToolResult{Success: false, Error: "command is required"}
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	if in.TimeoutMs > 0 {
		requested := time.Duration(in.TimeoutMs) * time.Millisecond
		if requested < 10*time.Minute {
			timeout = requested
		} else {
			timeout = 10 * time.Minute
		}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "bash", "-c", in.Command)
	cmd.Dir = t.workspace.Root()

	output, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return &model.ToolResult{Success: false, Error: fmt.Sprintf("command timed out after %s", timeout)}
	}
	if err != nil {
		return &model.ToolResult{
			Success: false,
			Error:   fmt.Sprintf("%v\n%s", err, truncate(string(output), maxBashOutput)),
		}
	}

	out := truncate(string(output), maxBashOutput)
	if out == "" {
		out = "Command executed successfully (no output)"
	}
	return &model.ToolResult{Success: true, Output: out}
}

func (t *bashTool) RequiresPermission(input json.RawMessage) bool {
	var in bashInput
	if err := json.Unmarshal(input, &in); err != nil {
		return true
	}
	for _, pattern := range destructivePatterns {
		if pattern.MatchString(in.Command) {
			return true
		}
	}
	for _, pattern := range gitPermissionPatterns {
		if pattern.MatchString(in.Command) {
			return true
		}
	}
	return false
}

func (t *bashTool) Preview(input json.RawMessage) string {
	var in bashInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "Run command"
	}
	preview := fmt.Sprintf("Run command:\n%s", in.Command)
	if in.Description != "" {
		preview += "\nDescription: " + in.Description
	}
	return preview
}
