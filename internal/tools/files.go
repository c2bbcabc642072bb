package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/halcyon-ai/agent-console/internal/model"
)

const (
	maxReadBytes    = 10 * 1024 * 1024
	defaultMaxLines = 2000
)

func failure(format string, args ...any) *model.ToolResult {
	return &model.ToolResult{Success: false, Error: fmt.Sprintf(format, args...)}
}

// read_file

type readFileInput struct {
	FilePath string `json:"file_path"`
	Offset   int    `json:"offset,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

type readFileTool struct {
	workspace *Workspace
}

func (t *readFileTool) Name() string { return "read_file" }

func (t *readFileTool) Description() string {
	return "Read a file from the workspace, returned with line numbers. Supports offset/limit paging for large files."
}

func (t *readFileTool) InputSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"file_path": {"type": "string", "description": "Path to the file"},
			"offset": {"type": "integer", "description": "Line number to start from"},
			"limit": {"type": "integer", "description": "Maximum number of lines"}
		},
		"required": ["file_path"]
	}`)
}

func (t *readFileTool) Execute(ctx context.Context, input json.RawMessage) *model.ToolResult {
	var in readFileInput
	if err := json.Unmarshal(input, &in); err != nil {
		return failure("invalid input: %v", err)
	}

	path, err := t.workspace.Resolve(in.FilePath)
	if err != nil {
		return failure("%v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return failure("file not found: %s", in.FilePath)
	}
	if info.IsDir() {
		return failure("path is a directory: %s", in.FilePath)
	}
	if info.Size() > maxReadBytes {
		return failure("file too large: %d bytes, use offset and limit", info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return failure("failed to read file: %v", err)
	}

	lines := strings.Split(string(data), "\n")
	totalLines := len(lines)

	start := 0
	if in.Offset > 0 {
		start = in.Offset
	}
	if start > len(lines) {
		start = len(lines)
	}
	end := len(lines)
	if in.Limit > 0 && start+in.Limit < end {
		end = start + in.Limit
	} else if in.Limit == 0 && in.Offset == 0 && end > defaultMaxLines {
		end = defaultMaxLines
	}
	lines = lines[start:end]

	var b strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&b, "%5d→%s\n", start+i+1, line)
	}

	return &model.ToolResult{
		Success: true,
		Content: strings.TrimSuffix(b.String(), "\n"),
		Message: fmt.Sprintf("%s (%d lines)", path, totalLines),
	}
}

func (t *readFileTool) Preview(input json.RawMessage) string {
	var in readFileInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "Read file"
	}
	return "Read file: " + in.FilePath
}

// write_file

type writeFileInput struct {
	FilePath string `json:"file_path"`
	Content  string `json:"content"`
}

type writeFileTool struct {
	workspace *Workspace
}

func (t *writeFileTool) Name() string { return "write_file" }

func (t *writeFileTool) Description() string {
	return "Create or overwrite a file in the workspace. Parent directories are created as needed."
}

func (t *writeFileTool) InputSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"file_path": {"type": "string", "description": "Path to the file"},
			"content": {"type": "string", "description": "Full file content"}
		},
		"required": ["file_path", "content"]
	}`)
}

func (t *writeFileTool) Execute(ctx context.Context, input json.RawMessage) *model.ToolResult {
	var in writeFileInput
	if err := json.Unmarshal(input, &in); err != nil {
		return failure("invalid input: %v", err)
	}

	path, err := t.workspace.Resolve(in.FilePath)
	if err != nil {
		return failure("%v", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return failure("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(in.Content), 0o644); err != nil {
		return failure("failed to write file: %v", err)
	}

	return &model.ToolResult{
		Success: true,
		Message: "File written successfully: " + path,
	}
}

func (t *writeFileTool) RequiresPermission(input json.RawMessage) bool {
	return true
}

func (t *writeFileTool) Preview(input json.RawMessage) string {
	var in writeFileInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "Write file"
	}
	return fmt.Sprintf("Write file: %s\nContent length: %d characters\nContent preview:\n%s",
		in.FilePath, len(in.Content), truncate(in.Content, 200))
}

// edit_file

type editFileInput struct {
	FilePath   string `json:"file_path"`
	OldString  string `json:"old_string"`
	NewString  string `json:"new_string"`
	ReplaceAll bool   `json:"replace_all,omitempty"`
}

type editFileTool struct {
	workspace *Workspace
}

func (t *editFileTool) Name() string { return "edit_file" }

func (t *editFileTool) Description() string {
	return "Edit a file by exact string replacement. The old string must be unique unless replace_all is set."
}

func (t *editFileTool) InputSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"file_path": {"type": "string", "description": "Path to the file"},
			"old_string": {"type": "string", "description": "Exact text to replace"},
			"new_string": {"type": "string", "description": "Replacement text"},
			"replace_all": {"type": "boolean", "description": "Replace every occurrence"}
		},
		"required": ["file_path", "old_string", "new_string"]
	}`)
}

func (t *editFileTool) Execute(ctx context.Context, input json.RawMessage) *model.ToolResult {
	var in editFileInput
	if err := json.Unmarshal(input, &in); err != nil {
		return failure("invalid input: %v", err)
	}
	if in.OldString == in.NewString {
		return failure("old_string and new_string must be different")
	}

	path, err := t.workspace.Resolve(in.FilePath)
	if err != nil {
		return failure("%v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return failure("file not found: %s", in.FilePath)
	}
	content := string(data)

	count := strings.Count(content, in.OldString)
	if count == 0 {
		return failure("old_string not found in file")
	}
	if count > 1 && !in.ReplaceAll {
		return failure("old_string appears %d times in file; use replace_all or a more specific string", count)
	}

	newContent := strings.Replace(content, in.OldString, in.NewString, -1)
	if err := os.WriteFile(path, []byte(newContent), 0o644); err != nil {
		return failure("failed to write file: %v", err)
	}

	return &model.ToolResult{
		Success: true,
		Message: fmt.Sprintf("File edited successfully: %s (%d replacements)", path, count),
	}
}

func (t *editFileTool) RequiresPermission(input json.RawMessage) bool {
	return true
}

func (t *editFileTool) Preview(input json.RawMessage) string {
	var in editFileInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "Edit file"
	}
	return fmt.Sprintf("Edit file: %s\nOld: %s\nNew: %s",
		in.FilePath, truncate(in.OldString, 100), truncate(in.NewString, 100))
}

// list_directory

type listDirectoryInput struct {
	Path string `json:"path"`
}

type listDirectoryTool struct {
	workspace *Workspace
}

func (t *listDirectoryTool) Name() string { return "list_directory" }

func (t *listDirectoryTool) Description() string {
	return "List files and directories at a workspace path."
}

func (t *listDirectoryTool) InputSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {"type": "string", "description": "Directory to list"}
		},
		"required": ["path"]
	}`)
}

func (t *listDirectoryTool) Execute(ctx context.Context, input json.RawMessage) *model.ToolResult {
	var in listDirectoryInput
	if err := json.Unmarshal(input, &in); err != nil {
		return failure("invalid input: %v", err)
	}

	path, err := t.workspace.Resolve(in.Path)
	if err != nil {
		return failure("%v", err)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return failure("failed to list directory: %v", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var b strings.Builder
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if entry.IsDir() {
			fmt.Fprintf(&b, "%s/\n", entry.Name())
		} else {
			info, err := entry.Info()
			size := int64(0)
			if err == nil {
				size = info.Size()
			}
			fmt.Fprintf(&b, "%s (%d bytes)\n", entry.Name(), size)
		}
	}

	out := strings.TrimSuffix(b.String(), "\n")
	if out == "" {
		out = "(empty directory)"
	}
	return &model.ToolResult{Success: true, Output: out}
}

func (t *listDirectoryTool) Preview(input json.RawMessage) string {
	var in listDirectoryInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "List directory"
	}
	return "List directory: " + in.Path
}
