package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/halcyon-ai/agent-console/internal/model"
)

const maxSearchResults = 100

// glob

type globInput struct {
	Pattern string `json:"pattern"`
	Path    string `json:"path,omitempty"`
}

type globTool struct {
	workspace *Workspace
}

func (t *globTool) Name() string { return "glob" }

func (t *globTool) Description() string {
	return "Find files matching a glob pattern, e.g. **/*.go. Returns workspace-relative paths."
}

func (t *globTool) InputSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"pattern": {"type": "string", "description": "Glob pattern, ** matches across directories"},
			"path": {"type": "string", "description": "Directory to search from"}
		},
		"required": ["pattern"]
	}`)
}

func (t *globTool) Execute(ctx context.Context, input json.RawMessage) *model.ToolResult {
	var in globInput
	if err := json.Unmarshal(input, &in); err != nil {
		return failure("invalid input: %v", err)
	}
	if in.Pattern == "" {
		return failure("pattern is required")
	}

	root, err := t.workspace.Resolve(in.Path)
	if err != nil {
		return failure("%v", err)
	}

	re, err := globToRegexp(in.Pattern)
	if err != nil {
		return failure("invalid pattern: %v", err)
	}

	var matches []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if strings.HasPrefix(name, ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if re.MatchString(filepath.ToSlash(rel)) {
			matches = append(matches, rel)
		}
		if len(matches) >= maxSearchResults {
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return failure("search failed: %v", err)
	}

	sort.Strings(matches)
	if len(matches) == 0 {
		return &model.ToolResult{Success: true, Message: "No files found"}
	}
	return &model.ToolResult{Success: true, Output: strings.Join(matches, "\n")}
}

func (t *globTool) Preview(input json.RawMessage) string {
	var in globInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "Find files"
	}
	path := in.Path
	if path == "" {
		path = "."
	}
	return fmt.Sprintf("Find files: %s (path: %s)", in.Pattern, path)
}

// globToRegexp translates a glob pattern into an anchored regexp: **
// crosses directory separators, * and ? do not.
func globToRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		switch c := pattern[i]; c {
		case '*':
			if i+1 < len(pattern) && pattern[i+1] == '*' {
				b.WriteString(".*")
				i++
				// Collapse "**/" so it also matches zero directories.
				if i+1 < len(pattern) && pattern[i+1] == '/' {
					b.WriteString("/?")
					i++
				}
			} else {
				b.WriteString("[^/]*")
			}
		case '?':
			b.WriteString("[^/]")
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

// grep

type grepInput struct {
	Pattern         string `json:"pattern"`
	Path            string `json:"path,omitempty"`
	FilePattern     string `json:"file_pattern,omitempty"`
	CaseInsensitive bool   `json:"case_insensitive,omitempty"`
	OutputMode      string `json:"output_mode,omitempty"`
	HeadLimit       int    `json:"head_limit,omitempty"`
}

type grepTool struct {
	workspace *Workspace
}

func (t *grepTool) Name() string { return "grep" }

func (t *grepTool) Description() string {
	return "Search file contents with a regular expression. Output modes: files_with_matches (default), content, count."
}

func (t *grepTool) InputSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"pattern": {"type": "string", "description": "Regular expression to search for"},
			"path": {"type": "string", "description": "Directory to search from"},
			"file_pattern": {"type": "string", "description": "Glob filter for file names"},
			"case_insensitive": {"type": "boolean"},
			"output_mode": {"type": "string", "enum": ["files_with_matches", "content", "count"]},
			"head_limit": {"type": "integer", "description": "Maximum results"}
		},
		"required": ["pattern"]
	}`)
}

func (t *grepTool) Execute(ctx context.Context, input json.RawMessage) *model.ToolResult {
	var in grepInput
	if err := json.Unmarshal(input, &in); err != nil {
		return failure("invalid input: %v", err)
	}
	if in.Pattern == "" {
		return failure("pattern is required")
	}

	root, err := t.workspace.Resolve(in.Path)
	if err != nil {
		return failure("%v", err)
	}

	expr := in.Pattern
	if in.CaseInsensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return failure("invalid pattern: %v", err)
	}

	var fileRe *regexp.Regexp
	if in.FilePattern != "" {
		fileRe, err = globToRegexp(in.FilePattern)
		if err != nil {
			return failure("invalid file_pattern: %v", err)
		}
	}

	limit := in.HeadLimit
	if limit <= 0 || limit > maxSearchResults {
		limit = maxSearchResults
	}

	mode := in.OutputMode
	if mode == "" {
		mode = "files_with_matches"
	}

	var results []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || len(results) >= limit {
			if len(results) >= limit {
				return filepath.SkipAll
			}
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if fileRe != nil && !fileRe.MatchString(rel) && !fileRe.MatchString(filepath.Base(rel)) {
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil || !isText(data) {
			return nil
		}

		switch mode {
		case "content":
			for i, line := range strings.Split(string(data), "\n") {
				if re.MatchString(line) {
					results = append(results, fmt.Sprintf("%s:%d:%s", rel, i+1, line))
					if len(results) >= limit {
						break
					}
				}
			}
		case "count":
			count := len(re.FindAllIndex(data, -1))
			if count > 0 {
				results = append(results, fmt.Sprintf("%s:%d", rel, count))
			}
		default:
			if re.Match(data) {
				results = append(results, rel)
			}
		}
		return nil
	})
	if err != nil {
		return failure("search failed: %v", err)
	}

	if len(results) == 0 {
		return &model.ToolResult{Success: true, Message: "No matches found"}
	}
	return &model.ToolResult{Success: true, Output: strings.Join(results, "\n")}
}

func (t *grepTool) Preview(input json.RawMessage) string {
	var in grepInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "Search contents"
	}
	path := in.Path
	if path == "" {
		path = "."
	}
	return fmt.Sprintf("Search contents: %s (path: %s)", in.Pattern, path)
}

// isText rejects binary files by checking for NUL bytes in the first KB.
func isText(data []byte) bool {
	n := len(data)
	if n > 1024 {
		n = 1024
	}
	for _, b := range data[:n] {
		if b == 0 {
			return false
		}
	}
	return true
}
