package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/halcyon-ai/agent-console/internal/model"
	"github.com/halcyon-ai/agent-console/internal/stream"
)

// terminalRenderer projects a chat turn onto the terminal.
type terminalRenderer struct {
	out io.Writer
}

func (r *terminalRenderer) TextDelta(segment int, delta, full string) {
	fmt.Fprint(r.out, delta)
}

func (r *terminalRenderer) ToolUse(name string, input json.RawMessage) {
	fmt.Fprintf(r.out, "\n[tool] %s %s\n", name, compactJSON(input))
}

func (r *terminalRenderer) ToolResult(name, summary string, failed bool) {
	marker := "ok"
	if failed {
		marker = "failed"
	}
	fmt.Fprintf(r.out, "[tool] %s %s:\n%s\n", name, marker, indent(summary, "  "))
}

func (r *terminalRenderer) Questions(questions []model.Question) {
	fmt.Fprintf(r.out, "\nThe assistant has %d question(s) for you.\n", len(questions))
}

func (r *terminalRenderer) PermissionRequired(logID int64, preview string) {
	// The preview arrives sanitized for HTML views; undo that for the terminal.
	text := strings.ReplaceAll(preview, "<br>", "\n")
	fmt.Fprintf(r.out, "\nOperation #%d requires approval:\n%s\n", logID, indent(text, "  "))
}

func (r *terminalRenderer) WaitingForInput() {
	fmt.Fprintln(r.out, "\n(waiting for your input)")
}

func (r *terminalRenderer) StreamError(message string) {
	fmt.Fprintf(r.out, "\nerror: %s\n", message)
}

func compactJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	s := buf.String()
	if len(s) > 120 {
		s = s[:120] + "..."
	}
	return s
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

// promptApproval asks for an approve/reject decision on a paused operation.
func promptApproval(in *bufio.Reader, out io.Writer) (approve bool, reason string) {
	fmt.Fprint(out, "Approve? [y/N] ")
	line, _ := in.ReadString('\n')
	if s := strings.ToLower(strings.TrimSpace(line)); s == "y" || s == "yes" {
		return true, ""
	}
	fmt.Fprint(out, "Reason (optional): ")
	reason, _ = in.ReadString('\n')
	return false, strings.TrimSpace(reason)
}

// promptAnswers walks the posed questions and collects a selection for each.
func promptAnswers(in *bufio.Reader, out io.Writer, questions []model.Question) map[string]stream.Selection {
	selections := make(map[string]stream.Selection, len(questions))

	for _, q := range questions {
		fmt.Fprintf(out, "\n%s: %s\n", q.Header, q.Question)
		for i, opt := range q.Options {
			if opt.Description != "" {
				fmt.Fprintf(out, "  %d) %s - %s\n", i+1, opt.Label, opt.Description)
			} else {
				fmt.Fprintf(out, "  %d) %s\n", i+1, opt.Label)
			}
		}
		fmt.Fprintf(out, "  %d) other\n", len(q.Options)+1)

		if q.MultiSelect {
			fmt.Fprint(out, "Choose (comma-separated numbers): ")
		} else {
			fmt.Fprint(out, "Choose: ")
		}
		line, _ := in.ReadString('\n')

		var sel stream.Selection
		for _, field := range strings.Split(strings.TrimSpace(line), ",") {
			n, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil || n < 1 || n > len(q.Options)+1 {
				continue
			}
			if n == len(q.Options)+1 {
				sel.OtherSelected = true
				fmt.Fprint(out, "Your answer: ")
				text, _ := in.ReadString('\n')
				sel.OtherText = strings.TrimSpace(text)
				continue
			}
			sel.Labels = append(sel.Labels, q.Options[n-1].Label)
			if !q.MultiSelect {
				break
			}
		}
		selections[q.Header] = sel
	}

	return selections
}
