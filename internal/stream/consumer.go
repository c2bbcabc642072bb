package stream

import (
	"context"
	"encoding/json"
	"html"
	"io"
	"strings"

	"github.com/halcyon-ai/agent-console/internal/model"
	"github.com/halcyon-ai/agent-console/pkg/logger"
)

// recordPrefix marks significant lines on the response stream. Lines without
// it (blank keep-alives, comments) are ignored.
const recordPrefix = "data: "

// readChunkSize is the read granularity; record boundaries never depend on it.
const readChunkSize = 4096

// Renderer receives one callback per event, in arrival order. Implementations
// project the turn into a view; they must not feed state back into it.
type Renderer interface {
	// TextDelta reports an incremental piece of assistant prose. segment
	// identifies the text buffer; full is that buffer's accumulated content.
	TextDelta(segment int, delta, full string)
	// ToolUse reports a tool invocation requested by the assistant.
	ToolUse(name string, input json.RawMessage)
	// ToolResult reports a finished tool execution with its display summary.
	ToolResult(name, summary string, failed bool)
	// Questions reports that the assistant posed questions and the turn is
	// blocked until the user answers.
	Questions(questions []model.Question)
	// PermissionRequired reports a privileged operation paused on approval.
	// The preview is HTML-escaped with newlines converted to <br>.
	PermissionRequired(logID int64, preview string)
	// WaitingForInput reports the informational waiting marker.
	WaitingForInput()
	// StreamError reports an error surfaced on the stream.
	StreamError(message string)
}

// Saver persists the finished turn. Exactly one call is made per stream;
// failures are logged and never surfaced.
type Saver interface {
	Save(ctx context.Context, role model.Role, content string, metadata map[string]any) error
}

// Consumer converts one chat response stream into a Turn. A Consumer handles
// a single stream; construct a new one per turn.
type Consumer struct {
	renderer Renderer
	saver    Saver
	logger   *logger.Logger
}

// NewConsumer creates a consumer that drives renderer and finalizes through
// saver. Either may be nil, in which case that side effect is skipped.
func NewConsumer(renderer Renderer, saver Saver, log *logger.Logger) *Consumer {
	if log == nil {
		log = logger.Global()
	}
	return &Consumer{
		renderer: renderer,
		saver:    saver,
		logger:   log,
	}
}

// Run consumes body until EOF, dispatching each record in arrival order, then
// finalizes the turn with one persistence call. A transport failure mid-stream
// is surfaced as a terminal error event on the turn, not as a Run error; the
// turn is finished either way.
func (c *Consumer) Run(ctx context.Context, body io.Reader) (*Turn, error) {
	turn := NewTurn()
	var framer Framer

	buf := make([]byte, readChunkSize)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			for _, line := range framer.Push(buf[:n]) {
				c.dispatch(turn, line)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			c.handleError(turn, err.Error())
			break
		}
		select {
		case <-ctx.Done():
			c.handleError(turn, ctx.Err().Error())
			c.finalize(ctx, turn)
			return turn, ctx.Err()
		default:
		}
	}

	// A final record may arrive without its newline.
	if tail := framer.Flush(); len(tail) > 0 {
		c.dispatch(turn, tail)
	}

	c.finalize(ctx, turn)
	return turn, nil
}

// dispatch decodes one line and applies it to the turn. Lines without the
// record prefix, unknown types, and malformed JSON are dropped without
// comment: backends may emit forward-compatible record types.
func (c *Consumer) dispatch(turn *Turn, line []byte) {
	s := string(line)
	if !strings.HasPrefix(s, recordPrefix) {
		return
	}

	var rec model.StreamRecord
	if err := json.Unmarshal([]byte(s[len(recordPrefix):]), &rec); err != nil {
		return
	}

	switch rec.Type {
	case model.StreamText:
		turn.Events = append(turn.Events, rec)
		segment, full := turn.appendText(rec.Content)
		if c.renderer != nil {
			c.renderer.TextDelta(segment, rec.Content, full)
		}

	case model.StreamToolUse:
		turn.Events = append(turn.Events, rec)
		turn.closeText()
		if c.renderer != nil {
			c.renderer.ToolUse(rec.Name, rec.Input)
		}

	case model.StreamToolResult:
		turn.Events = append(turn.Events, rec)
		turn.closeText()
		c.handleToolResult(turn, rec)

	case model.StreamPermissionRequired:
		turn.Events = append(turn.Events, rec)
		turn.State = TurnAwaitingApproval
		turn.PendingLogID = rec.LogID
		if c.renderer != nil {
			c.renderer.PermissionRequired(rec.LogID, SanitizePreview(rec.Preview))
		}

	case model.StreamWaitingUserInput:
		turn.Events = append(turn.Events, rec)
		if c.renderer != nil {
			c.renderer.WaitingForInput()
		}

	case model.StreamError:
		turn.Events = append(turn.Events, rec)
		if c.renderer != nil {
			c.renderer.StreamError(rec.Error)
		}

	case model.StreamDone:
		// Informational; the stream still runs to transport EOF.

	default:
		// Unrecognized type: drop and continue.
	}
}

func (c *Consumer) handleToolResult(turn *Turn, rec model.StreamRecord) {
	var result model.ToolResult
	if len(rec.Result) > 0 {
		// Best effort: an undecodable result still renders via the raw probe.
		_ = json.Unmarshal(rec.Result, &result)
	}

	if result.RequiresUserInput && len(result.Questions) > 0 {
		turn.State = TurnAwaitingAnswer
		turn.Questions = result.Questions
		if c.renderer != nil {
			c.renderer.Questions(result.Questions)
		}
		return
	}

	summary, failed := SummarizeResult(rec.Result)
	if c.renderer != nil {
		c.renderer.ToolResult(rec.Name, summary, failed)
	}
}

func (c *Consumer) handleError(turn *Turn, message string) {
	rec := model.StreamRecord{Type: model.StreamError, Error: message}
	turn.Events = append(turn.Events, rec)
	if c.renderer != nil {
		c.renderer.StreamError(message)
	}
}

// finalize marks the turn finished and issues the single persistence call:
// the flattened text plus the full event list. Persistence failures are
// logged only; the conversation continues in memory regardless.
func (c *Consumer) finalize(ctx context.Context, turn *Turn) {
	if turn.State == TurnStreaming {
		turn.State = TurnFinished
	}

	if c.saver == nil {
		return
	}

	metadata := map[string]any{
		"events": turn.Events,
	}
	if err := c.saver.Save(ctx, model.RoleAssistant, turn.Text(), metadata); err != nil {
		c.logger.Warn("failed to persist turn", "error", err)
	}
}

// SummarizeResult picks the human-readable string for a tool result. Success
// payloads probe output, then content, then message, falling back to the full
// serialized result; failures report the error field.
func SummarizeResult(raw json.RawMessage) (summary string, failed bool) {
	if len(raw) == 0 {
		return "", false
	}

	var result model.ToolResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return string(raw), false
	}

	if !result.Success {
		if result.Error != "" {
			return result.Error, true
		}
		return string(raw), false
	}

	switch {
	case result.Output != "":
		return result.Output, false
	case result.Content != "":
		return result.Content, false
	case result.Message != "":
		return result.Message, false
	}
	return string(raw), false
}

// SanitizePreview HTML-escapes an operation preview and converts newlines to
// line breaks so it can be injected into a rendered view verbatim.
func SanitizePreview(preview string) string {
	if preview == "" {
		preview = "This operation requires your approval"
	}
	escaped := html.EscapeString(preview)
	return strings.ReplaceAll(escaped, "\n", "<br>")
}
