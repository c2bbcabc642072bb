package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-ai/agent-console/internal/model"
	"github.com/halcyon-ai/agent-console/pkg/logger"
)

// recordingRenderer captures every callback in arrival order.
type recordingRenderer struct {
	calls     []string
	questions []model.Question
}

func (r *recordingRenderer) TextDelta(segment int, delta, full string) {
	r.calls = append(r.calls, fmt.Sprintf("text[%d]:%s", segment, delta))
}

func (r *recordingRenderer) ToolUse(name string, input json.RawMessage) {
	r.calls = append(r.calls, "tool_use:"+name)
}

func (r *recordingRenderer) ToolResult(name, summary string, failed bool) {
	r.calls = append(r.calls, fmt.Sprintf("tool_result:%s:%s:%v", name, summary, failed))
}

func (r *recordingRenderer) Questions(questions []model.Question) {
	r.questions = questions
	r.calls = append(r.calls, fmt.Sprintf("questions:%d", len(questions)))
}

func (r *recordingRenderer) PermissionRequired(logID int64, preview string) {
	r.calls = append(r.calls, fmt.Sprintf("permission:%d:%s", logID, preview))
}

func (r *recordingRenderer) WaitingForInput() {
	r.calls = append(r.calls, "waiting")
}

func (r *recordingRenderer) StreamError(message string) {
	r.calls = append(r.calls, "error:"+message)
}

// countingSaver records persistence calls.
type countingSaver struct {
	calls    int
	role     model.Role
	content  string
	metadata map[string]any
	err      error
}

func (s *countingSaver) Save(ctx context.Context, role model.Role, content string, metadata map[string]any) error {
	s.calls++
	s.role = role
	s.content = content
	s.metadata = metadata
	return s.err
}

// chunkReader yields its chunks one Read at a time, then EOF.
type chunkReader struct {
	chunks [][]byte
	err    error
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	if n < len(r.chunks[0]) {
		r.chunks[0] = r.chunks[0][n:]
	} else {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

func record(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return "data: " + string(data) + "\n"
}

func runConsumer(t *testing.T, body io.Reader) (*Turn, *recordingRenderer, *countingSaver) {
	t.Helper()
	renderer := &recordingRenderer{}
	saver := &countingSaver{}
	consumer := NewConsumer(renderer, saver, logger.NewNop())

	turn, err := consumer.Run(context.Background(), body)
	require.NoError(t, err)
	return turn, renderer, saver
}

func TestTextAccumulatesIntoOneBuffer(t *testing.T) {
	input := record(t, model.StreamRecord{Type: model.StreamText, Content: "A"}) +
		record(t, model.StreamRecord{Type: model.StreamText, Content: "B"})

	turn, renderer, _ := runConsumer(t, strings.NewReader(input))

	assert.Equal(t, "AB", turn.Text())
	assert.Equal(t, []string{"AB"}, turn.Segments())
	assert.Equal(t, []string{"text[0]:A", "text[0]:B"}, renderer.calls)
}

func TestChunkingInvariance(t *testing.T) {
	input := record(t, model.StreamRecord{Type: model.StreamText, Content: "Hello "}) +
		record(t, model.StreamRecord{Type: model.StreamToolUse, Name: "bash", Input: json.RawMessage(`{"command":"ls"}`)}) +
		record(t, model.StreamRecord{Type: model.StreamToolResult, Name: "bash", Result: json.RawMessage(`{"success":true,"output":"ok"}`)}) +
		record(t, model.StreamRecord{Type: model.StreamText, Content: "world"})

	// Reference run: the whole stream in a single chunk.
	wantTurn, wantRenderer, _ := runConsumer(t, strings.NewReader(input))

	for _, size := range []int{1, 2, 3, 5, 7, 16, 64} {
		var chunks [][]byte
		for i := 0; i < len(input); i += size {
			end := i + size
			if end > len(input) {
				end = len(input)
			}
			chunks = append(chunks, []byte(input[i:end]))
		}

		turn, renderer, saver := runConsumer(t, &chunkReader{chunks: chunks})

		assert.Equal(t, wantRenderer.calls, renderer.calls, "chunk size %d", size)
		assert.Equal(t, wantTurn.Events, turn.Events, "chunk size %d", size)
		assert.Equal(t, wantTurn.Text(), turn.Text(), "chunk size %d", size)
		assert.Equal(t, 1, saver.calls, "chunk size %d", size)
	}
}

func TestTextBufferResetsAfterToolEvents(t *testing.T) {
	input := record(t, model.StreamRecord{Type: model.StreamText, Content: "before"}) +
		record(t, model.StreamRecord{Type: model.StreamToolUse, Name: "read_file", Input: json.RawMessage(`{}`)}) +
		record(t, model.StreamRecord{Type: model.StreamToolResult, Name: "read_file", Result: json.RawMessage(`{"success":true,"content":"x"}`)}) +
		record(t, model.StreamRecord{Type: model.StreamText, Content: "after"})

	turn, renderer, _ := runConsumer(t, strings.NewReader(input))

	assert.Equal(t, []string{"before", "after"}, turn.Segments())
	assert.Equal(t, "beforeafter", turn.Text())
	assert.Contains(t, renderer.calls, "text[0]:before")
	assert.Contains(t, renderer.calls, "text[1]:after")
}

func TestQuestionPromptInsteadOfGenericResult(t *testing.T) {
	result := model.ToolResult{
		Success:           true,
		RequiresUserInput: true,
		Questions: []model.Question{
			{
				Header:      "H",
				Question:    "Q?",
				MultiSelect: false,
				Options:     []model.QuestionOption{{Label: "X", Description: "d"}},
			},
		},
	}
	raw, err := json.Marshal(result)
	require.NoError(t, err)

	input := record(t, model.StreamRecord{Type: model.StreamToolResult, Name: "ask_user_question", Result: raw})

	turn, renderer, _ := runConsumer(t, strings.NewReader(input))

	assert.Equal(t, []string{"questions:1"}, renderer.calls)
	assert.Equal(t, TurnAwaitingAnswer, turn.State)
	require.Len(t, turn.Questions, 1)
	assert.Equal(t, "H", turn.Questions[0].Header)
}

func TestNonRecordLinesProduceNoEvents(t *testing.T) {
	input := "\n" +
		": keep-alive\n" +
		"event: something\n" +
		"data: {not json}\n" +
		record(t, model.StreamRecord{Type: "unknown_future_type"}) +
		record(t, model.StreamRecord{Type: model.StreamText, Content: "ok"})

	turn, renderer, _ := runConsumer(t, strings.NewReader(input))

	assert.Equal(t, []string{"text[0]:ok"}, renderer.calls)
	require.Len(t, turn.Events, 1)
	assert.Equal(t, model.StreamText, turn.Events[0].Type)
}

func TestPermissionRequiredPausesTurn(t *testing.T) {
	input := record(t, model.StreamRecord{
		Type:    model.StreamPermissionRequired,
		LogID:   42,
		Preview: "run command:\nrm -rf /tmp/x <now>",
	})

	turn, renderer, _ := runConsumer(t, strings.NewReader(input))

	assert.Equal(t, TurnAwaitingApproval, turn.State)
	assert.Equal(t, int64(42), turn.PendingLogID)
	require.Len(t, renderer.calls, 1)
	assert.Equal(t, "permission:42:run command:<br>rm -rf /tmp/x &lt;now&gt;", renderer.calls[0])
}

func TestWaitingAndErrorRecords(t *testing.T) {
	input := record(t, model.StreamRecord{Type: model.StreamWaitingUserInput}) +
		record(t, model.StreamRecord{Type: model.StreamError, Error: "boom"}) +
		record(t, model.StreamRecord{Type: model.StreamText, Content: "still here"})

	turn, renderer, _ := runConsumer(t, strings.NewReader(input))

	// The stream keeps being read after an error record.
	assert.Equal(t, []string{"waiting", "error:boom", "text[0]:still here"}, renderer.calls)
	assert.Equal(t, "still here", turn.Text())
}

func TestExactlyOnePersistCallWithFullTurn(t *testing.T) {
	input := record(t, model.StreamRecord{Type: model.StreamText, Content: "Hi "}) +
		record(t, model.StreamRecord{Type: model.StreamToolUse, Name: "bash", Input: json.RawMessage(`{}`)}) +
		record(t, model.StreamRecord{Type: model.StreamToolResult, Name: "bash", Result: json.RawMessage(`{"success":true,"output":"ok"}`)}) +
		record(t, model.StreamRecord{Type: model.StreamText, Content: "there"})

	turn, _, saver := runConsumer(t, strings.NewReader(input))

	assert.Equal(t, 1, saver.calls)
	assert.Equal(t, model.RoleAssistant, saver.role)
	assert.Equal(t, "Hi there", saver.content)
	events, ok := saver.metadata["events"].([]model.StreamRecord)
	require.True(t, ok)
	assert.Equal(t, turn.Events, events)
}

func TestPersistenceFailureIsSwallowed(t *testing.T) {
	renderer := &recordingRenderer{}
	saver := &countingSaver{err: errors.New("persistence down")}
	consumer := NewConsumer(renderer, saver, logger.NewNop())

	input := record(t, model.StreamRecord{Type: model.StreamText, Content: "hello"})
	turn, err := consumer.Run(context.Background(), strings.NewReader(input))

	require.NoError(t, err)
	assert.Equal(t, 1, saver.calls)
	assert.Equal(t, TurnFinished, turn.State)
}

func TestTransportFailureMidStreamIsTerminal(t *testing.T) {
	body := &chunkReader{
		chunks: [][]byte{[]byte(record(t, model.StreamRecord{Type: model.StreamText, Content: "partial"}))},
		err:    errors.New("connection reset"),
	}

	turn, renderer, saver := runConsumer(t, body)

	assert.Equal(t, []string{"text[0]:partial", "error:connection reset"}, renderer.calls)
	assert.Equal(t, TurnFinished, turn.State)
	assert.Equal(t, 1, saver.calls)
	assert.Equal(t, "partial", saver.content)
}

func TestTrailingRecordWithoutNewline(t *testing.T) {
	input := record(t, model.StreamRecord{Type: model.StreamText, Content: "a"}) +
		`data: {"type":"text","content":"b"}` // no terminator before EOF

	turn, _, _ := runConsumer(t, strings.NewReader(input))

	assert.Equal(t, "ab", turn.Text())
}

func TestDoneRecordIsInformational(t *testing.T) {
	input := record(t, model.StreamRecord{Type: model.StreamText, Content: "x"}) +
		record(t, model.StreamRecord{Type: model.StreamDone})

	turn, renderer, _ := runConsumer(t, strings.NewReader(input))

	assert.Equal(t, []string{"text[0]:x"}, renderer.calls)
	require.Len(t, turn.Events, 1)
}

func TestSummarizeResultProbeOrder(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		want       string
		wantFailed bool
	}{
		{"output first", `{"success":true,"output":"out","content":"c","message":"m"}`, "out", false},
		{"content second", `{"success":true,"content":"c","message":"m"}`, "c", false},
		{"message third", `{"success":true,"message":"m"}`, "m", false},
		{"fallback serialized", `{"success":true,"rows":3}`, `{"success":true,"rows":3}`, false},
		{"failure shows error", `{"success":false,"error":"denied"}`, "denied", true},
		{"not json", `plain`, "plain", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, failed := SummarizeResult(json.RawMessage(tt.raw))
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantFailed, failed)
		})
	}
}
