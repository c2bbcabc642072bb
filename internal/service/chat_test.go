package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-ai/agent-console/internal/llm"
	"github.com/halcyon-ai/agent-console/internal/model"
	"github.com/halcyon-ai/agent-console/internal/tools"
	"github.com/halcyon-ai/agent-console/pkg/logger"
)

// scriptedLLM replays one canned turn per CompleteStream call.
type scriptedLLM struct {
	turns [][]llm.StreamEvent
	calls int
}

func (s *scriptedLLM) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return &llm.CompletionResponse{Content: "ok"}, nil
}

func (s *scriptedLLM) CompleteStream(ctx context.Context, req *llm.CompletionRequest, cb llm.StreamCallback) (*llm.CompletionResponse, error) {
	if s.calls >= len(s.turns) {
		return nil, fmt.Errorf("unexpected completion call %d", s.calls)
	}
	events := s.turns[s.calls]
	s.calls++

	var content string
	for _, ev := range events {
		if err := cb(ev); err != nil {
			return nil, err
		}
		content += ev.Text
	}
	return &llm.CompletionResponse{Content: content, Model: req.Model}, nil
}

func (s *scriptedLLM) Name() string     { return "scripted" }
func (s *scriptedLLM) Models() []string { return []string{"scripted"} }

func toolUse(name, input string) llm.StreamEvent {
	return llm.StreamEvent{ToolUse: &llm.ToolUseBlock{ID: "tu_1", Name: name, Input: json.RawMessage(input)}}
}

func newChatFixture(t *testing.T, turns [][]llm.StreamEvent) (*ChatService, *OperationService) {
	t.Helper()
	log := logger.NewNop()
	ws, err := tools.NewWorkspace(t.TempDir())
	require.NoError(t, err)
	registry := tools.NewRegistry(tools.Config{Workspace: ws, BashTimeout: 30 * time.Second})
	ops := NewOperationService(registry, log)
	chat := NewChatService(&scriptedLLM{turns: turns}, registry, ops, "sonnet", log)
	return chat, ops
}

func collect(t *testing.T, chat *ChatService, req *model.ChatRequest) []model.StreamRecord {
	t.Helper()
	var records []model.StreamRecord
	err := chat.Stream(context.Background(), "user-1", "sess-1", req, func(rec model.StreamRecord) error {
		records = append(records, rec)
		return nil
	})
	require.NoError(t, err)
	return records
}

func TestStreamPlainTextTurn(t *testing.T) {
	chat, _ := newChatFixture(t, [][]llm.StreamEvent{
		{{Text: "Hello"}, {Text: " there"}},
	})

	records := collect(t, chat, &model.ChatRequest{Message: "hi"})

	require.Len(t, records, 3)
	assert.Equal(t, model.StreamText, records[0].Type)
	assert.Equal(t, "Hello", records[0].Content)
	assert.Equal(t, " there", records[1].Content)
	assert.Equal(t, model.StreamDone, records[2].Type)
}

func TestStreamExecutesToolAndContinues(t *testing.T) {
	chat, _ := newChatFixture(t, [][]llm.StreamEvent{
		{{Text: "Listing."}, toolUse("list_directory", `{"path": "."}`)},
		{{Text: "The directory is empty."}},
	})

	records := collect(t, chat, &model.ChatRequest{Message: "what's here?"})

	types := make([]model.StreamEventType, len(records))
	for i, r := range records {
		types[i] = r.Type
	}
	assert.Equal(t, []model.StreamEventType{
		model.StreamText, model.StreamToolUse, model.StreamToolResult,
		model.StreamText, model.StreamDone,
	}, types)
	assert.Equal(t, "list_directory", records[1].Name)

	var result model.ToolResult
	require.NoError(t, json.Unmarshal(records[2].Result, &result))
	assert.True(t, result.Success)
}

func TestStreamPausesForPermission(t *testing.T) {
	chat, ops := newChatFixture(t, [][]llm.StreamEvent{
		{toolUse("bash", `{"command": "rm -rf build"}`)},
	})

	records := collect(t, chat, &model.ChatRequest{Message: "clean up"})

	last := records[len(records)-1]
	require.Equal(t, model.StreamPermissionRequired, last.Type)
	assert.NotZero(t, last.LogID)
	assert.Contains(t, last.Preview, "rm -rf build")

	pending := ops.Pending(context.Background(), "user-1")
	require.Len(t, pending, 1)
	assert.Equal(t, last.LogID, pending[0].ID)
}

func TestStreamAutoApproveSkipsPermission(t *testing.T) {
	chat, ops := newChatFixture(t, [][]llm.StreamEvent{
		{toolUse("bash", `{"command": "rm -rf build"}`)},
		{{Text: "Removed."}},
	})

	records := collect(t, chat, &model.ChatRequest{Message: "clean up", AutoApprove: true})

	for _, rec := range records {
		assert.NotEqual(t, model.StreamPermissionRequired, rec.Type)
	}
	assert.Equal(t, model.StreamDone, records[len(records)-1].Type)
	assert.Empty(t, ops.Pending(context.Background(), "user-1"))
}

func TestStreamPausesForUserInput(t *testing.T) {
	chat, _ := newChatFixture(t, [][]llm.StreamEvent{
		{toolUse("ask_user_question", `{
			"questions": [{
				"header": "Scope",
				"question": "Which part should I refactor?",
				"options": [{"label": "parser"}, {"label": "renderer"}]
			}]
		}`)},
	})

	records := collect(t, chat, &model.ChatRequest{Message: "refactor it"})

	require.GreaterOrEqual(t, len(records), 3)
	last := records[len(records)-1]
	assert.Equal(t, model.StreamWaitingUserInput, last.Type)

	toolResult := records[len(records)-2]
	require.Equal(t, model.StreamToolResult, toolResult.Type)
	var result model.ToolResult
	require.NoError(t, json.Unmarshal(toolResult.Result, &result))
	assert.True(t, result.RequiresUserInput)
	require.Len(t, result.Questions, 1)
	assert.Equal(t, "Scope", result.Questions[0].Header)
}

func TestStreamLLMFailureEmitsErrorRecord(t *testing.T) {
	chat, _ := newChatFixture(t, nil) // scripted client errors on any call

	records := collect(t, chat, &model.ChatRequest{Message: "hi"})

	require.Len(t, records, 1)
	assert.Equal(t, model.StreamError, records[0].Type)
	assert.NotEmpty(t, records[0].Error)
}

func TestCommandHandling(t *testing.T) {
	chat, _ := newChatFixture(t, nil)

	resp, ok := chat.Command(context.Background(), "/help")
	require.True(t, ok)
	assert.Contains(t, resp.Content, "/model")

	resp, ok = chat.Command(context.Background(), "/model")
	require.True(t, ok)
	assert.Contains(t, resp.Content, "sonnet")

	resp, ok = chat.Command(context.Background(), "/model haiku")
	require.True(t, ok)
	assert.Equal(t, "haiku", chat.Model())

	resp, ok = chat.Command(context.Background(), "/tools")
	require.True(t, ok)
	assert.Contains(t, resp.Content, "bash")

	resp, ok = chat.Command(context.Background(), "/clear")
	require.True(t, ok)
	assert.True(t, resp.Clear)

	resp, ok = chat.Command(context.Background(), "/bogus")
	require.True(t, ok)
	assert.Equal(t, "error", resp.Type)

	_, ok = chat.Command(context.Background(), "plain message")
	assert.False(t, ok)
}

func TestResolveModelAliases(t *testing.T) {
	assert.Equal(t, "claude-3-5-sonnet-20241022", resolveModel("sonnet"))
	assert.Equal(t, "claude-3-5-haiku-20241022", resolveModel("haiku"))
	assert.Equal(t, "custom-model-id", resolveModel("custom-model-id"))
}
