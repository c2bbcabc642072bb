package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-ai/agent-console/internal/model"
	"github.com/halcyon-ai/agent-console/internal/stream"
	"github.com/halcyon-ai/agent-console/pkg/logger"
)

type nopRenderer struct {
	mu    sync.Mutex
	calls []string
}

func (r *nopRenderer) record(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *nopRenderer) TextDelta(segment int, delta, full string) {
	r.record("text:" + delta)
}
func (r *nopRenderer) ToolUse(name string, input json.RawMessage)  { r.record("tool_use:" + name) }
func (r *nopRenderer) ToolResult(name, summary string, failed bool) { r.record("tool_result:" + name) }
func (r *nopRenderer) Questions(questions []model.Question)        { r.record("questions") }
func (r *nopRenderer) PermissionRequired(logID int64, preview string) {
	r.record(fmt.Sprintf("permission:%d", logID))
}
func (r *nopRenderer) WaitingForInput()           { r.record("waiting") }
func (r *nopRenderer) StreamError(message string) { r.record("error:" + message) }

func writeRecords(w http.ResponseWriter, records ...model.StreamRecord) {
	w.Header().Set("Content-Type", "text/event-stream")
	for _, rec := range records {
		data, _ := json.Marshal(rec)
		fmt.Fprintf(w, "data: %s\n\n", data)
	}
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(server.URL, "test-token", "sess-1", WithLogger(logger.NewNop()))
}

func TestSendChatStreamsAndPersists(t *testing.T) {
	var mu sync.Mutex
	var saves []model.SaveMessageRequest

	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "sess-1", r.URL.Query().Get("session_id"))
		writeRecords(w,
			model.StreamRecord{Type: model.StreamText, Content: "Hello"},
			model.StreamRecord{Type: model.StreamText, Content: " world"},
			model.StreamRecord{Type: model.StreamDone},
		)
	})
	mux.HandleFunc("/api/save-message", func(w http.ResponseWriter, r *http.Request) {
		var req model.SaveMessageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		saves = append(saves, req)
		mu.Unlock()
		w.Write([]byte(`{"success": true}`))
	})

	c := newTestClient(t, mux)
	renderer := &nopRenderer{}

	result, err := c.SendChat(context.Background(), &model.ChatRequest{Message: "hi"}, renderer)
	require.NoError(t, err)
	require.NotNil(t, result.Turn)
	assert.Equal(t, stream.TurnFinished, result.Turn.State)
	assert.Equal(t, "Hello world", result.Turn.Text())

	// One save for the user message, one for the finished assistant turn.
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, saves, 2)
	assert.Equal(t, model.RoleUser, saves[0].Role)
	assert.Equal(t, "hi", saves[0].Content)
	assert.Equal(t, model.RoleAssistant, saves[1].Role)
	assert.Equal(t, "Hello world", saves[1].Content)
}

func TestSendChatCommandResponse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(model.CommandResponse{Type: "help", Content: "commands..."})
	})

	c := newTestClient(t, mux)

	result, err := c.SendChat(context.Background(), &model.ChatRequest{Message: "/help"}, &nopRenderer{})
	require.NoError(t, err)
	assert.Nil(t, result.Turn)
	require.NotNil(t, result.Command)
	assert.Equal(t, "help", result.Command.Type)
}

func TestSendChatSingleFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		writeRecords(w, model.StreamRecord{Type: model.StreamDone})
	})
	mux.HandleFunc("/api/save-message", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true}`))
	})

	c := newTestClient(t, mux)

	done := make(chan error, 1)
	go func() {
		_, err := c.SendChat(context.Background(), &model.ChatRequest{Message: "first"}, &nopRenderer{})
		done <- err
	}()

	<-started
	_, err := c.SendChat(context.Background(), &model.ChatRequest{Message: "second"}, &nopRenderer{})
	assert.ErrorIs(t, err, ErrTurnInFlight)

	close(release)
	require.NoError(t, <-done)

	// The slot frees up once the first turn finishes.
	_, err = c.SendChat(context.Background(), &model.ChatRequest{Message: "third"}, &nopRenderer{})
	assert.NotErrorIs(t, err, ErrTurnInFlight)
}

func TestSendChatPermissionPause(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		writeRecords(w,
			model.StreamRecord{Type: model.StreamToolUse, Name: "bash", Input: json.RawMessage(`{"command":"rm -rf x"}`)},
			model.StreamRecord{Type: model.StreamPermissionRequired, LogID: 7, Preview: "Run command:\nrm -rf x"},
		)
	})
	mux.HandleFunc("/api/save-message", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true}`))
	})

	c := newTestClient(t, mux)
	renderer := &nopRenderer{}

	result, err := c.SendChat(context.Background(), &model.ChatRequest{Message: "clean"}, renderer)
	require.NoError(t, err)
	assert.Equal(t, stream.TurnAwaitingApproval, result.Turn.State)
	assert.Equal(t, int64(7), result.Turn.PendingLogID)
	assert.Contains(t, renderer.calls, "permission:7")
}

func TestApproveAndRejectOperation(t *testing.T) {
	var rejectBody model.RejectRequest

	mux := http.NewServeMux()
	mux.HandleFunc("/api/operations/7/approve", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		json.NewEncoder(w).Encode(model.ApproveResponse{
			Success: true,
			Result:  &model.ToolResult{Success: true, Output: "done"},
		})
	})
	mux.HandleFunc("/api/operations/8/reject", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rejectBody))
		w.Write([]byte(`{"success": true}`))
	})

	c := newTestClient(t, mux)

	resp, err := c.ApproveOperation(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "done", resp.Result.Output)

	require.NoError(t, c.RejectOperation(context.Background(), 8, "too risky"))
	assert.Equal(t, "too risky", rejectBody.Reason)
}

func TestSendAnswersSynthesizesMessage(t *testing.T) {
	var chatBody model.ChatRequest

	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&chatBody))
		writeRecords(w, model.StreamRecord{Type: model.StreamDone})
	})
	mux.HandleFunc("/api/save-message", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true}`))
	})

	c := newTestClient(t, mux)

	questions := []model.Question{
		{Header: "Region", Question: "Where?", Options: []model.QuestionOption{{Label: "us-east-1"}}},
		{Header: "Strategy", Question: "How?", MultiSelect: true, Options: []model.QuestionOption{{Label: "blue"}, {Label: "green"}}},
	}
	selections := map[string]stream.Selection{
		"Region":   {Labels: []string{"us-east-1"}},
		"Strategy": {Labels: []string{"blue", "green"}},
	}

	_, err := c.SendAnswers(context.Background(), questions, selections, nil, &nopRenderer{})
	require.NoError(t, err)
	assert.Equal(t, "Region: us-east-1\nStrategy: blue, green", chatBody.Message)

	_, err = c.SendAnswers(context.Background(), questions, map[string]stream.Selection{}, nil, &nopRenderer{})
	assert.Error(t, err)
}

func TestAPIErrorSurfacesServerMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/model", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "model name is required"}`))
	})

	c := newTestClient(t, mux)

	err := c.SetModel(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model name is required")
}

func TestSaveTimeoutDoesNotHang(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/save-message", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true}`))
	})

	c := newTestClient(t, mux)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, c.Save(ctx, model.RoleAssistant, "text", nil))
}
