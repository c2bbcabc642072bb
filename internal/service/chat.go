package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/halcyon-ai/agent-console/internal/llm"
	"github.com/halcyon-ai/agent-console/internal/model"
	"github.com/halcyon-ai/agent-console/internal/tools"
	"github.com/halcyon-ai/agent-console/pkg/logger"
	"github.com/halcyon-ai/agent-console/pkg/metrics"
)

// maxToolRounds bounds the completion/tool-execution loop within one turn.
const maxToolRounds = 10

// modelAliases maps the short names users type to full model identifiers.
var modelAliases = map[string]string{
	"sonnet": "claude-3-5-sonnet-20241022",
	"haiku":  "claude-3-5-haiku-20241022",
	"opus":   "claude-3-opus-20240229",
	"gpt-4o": "gpt-4o",
}

const systemPrompt = `You are an assistant operating a development workspace on behalf of the user.
You have tools for running commands, reading and editing files, searching, and saving memory.
Use ask_user_question when you need a decision from the user before continuing.
Be concise. Report what you did, not what you are about to do.`

// EmitFunc delivers one record onto the chat response stream.
type EmitFunc func(rec model.StreamRecord) error

// ChatService drives one chat turn: streaming the completion, executing
// tools, and pausing for approvals or user answers.
type ChatService struct {
	llmClient  llm.Client
	registry   *tools.Registry
	operations *OperationService
	logger     *logger.Logger

	mu           sync.RWMutex
	currentModel string
}

// NewChatService creates a new chat service.
func NewChatService(llmClient llm.Client, registry *tools.Registry, operations *OperationService, defaultModel string, log *logger.Logger) *ChatService {
	return &ChatService{
		llmClient:    llmClient,
		registry:     registry,
		operations:   operations,
		currentModel: defaultModel,
		logger:       log,
	}
}

// Model returns the currently selected model alias.
func (s *ChatService) Model() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentModel
}

// SetModel switches the selected model. Both aliases and full identifiers
// are accepted.
func (s *ChatService) SetModel(name string) error {
	if name == "" {
		return fmt.Errorf("model name is required")
	}
	s.mu.Lock()
	s.currentModel = name
	s.mu.Unlock()
	return nil
}

func resolveModel(name string) string {
	if full, ok := modelAliases[name]; ok {
		return full
	}
	return name
}

// Command handles slash commands, which short-circuit the streaming path.
// The second return value reports whether the message was a command.
func (s *ChatService) Command(ctx context.Context, message string) (*model.CommandResponse, bool) {
	if !strings.HasPrefix(message, "/") {
		return nil, false
	}

	cmd, arg, _ := strings.Cut(strings.TrimSpace(message), " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/help":
		return &model.CommandResponse{
			Type: "help",
			Content: strings.Join([]string{
				"/help - show this message",
				"/model [name] - show or switch the model (sonnet, haiku, opus, gpt-4o)",
				"/tools - list available tools",
				"/clear - clear this session's history",
			}, "\n"),
		}, true
	case "/model":
		if arg == "" {
			return &model.CommandResponse{Type: "model", Content: "Current model: " + s.Model()}, true
		}
		if err := s.SetModel(arg); err != nil {
			return &model.CommandResponse{Type: "error", Content: err.Error()}, true
		}
		return &model.CommandResponse{Type: "model", Content: "Model switched to " + arg}, true
	case "/tools":
		return &model.CommandResponse{Type: "tools", Content: strings.Join(s.registry.Names(), "\n")}, true
	case "/clear":
		// History purge happens at the handler, which owns the session service.
		return &model.CommandResponse{Type: "clear", Content: "Session cleared", Clear: true}, true
	default:
		return &model.CommandResponse{Type: "error", Content: "Unknown command: " + cmd}, true
	}
}

// Stream runs one chat turn, emitting records until the turn finishes or
// pauses. A pause (pending approval, waiting for user input) ends the stream
// without a done record; the client resumes with a new request.
func (s *ChatService) Stream(ctx context.Context, userID, sessionID string, req *model.ChatRequest, emit EmitFunc) error {
	start := time.Now()
	modelName := req.Model
	if modelName == "" {
		modelName = s.Model()
	}
	resolved := resolveModel(modelName)

	metrics.IncrementChatStreams()
	status := "success"
	defer func() {
		metrics.DecrementChatStreams()
		metrics.RecordChatStream(resolved, status, time.Since(start).Seconds())
	}()

	messages := make([]llm.ChatMessage, 0, len(req.History)+1)
	for _, h := range req.History {
		messages = append(messages, llm.ChatMessage{Role: h.Role, Content: h.Content})
	}
	messages = append(messages, llm.ChatMessage{Role: "user", Content: req.Message})

	send := func(rec model.StreamRecord) error {
		metrics.StreamRecordsTotal.WithLabelValues(string(rec.Type)).Inc()
		return emit(rec)
	}

	for round := 0; round < maxToolRounds; round++ {
		var toolUses []llm.ToolUseBlock
		resp, err := s.llmClient.CompleteStream(ctx, &llm.CompletionRequest{
			Model:     resolved,
			System:    systemPrompt,
			Messages:  messages,
			Tools:     s.registry.Definitions(),
			MaxTokens: 4096,
		}, func(ev llm.StreamEvent) error {
			if ev.Text != "" {
				return send(model.StreamRecord{Type: model.StreamText, Content: ev.Text})
			}
			if ev.ToolUse != nil {
				toolUses = append(toolUses, *ev.ToolUse)
			}
			return nil
		})
		if err != nil {
			status = "error"
			s.logger.Error("completion stream failed", "error", err, "model", resolved, "user_id", userID)
			return send(model.StreamRecord{Type: model.StreamError, Error: "The model request failed. Please try again."})
		}

		if len(toolUses) == 0 {
			return send(model.StreamRecord{Type: model.StreamDone})
		}

		if resp.Content != "" {
			messages = append(messages, llm.ChatMessage{Role: "assistant", Content: resp.Content})
		}

		for _, tu := range toolUses {
			if err := send(model.StreamRecord{Type: model.StreamToolUse, Name: tu.Name, Input: tu.Input}); err != nil {
				return err
			}

			preview := s.registry.Preview(tu.Name, tu.Input)
			needsPermission := s.registry.RequiresPermission(tu.Name, tu.Input) && !req.AutoApprove

			op := s.operations.Log(ctx, LogParams{
				UserID:             userID,
				SessionID:          sessionID,
				ToolName:           tu.Name,
				Input:              tu.Input,
				RequiresPermission: needsPermission,
				Preview:            preview,
			})

			if needsPermission {
				s.logger.Info("operation awaiting approval", "operation_id", op.ID, "tool", tu.Name, "user_id", userID)
				return send(model.StreamRecord{
					Type:    model.StreamPermissionRequired,
					LogID:   op.ID,
					Preview: preview,
				})
			}

			result := s.registry.Execute(tools.WithUser(ctx, userID), tu.Name, tu.Input)
			s.operations.Complete(op.ID, result)

			raw, err := json.Marshal(result)
			if err != nil {
				raw = []byte(`{"success": false, "error": "failed to encode result"}`)
			}
			if err := send(model.StreamRecord{Type: model.StreamToolResult, Name: tu.Name, Result: raw}); err != nil {
				return err
			}

			if result.RequiresUserInput {
				return send(model.StreamRecord{Type: model.StreamWaitingUserInput})
			}

			messages = append(messages, llm.ChatMessage{
				Role:    "user",
				Content: fmt.Sprintf("Tool %s result:\n%s", tu.Name, resultText(result)),
			})
		}
	}

	status = "error"
	s.logger.Warn("tool round limit reached", "user_id", userID, "session_id", sessionID)
	return send(model.StreamRecord{Type: model.StreamError, Error: "Too many tool invocations in one turn."})
}

// resultText flattens a tool result into the text fed back to the model.
func resultText(result *model.ToolResult) string {
	if !result.Success {
		return "Error: " + result.Error
	}
	if result.Output != "" {
		return result.Output
	}
	if result.Content != "" {
		return result.Content
	}
	if result.Message != "" {
		return result.Message
	}
	return "(no output)"
}
